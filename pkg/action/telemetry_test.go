package action_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m365ble/scooter-command/pkg/action"
	"github.com/m365ble/scooter-command/pkg/protocol"
)

var _ = Describe("Telemetry Actions", func() {
	Describe("ReadSerialNumber", func() {
		It("returns read serial frame", func() {
			frame := action.ReadSerialNumber()
			Expect(frame.Operation).To(Equal(protocol.OperationRead))
			Expect(frame.Encode()).To(Equal([]byte{0x03, 0x20, 0x01, 0x10, 0x0E}))
		})
	})

	DescribeTable("register reads",
		func(frame *protocol.Frame, attribute protocol.Attribute, length byte) {
			Expect(frame.Direction).To(Equal(protocol.DirectionControllerToMotor))
			Expect(frame.Operation).To(Equal(protocol.OperationRead))
			Expect(frame.Attribute).To(Equal(attribute))
			Expect(frame.Payload).To(Equal([]byte{length}))
		},
		Entry("firmware version", action.ReadFirmwareVersion(), protocol.AttributeFirmwareVersion, byte(action.FirmwareVersionLength)),
		Entry("battery level", action.ReadBatteryLevel(), protocol.AttributeBatteryLevel, byte(action.BatteryLevelLength)),
		Entry("remaining range", action.ReadRemainingRange(), protocol.AttributeRemainingRange, byte(action.RemainingRangeLength)),
		Entry("total mileage", action.ReadTotalMileage(), protocol.AttributeTotalMileage, byte(action.TotalMileageLength)),
		Entry("speed", action.ReadSpeed(), protocol.AttributeSpeed, byte(action.SpeedLength)),
	)

	Describe("Read", func() {
		It("round trips through the codec", func() {
			encoded, err := action.Read(protocol.Attribute(0x3E), 4).Encode()
			Expect(err).ToNot(HaveOccurred())
			decoded, err := protocol.Decode(encoded)
			Expect(err).ToNot(HaveOccurred())
			Expect(decoded).To(Equal(action.Read(protocol.Attribute(0x3E), 4)))
		})
	})

	Describe("ReadRegister", func() {
		It("reads the full serial number", func() {
			frame, ok := action.ReadRegister(protocol.AttributeSerialNumber)
			Expect(ok).To(BeTrue())
			Expect(frame).To(Equal(action.ReadSerialNumber()))
		})

		It("rejects write-only registers", func() {
			_, ok := action.ReadRegister(protocol.AttributeLock)
			Expect(ok).To(BeFalse())
		})
	})
})
