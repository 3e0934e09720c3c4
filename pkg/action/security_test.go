package action_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m365ble/scooter-command/pkg/action"
	"github.com/m365ble/scooter-command/pkg/protocol"
)

var _ = Describe("Security Actions", func() {
	Describe("Lock", func() {
		It("returns lock frame", func() {
			frame := action.Lock()
			Expect(frame).ToNot(BeNil())
			Expect(frame.Direction).To(Equal(protocol.DirectionControllerToMotor))
			Expect(frame.Operation).To(Equal(protocol.OperationWrite))
			Expect(frame.Attribute).To(Equal(protocol.AttributeLock))
			Expect(frame.Encode()).To(Equal([]byte{0x04, 0x20, 0x03, 0x70, 0x01, 0x00}))
		})
	})

	Describe("Unlock", func() {
		It("returns unlock frame", func() {
			frame := action.Unlock()
			Expect(frame).ToNot(BeNil())
			Expect(frame.Attribute).To(Equal(protocol.AttributeUnlock))
			Expect(frame.Encode()).To(Equal([]byte{0x04, 0x20, 0x03, 0x71, 0x01, 0x00}))
		})
	})

	Describe("SetLock", func() {
		It("locks when true", func() {
			Expect(action.SetLock(true)).To(Equal(action.Lock()))
		})
		It("unlocks when false", func() {
			Expect(action.SetLock(false)).To(Equal(action.Unlock()))
		})
	})

	It("does not share payload buffers between frames", func() {
		first := action.Lock()
		first.Payload[0] = 0xff
		Expect(action.Lock().Payload).To(Equal([]byte{0x01, 0x00}))
		Expect(action.Unlock().Payload).To(Equal([]byte{0x01, 0x00}))
	})
})
