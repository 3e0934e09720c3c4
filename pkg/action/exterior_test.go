package action_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m365ble/scooter-command/pkg/action"
	"github.com/m365ble/scooter-command/pkg/protocol"
)

var _ = Describe("Exterior Actions", func() {
	Describe("TailLightOn", func() {
		It("returns tail light on frame", func() {
			frame := action.TailLightOn()
			Expect(frame).ToNot(BeNil())
			Expect(frame.Attribute).To(Equal(protocol.AttributeTailLight))
			Expect(frame.Encode()).To(Equal([]byte{0x04, 0x20, 0x03, 0x7D, 0x02, 0x00}))
		})
	})

	Describe("TailLightOff", func() {
		It("returns tail light off frame", func() {
			frame := action.TailLightOff()
			Expect(frame).ToNot(BeNil())
			Expect(frame.Encode()).To(Equal([]byte{0x04, 0x20, 0x03, 0x7D, 0x00, 0x00}))
		})
	})

	Describe("SetTailLight", func() {
		It("selects the frame from the flag", func() {
			Expect(action.SetTailLight(true)).To(Equal(action.TailLightOn()))
			Expect(action.SetTailLight(false)).To(Equal(action.TailLightOff()))
		})
	})

	Describe("SetTailLightMode", func() {
		It("writes brake mode", func() {
			frame := action.SetTailLightMode(action.TailLightModeBrake)
			Expect(frame.Payload).To(Equal([]byte{0x01, 0x00}))
			Expect(action.TailLightModeBrake.String()).To(Equal("brake"))
		})
		It("names unknown modes", func() {
			Expect(action.TailLightMode(7).String()).To(Equal("TailLightMode(7)"))
		})
	})
})
