package os

import "github.com/ribbanya/dolsdk2001/flipper"

// ResetSwitch tracks the console's reset button. The button's interrupt
// fires once on the press; the release is observed by polling and debounced,
// because the contact flickers while it settles.
type ResetSwitch struct {
	intc  *flipper.Intc
	clock Clock

	// Shared with the interrupt handler, guarded by the controller's
	// critical section.
	callback func()
	down     bool
	hold     Time // timebase at the last observed release, 0 if none
}

// NewResetSwitch registers a reset switch with the controller's dispatch
// table. The button's interrupt source stays masked until a callback is
// registered with SetCallback.
func NewResetSwitch(intc *flipper.Intc, clock Clock) *ResetSwitch {
	rs := &ResetSwitch{intc: intc, clock: clock}
	intc.SetHandler(flipper.IntrResetSwitch, rs.handle)
	return rs
}

// handle runs when the button's interrupt fires. The source stays masked
// afterwards until SetCallback arms it again.
func (rs *ResetSwitch) handle() {
	prior := rs.intc.DisableInterrupts()
	rs.down = true
	rs.intc.Acknowledge(flipper.IntrResetSwitch)
	rs.intc.MaskInterrupts(flipper.IntrResetSwitch)

	// Take ownership of the callback before invoking it, so that a
	// callback which registers a new one isn't re-entered by the same
	// interrupt.
	callback := rs.callback
	rs.callback = nil
	rs.intc.RestoreInterrupts(prior)

	if callback != nil {
		callback()
	}
}

// SetCallback registers callback to be invoked once when the reset button is
// pressed and returns the previously registered one. A non-nil callback
// arms the button's interrupt source, nil disarms it. Acknowledges any stale
// cause before arming, so only a fresh press triggers the callback.
func (rs *ResetSwitch) SetCallback(callback func()) (prev func()) {
	prior := rs.intc.DisableInterrupts()
	prev = rs.callback
	rs.callback = callback

	if callback != nil {
		rs.intc.Acknowledge(flipper.IntrResetSwitch)
		rs.intc.UnmaskInterrupts(flipper.IntrResetSwitch)
	} else {
		rs.intc.MaskInterrupts(flipper.IntrResetSwitch)
	}
	rs.intc.RestoreInterrupts(prior)
	return prev
}

// Pressed reports whether the reset button is currently considered held.
// The release is debounced twice: a pending cause keeps the button pressed
// until acknowledged, and for 50ms after the release every poll still
// reports it pressed. The poll that observes the release itself also reads
// as pressed.
func (rs *ResetSwitch) Pressed() bool {
	prior := rs.intc.DisableInterrupts()
	defer rs.intc.RestoreInterrupts(prior)

	if !rs.intc.SwitchOpen() {
		rs.down = true
		return true
	}
	if rs.down {
		if rs.intc.Pending(flipper.IntrResetSwitch) {
			rs.intc.Acknowledge(flipper.IntrResetSwitch)
		} else {
			rs.down = false
			rs.hold = rs.clock.Now()
		}
		return true
	}
	if rs.hold != 0 && rs.clock.Now()-rs.hold < MillisecondsToTicks(50) {
		return true
	}
	rs.hold = 0
	return false
}
