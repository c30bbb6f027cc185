package flipper

import "sync"

// Intc models the processor interface's interrupt logic: the cause and mask
// registers and the dispatch of pending interrupts to registered handlers.
//
// On the console the critical section around shared state is entered by
// clearing the CPU's external interrupt enable. Intc implements it as a
// mutual exclusion lock instead, which gives foreground code and interrupt
// dispatch the same atomicity guarantees while keeping the race observable
// by the race detector and by tests running simulated interrupts.
type Intc struct {
	mu sync.Mutex

	cause InterruptFlag // latched causes plus the live switch input bit
	mask  InterruptFlag

	handlers [14]func()
}

func NewIntc() *Intc {
	// The switch contact reads open after power-on.
	return &Intc{cause: intrSwitchOpen}
}

// DisableInterrupts enters the critical section used around all state shared
// with interrupt handlers. It reports whether dispatch was enabled before
// the call, which is always the case once it returns, since entry blocks
// while another section is held. The returned state must be passed to the
// matching RestoreInterrupts.
//
// Sections do not nest: code running inside one must not enter another.
// This is why handlers are dispatched outside the section and enter it
// themselves, and why takers of a callback invoke it only after their
// section has ended.
func (ic *Intc) DisableInterrupts() (prior bool) {
	ic.mu.Lock()
	return true
}

// RestoreInterrupts leaves the critical section entered by the matching
// DisableInterrupts, re-enabling dispatch.
func (ic *Intc) RestoreInterrupts(prior bool) {
	ic.mu.Unlock()
}

// MaskInterrupts disables the given sources. Raising a masked source only
// latches its cause bit. Must be called inside a critical section.
func (ic *Intc) MaskInterrupts(mask InterruptFlag) {
	ic.mask &^= mask
}

// UnmaskInterrupts enables the given sources. A cause already pending is not
// dispatched retroactively, so callers acknowledge stale causes before
// unmasking. Must be called inside a critical section.
func (ic *Intc) UnmaskInterrupts(mask InterruptFlag) {
	ic.mask |= mask
}

// Pending reports whether any of the given causes is latched. Must be called
// inside a critical section.
func (ic *Intc) Pending(mask InterruptFlag) bool {
	return ic.cause&mask != 0
}

// Acknowledge clears the given latched causes, like writing them back to the
// cause register. The live switch input bit is read-only and unaffected.
// Must be called inside a critical section.
func (ic *Intc) Acknowledge(mask InterruptFlag) {
	ic.cause &^= mask & (IntrLast - 1)
}

// SwitchOpen reports the live state of the reset switch contact. Must be
// called inside a critical section.
func (ic *Intc) SwitchOpen() bool {
	return ic.cause&intrSwitchOpen != 0
}

// SetSwitchOpen drives the switch contact input. On the console this bit is
// wired to the button itself; it is set manually by tests and emulation.
func (ic *Intc) SetSwitchOpen(open bool) {
	prior := ic.DisableInterrupts()
	if open {
		ic.cause |= intrSwitchOpen
	} else {
		ic.cause &^= intrSwitchOpen
	}
	ic.RestoreInterrupts(prior)
}

// SetHandler registers handler for the given source, replacing any previous
// one. The handler is invoked outside the critical section and must enter it
// itself before touching shared state.
func (ic *Intc) SetHandler(intr InterruptFlag, handler func()) {
	prior := ic.DisableInterrupts()
	irq := 0
	for flag := InterruptFlag(1); flag != IntrLast; flag = flag << 1 {
		if flag&intr != 0 {
			ic.handlers[irq] = handler
			break
		}
		irq += 1
	}
	ic.RestoreInterrupts(prior)
}

// Handler returns the handler registered for the given source.
func (ic *Intc) Handler(intr InterruptFlag) func() {
	prior := ic.DisableInterrupts()
	defer ic.RestoreInterrupts(prior)
	irq := 0
	for flag := InterruptFlag(1); flag != IntrLast; flag = flag << 1 {
		if flag&intr != 0 {
			return ic.handlers[irq]
		}
		irq += 1
	}
	return nil
}

// Raise latches the given causes and dispatches the handlers of those that
// are unmasked, each exactly once per call. On the console this is driven by
// the external interrupt exception; tests and emulation call it to simulate
// hardware events. If a critical section is held, Raise blocks until the
// section ends and dispatches on return from it, like a cause latched while
// interrupts are disabled.
func (ic *Intc) Raise(cause InterruptFlag) {
	ic.mu.Lock()
	cause &= IntrLast - 1
	ic.cause |= cause

	var dispatch [14]func()
	n := 0
	irq := 0
	for flag := InterruptFlag(1); flag != IntrLast; flag = flag << 1 {
		if flag&cause != 0 && flag&ic.mask != 0 {
			handler := ic.handlers[irq]
			if handler == nil {
				ic.mu.Unlock()
				panic("unhandled interrupt")
			}
			dispatch[n] = handler
			n += 1
		}
		irq += 1
	}
	ic.mu.Unlock()

	for _, handler := range dispatch[:n] {
		handler()
	}
}
