//go:build avr

package irq

import (
	"device/avr"
)

// disable clears the global interrupt flag (SREG.I) and returns the prior
// SREG contents so the caller can restore it exactly, including whether
// interrupts were already disabled (nested Free calls must not re-enable
// them early).
func disable() uint8 {
	sreg := avr.SREG.Get()
	avr.AsmFull("cli", nil)
	return sreg
}

// restore writes SREG back to a value previously returned by disable.
func restore(sreg uint8) {
	avr.SREG.Set(sreg)
}
