// Package irq implements the interrupt-guarded cell described by the USB
// driver's concurrency design: a container whose contents may be borrowed
// only while the MCU's global interrupt flag is disabled. It is the Go
// equivalent of avr_device::interrupt::Mutex<T> plus the CriticalSection
// token that proves a borrow happened under that guard.
//
// There is no scheduler and no goroutine preemption on the target; the only
// adversary is the hardware interrupt handler, so a single disable/restore
// of the global interrupt flag is sufficient to make a borrow atomic with
// respect to it.
package irq

// CriticalSection is passed to Guarded.Borrow to prove interrupts are
// disabled for the borrow's duration. It carries no data; its only purpose
// is to make "I am inside Free" part of a function's type signature.
type CriticalSection struct {
	_ [0]int
}

// Guarded wraps a value that must only be accessed while global interrupts
// are disabled.
type Guarded[T any] struct {
	v T
}

// NewGuarded wraps v for interrupt-guarded access.
func NewGuarded[T any](v T) *Guarded[T] {
	return &Guarded[T]{v: v}
}

// Borrow returns a pointer to the guarded value. cs proves the caller is
// running inside Free (or an equivalent guard), so the access is atomic
// with respect to interrupt handlers that also go through Free.
func (g *Guarded[T]) Borrow(_ CriticalSection) *T {
	return &g.v
}

// Free disables interrupts, runs f with a CriticalSection token, restores
// the prior interrupt state, and returns f's result. f must not block.
func Free[R any](f func(CriticalSection) R) R {
	state := disable()
	defer restore(state)

	var cs CriticalSection
	return f(cs)
}
