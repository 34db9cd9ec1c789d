package pipe

// Wakeup is a one-bit "data pending" flag owned by a single receiver.
// Any number of Notify calls before the receiver looks coalesce into one.
type Wakeup struct {
	c chan struct{}
}

// NewWakeup returns a cleared wakeup flag.
func NewWakeup() *Wakeup {
	return &Wakeup{c: make(chan struct{}, 1)}
}

// Notify sets the pending flag. It never blocks.
func (w *Wakeup) Notify() {
	select {
	case w.c <- struct{}{}:
	default:
	}
}

// C is selected on by the owner; a receive clears the flag.
func (w *Wakeup) C() <-chan struct{} {
	return w.c
}

// Pending checks and clears the flag without blocking.
func (w *Wakeup) Pending() bool {
	select {
	case <-w.c:
		return true
	default:
		return false
	}
}
