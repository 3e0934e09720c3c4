package authentication

// windowSize is the number of counters below the highest accepted counter that are tracked.
// SlidingWindow.history is a uint64, so this must be ≤ 64.
const windowSize = 32

// updateSlidingWindow decides whether newCounter is fresh. counter is the highest counter
// accepted so far and window records the windowSize counters just below it, bit 0 standing for
// counter-1. A fresh counter yields the new state and true; anything else yields the unchanged
// state and false.
func updateSlidingWindow(counter uint32, window uint64, newCounter uint32) (uint32, uint64, bool) {
	const mask = uint64(1)<<windowSize - 1
	switch {
	case newCounter > counter:
		advance := newCounter - counter
		if advance > windowSize {
			// The previous highest counter falls out of the window along with everything else.
			return newCounter, 0, true
		}
		return newCounter, (window<<advance | uint64(1)<<(advance-1)) & mask, true
	case newCounter < counter:
		age := counter - newCounter
		if age > windowSize {
			return counter, window, false
		}
		bit := uint64(1) << (age - 1)
		if window&bit != 0 {
			return counter, window, false
		}
		return counter, window | bit, true
	}
	return counter, window, false
}

// SlidingWindow rejects counters that were already accepted or that are too old to check.
// The zero value accepts any first counter.
type SlidingWindow struct {
	history uint64
	counter uint32
	used    bool
}

// Update records counter and returns false if it must be rejected as a replay.
func (w *SlidingWindow) Update(counter uint32) bool {
	if !w.used {
		w.used = true
		w.counter = counter
		return true
	}
	var ok bool
	w.counter, w.history, ok = updateSlidingWindow(w.counter, w.history, counter)
	return ok
}

// Highest returns the largest counter accepted so far, or zero if none has been.
func (w *SlidingWindow) Highest() uint32 {
	return w.counter
}
