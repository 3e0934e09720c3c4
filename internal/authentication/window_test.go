package authentication

import (
	"testing"
)

func TestSlidingWindow(t *testing.T) {
	type windowTest struct {
		name                   string
		counter                uint32
		window                 uint64
		newCounter             uint32
		expectedUpdatedCounter uint32
		expectedUpdatedWindow  uint64
		expectedOk             bool
	}
	tests := []windowTest{
		{
			name:                   "next counter",
			counter:                100,
			window:                 (1 << 0) | (1 << 5),
			newCounter:             101,
			expectedUpdatedCounter: 101,
			expectedUpdatedWindow:  1 | (1 << 1) | (1 << 6),
			expectedOk:             true,
		},
		{
			name:                   "skipped counters",
			counter:                100,
			window:                 (1 << 0) | (1 << 5),
			newCounter:             103,
			expectedUpdatedCounter: 103,
			expectedUpdatedWindow:  (1 << 2) | (1 << 3) | (1 << 8),
			expectedOk:             true,
		},
		{
			name:                   "jump beyond window",
			counter:                100,
			window:                 (1 << 0) | (1 << 5),
			newCounter:             500,
			expectedUpdatedCounter: 500,
			expectedUpdatedWindow:  0,
			expectedOk:             true,
		},
		{
			name:                   "advance by exactly the window size",
			counter:                100,
			window:                 1,
			newCounter:             100 + windowSize,
			expectedUpdatedCounter: 100 + windowSize,
			expectedUpdatedWindow:  1 << (windowSize - 1),
			expectedOk:             true,
		},
		{
			name:                   "history falls off the end",
			counter:                100,
			window:                 1 << 31,
			newCounter:             101,
			expectedUpdatedCounter: 101,
			expectedUpdatedWindow:  1,
			expectedOk:             true,
		},
		{
			name:                   "out of order, unseen",
			counter:                100,
			window:                 (1 << 0) | (1 << 5),
			newCounter:             98,
			expectedUpdatedCounter: 100,
			expectedUpdatedWindow:  (1 << 0) | (1 << 1) | (1 << 5),
			expectedOk:             true,
		},
		{
			name:                   "out of order, seen",
			counter:                100,
			window:                 (1 << 0) | (1 << 5),
			newCounter:             99,
			expectedUpdatedCounter: 100,
			expectedUpdatedWindow:  (1 << 0) | (1 << 5),
			expectedOk:             false,
		},
		{
			name:                   "too old",
			counter:                100,
			window:                 (1 << 0) | (1 << 5),
			newCounter:             3,
			expectedUpdatedCounter: 100,
			expectedUpdatedWindow:  (1 << 0) | (1 << 5),
			expectedOk:             false,
		},
		{
			name:                   "repeat of highest",
			counter:                100,
			window:                 (1 << 0) | (1 << 5),
			newCounter:             100,
			expectedUpdatedCounter: 100,
			expectedUpdatedWindow:  (1 << 0) | (1 << 5),
			expectedOk:             false,
		},
	}
	for _, test := range tests {
		counter, window, ok := updateSlidingWindow(test.counter, test.window, test.newCounter)
		if counter != test.expectedUpdatedCounter || window != test.expectedUpdatedWindow || ok != test.expectedOk {
			t.Errorf("%s: got counter=%d, window=%b, ok=%v", test.name, counter, window, ok)
		}
		w := SlidingWindow{
			history: test.window,
			counter: test.counter,
			used:    true,
		}
		if w.Update(test.newCounter) != test.expectedOk {
			t.Errorf("%s: SlidingWindow.Update disagrees", test.name)
		}
		if w.Highest() != test.expectedUpdatedCounter {
			t.Errorf("%s: Highest() = %d", test.name, w.Highest())
		}
	}
}

func TestSlidingWindowFirstUse(t *testing.T) {
	var w SlidingWindow
	if w.Highest() != 0 {
		t.Errorf("Unused window reports counter %d", w.Highest())
	}
	if !w.Update(42) {
		t.Errorf("First counter rejected")
	}
	if w.Update(42) {
		t.Errorf("Repeated counter accepted")
	}
	if !w.Update(41) || w.Update(41) {
		t.Errorf("Out-of-order counter handling failed")
	}
}
