package sched

import "testing"

func TestOrderingByTimestampThenInsertion(t *testing.T) {
	s := New()
	var fired []string

	s.Add(10, func(late uint64, data any) { fired = append(fired, data.(string)) }, "b")
	s.Add(5, func(late uint64, data any) { fired = append(fired, data.(string)) }, "a")
	s.Add(10, func(late uint64, data any) { fired = append(fired, data.(string)) }, "c")

	s.AddCycles(20)

	want := []string{"a", "b", "c"}
	if len(fired) != len(want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired = %v, want %v", fired, want)
		}
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	s := New()
	ran := false
	h := s.Add(5, func(uint64, any) { ran = true }, nil)
	s.Cancel(h)
	s.Cancel(h) // must not panic

	s.AddCycles(10)
	if ran {
		t.Fatal("cancelled event fired")
	}
}

func TestHandlerCanScheduleAtNow(t *testing.T) {
	s := New()
	var order []int

	var second HandlerFunc
	second = func(uint64, any) { order = append(order, 2) }

	first := func(uint64, any) {
		order = append(order, 1)
		s.Add(0, second, nil) // fires within this same drain pass
	}

	s.Add(5, first, nil)
	s.AddCycles(5)

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v, want [1 2]", order)
	}
}

func TestNoEventFiresBeforeItsTimestamp(t *testing.T) {
	s := New()
	fired := false
	s.Add(100, func(uint64, any) { fired = true }, nil)

	s.AddCycles(50)
	if fired {
		t.Fatal("event fired early")
	}
	if got := s.GetRemainingCycleCount(); got != 50 {
		t.Fatalf("GetRemainingCycleCount() = %d, want 50", got)
	}

	s.AddCycles(50)
	if !fired {
		t.Fatal("event never fired")
	}
}

func TestCyclesLateReflectsOvershoot(t *testing.T) {
	s := New()
	var late uint64
	s.Add(10, func(l uint64, _ any) { late = l }, nil)

	s.AddCycles(15) // overshoot the event by 5 cycles in one jump
	if late != 5 {
		t.Fatalf("cyclesLate = %d, want 5", late)
	}
}

func TestGetRemainingCycleCountWithNoPendingEvents(t *testing.T) {
	s := New()
	if got := s.GetRemainingCycleCount(); got != 0 {
		t.Fatalf("GetRemainingCycleCount() = %d, want 0", got)
	}
}
