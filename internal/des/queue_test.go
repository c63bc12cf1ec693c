package des

import "testing"

func TestQueuePopOrderByTimeThenID(t *testing.T) {
	// S5: push events at times {1, 1, 0.5, 1.0}; pop order is
	// (0.5, first-1, second-1, last-1.0) with id tie-break.
	q := NewEventQueue()
	idA := q.Push(0, 1.0, -1, "a")
	idB := q.Push(0, 1.0, -1, "b")
	idC := q.Push(0, 0.5, -1, "c")
	idD := q.Push(0, 1.0, -1, "d")

	want := []struct {
		id  int64
		att any
	}{
		{idC, "c"},
		{idA, "a"},
		{idB, "b"},
		{idD, "d"},
	}

	for i, w := range want {
		ev := q.Pop()
		if ev == nil {
			t.Fatalf("pop %d: queue drained early", i)
		}
		if ev.id != w.id || ev.att != w.att {
			t.Fatalf("pop %d: got (id=%d, att=%v), want (id=%d, att=%v)", i, ev.id, ev.att, w.id, w.att)
		}
	}
	if q.Pop() != nil {
		t.Fatalf("expected queue to be drained")
	}
}

func TestQueueMonotonicTime(t *testing.T) {
	q := NewEventQueue()
	times := []float64{5, 1, 3, 2, 4}
	for _, tm := range times {
		q.Push(0, tm, -1, nil)
	}
	last := -1.0
	for {
		ev := q.Pop()
		if ev == nil {
			break
		}
		if ev.time < last {
			t.Fatalf("time went backwards: %v after %v", ev.time, last)
		}
		last = ev.time
	}
}

func TestQueueCancellationNeverFires(t *testing.T) {
	q := NewEventQueue()
	id := q.Push(0, 1.0, -1, "cancel-me")
	q.Push(0, 2.0, -1, "keep-me")

	q.Remove(id)
	q.Remove(id) // cancelling twice is a no-op, not an error

	ev := q.Pop()
	if ev == nil || ev.att != "keep-me" {
		t.Fatalf("expected the cancelled event to be skipped, got %v", ev)
	}
	if q.Pop() != nil {
		t.Fatalf("expected queue to be drained after the surviving event")
	}
}

func TestQueueRemoveUnknownIDIsHarmless(t *testing.T) {
	q := NewEventQueue()
	q.Push(0, 1.0, -1, nil)
	q.Remove(9999) // never scheduled; must not panic or affect anything
	if ev := q.Pop(); ev == nil {
		t.Fatalf("expected the real event to still pop")
	}
}

func TestQueueLazyCleanupDrainsToEmpty(t *testing.T) {
	q := NewEventQueue()
	ids := make([]int64, 0, 5)
	for i := 0; i < 5; i++ {
		ids = append(ids, q.Push(0, float64(i), -1, nil))
	}
	for _, id := range ids {
		q.Remove(id)
	}
	for q.Pop() != nil {
	}
	if !q.Empty() {
		t.Fatalf("expected queue to report empty after draining only cancellations")
	}
	if q.Size() != 0 {
		t.Fatalf("expected size 0 after drain, got %d", q.Size())
	}
}
