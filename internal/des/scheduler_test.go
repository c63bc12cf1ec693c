package des

import "testing"

const (
	codeA Code = iota
	codeB
	codeCancelTarget
)

func TestSchedulerNegativeDelayPanics(t *testing.T) {
	s := NewScheduler()
	s.SetupContext(nil, nil)
	s.BindInit(func(ctx *Context) {
		ctx.Sched.Schedule(5.0, codeA, -1, nil)
	})
	s.Bind(codeA, EmptyHandler(func(ctx *Context) {
		defer func() {
			r := recover()
			se, ok := r.(*ScheduleError)
			if !ok {
				t.Fatalf("expected *ScheduleError panic, got %v", r)
			}
			if se.Now != 5.0 || se.At != 1.0 {
				t.Fatalf("unexpected ScheduleError fields: %+v", se)
			}
		}()
		ctx.Sched.Schedule(1.0, codeB, -1, nil)
	}), SpecEmpty)

	s.Run()
}

func TestSchedulerTieBreakDeliversInScheduleOrder(t *testing.T) {
	s := NewScheduler()
	s.SetupContext(nil, nil)

	var order []int
	s.Bind(codeA, IndexHandler(func(ctx *Context, index int) {
		order = append(order, index)
	}), SpecIndex)

	s.BindInit(func(ctx *Context) {
		ctx.Sched.Schedule(1.0, codeA, 1, nil)
		ctx.Sched.Schedule(1.0, codeA, 2, nil)
		ctx.Sched.Schedule(0.5, codeA, 0, nil)
	})

	s.Run()

	want := []int{0, 1, 2}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestSchedulerCancelPreventsHandlerFiring(t *testing.T) {
	s := NewScheduler()
	s.SetupContext(nil, nil)

	fired := false
	s.Bind(codeCancelTarget, EmptyHandler(func(ctx *Context) {
		fired = true
	}), SpecEmpty)

	s.BindInit(func(ctx *Context) {
		id := ctx.Sched.Schedule(1.0, codeCancelTarget, -1, nil)
		ctx.Sched.Cancel(id)
		ctx.Sched.Cancel(id) // idempotent
	})

	s.Run()

	if fired {
		t.Fatalf("cancelled event handler fired")
	}
}

func TestSchedulerMultipleHandlersRunInBindOrder(t *testing.T) {
	s := NewScheduler()
	s.SetupContext(nil, nil)

	var order []string
	s.Bind(codeA, EmptyHandler(func(ctx *Context) { order = append(order, "first") }), SpecEmpty)
	s.Bind(codeA, EmptyHandler(func(ctx *Context) { order = append(order, "second") }), SpecEmpty)
	s.BindInit(func(ctx *Context) {
		ctx.Sched.Schedule(1.0, codeA, -1, nil)
	})

	s.Run()

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("got %v, want [first second]", order)
	}
}
