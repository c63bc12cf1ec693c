package des

// HandlerSpec selects a handler's calling convention: which of a fired
// event's index/attachment fields it wants passed through.
type HandlerSpec int

const (
	// SpecEmpty handlers take only the Context.
	SpecEmpty HandlerSpec = iota
	// SpecIndex handlers additionally take the event's integer index.
	SpecIndex
	// SpecAttachment handlers additionally take the event's attachment.
	SpecAttachment
	// SpecIndexAttachment handlers take both index and attachment.
	SpecIndexAttachment
)

// EmptyHandler, IndexHandler, AttachmentHandler and IndexAttachmentHandler
// are the four calling conventions a bound handler may use, selected by
// the HandlerSpec passed to Bind.
type (
	EmptyHandler           func(ctx *Context)
	IndexHandler           func(ctx *Context, index int)
	AttachmentHandler      func(ctx *Context, att any)
	IndexAttachmentHandler func(ctx *Context, index int, att any)
)

// handlerDescriptor pairs a bound handler (stored as `any`, type-asserted
// per its declared spec at dispatch time) with its calling convention.
type handlerDescriptor struct {
	handler  any
	specType HandlerSpec
}

// Context is passed to every handler invocation: the scheduler itself
// (so a handler can Schedule/Cancel further events), the caller-defined
// simulation state, and read-only run parameters.
type Context struct {
	Sched  *Scheduler
	State  any
	Params any
}

// Scheduler is the integer-coded event-driven kernel: handlers are
// bound to integer Codes (never by name), and a single cooperative Run
// loop drains the EventQueue to completion, dispatching each fired
// event to every handler bound to its code, in bind order.
type Scheduler struct {
	queue       *EventQueue
	handlers    map[Code][]handlerDescriptor
	initHandlers []EmptyHandler
	time        float64
	ctx         *Context
	stopped     bool
}

// NewScheduler returns a Scheduler with an empty queue and no bound
// handlers, ready for Bind/BindInit calls followed by a single Run.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		queue:    NewEventQueue(),
		handlers: make(map[Code][]handlerDescriptor),
	}
	s.ctx = &Context{Sched: s}
	return s
}

// Bind registers handler to run whenever an event of the given code
// fires. Multiple handlers may be bound to the same code; they run in
// the order they were bound.
func (s *Scheduler) Bind(code Code, handler any, spec HandlerSpec) {
	s.handlers[code] = append(s.handlers[code], handlerDescriptor{handler: handler, specType: spec})
}

// BindInit registers a handler to run once, in registration order,
// before the event loop starts — for initial-condition setup events
// that need no queued event of their own.
func (s *Scheduler) BindInit(handler EmptyHandler) {
	s.initHandlers = append(s.initHandlers, handler)
}

// SetupContext installs the simulation state and parameters that every
// handler invocation for this run will see via its Context.
func (s *Scheduler) SetupContext(state, params any) {
	s.ctx = &Context{Sched: s, State: state, Params: params}
}

// Context returns the scheduler's current context.
func (s *Scheduler) Context() *Context { return s.ctx }

// Time returns the timestamp of the event currently being processed
// (or 0 before Run starts).
func (s *Scheduler) Time() float64 { return s.time }

// Schedule enqueues an event of the given code at the given absolute
// time, with an optional index and attachment, and returns an id
// usable with Cancel. Callers pass -1 as index when the handler does
// not use it.
func (s *Scheduler) Schedule(time float64, code Code, index int, att any) int64 {
	if time < s.time {
		panic(&ScheduleError{Code: code, Now: s.time, At: time})
	}
	return s.queue.Push(code, time, index, att)
}

// Cancel cancels a previously scheduled event. Cancelling an id that
// has already fired or was already cancelled is a no-op.
func (s *Scheduler) Cancel(id int64) {
	s.queue.Remove(id)
}

// Run drains the event queue to completion: init handlers fire once,
// then each queued event fires in (time, id) order until the queue is
// empty or Stop is called.
func (s *Scheduler) Run() {
	s.time = 0
	for _, handler := range s.initHandlers {
		handler(s.ctx)
	}

	for !s.queue.Empty() && !s.stopped {
		ev := s.queue.Pop()
		if ev == nil {
			break
		}
		s.time = ev.time
		for _, descriptor := range s.handlers[ev.code] {
			s.callHandler(descriptor, ev.index, ev.att)
		}
	}
}

// Stop ends the run after the currently dispatching event's handlers
// finish, regardless of what remains queued.
func (s *Scheduler) Stop() {
	s.stopped = true
}

func (s *Scheduler) callHandler(d handlerDescriptor, index int, att any) {
	switch d.specType {
	case SpecIndexAttachment:
		d.handler.(IndexAttachmentHandler)(s.ctx, index, att)
	case SpecIndex:
		d.handler.(IndexHandler)(s.ctx, index)
	case SpecAttachment:
		d.handler.(AttachmentHandler)(s.ctx, att)
	default:
		d.handler.(EmptyHandler)(s.ctx)
	}
}
