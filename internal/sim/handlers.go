package sim

import (
	"math"

	"github.com/ipu69/gen2sim/internal/des"
	"github.com/ipu69/gen2sim/internal/radio"
	"github.com/ipu69/gen2sim/pkg/gen2"
)

// Bind registers every system/reader/tag handler on s, wiring the event
// kinds declared in events.go to their calling convention.
func Bind(s *des.Scheduler) {
	s.BindInit(initialize)

	s.Bind(EvReaderLeft, des.EmptyHandler(readerLeft), des.SpecEmpty)
	s.Bind(EvUpdatePositions, des.EmptyHandler(updatePositions), des.SpecEmpty)
	s.Bind(EvStartRound, des.EmptyHandler(readerStartRound), des.SpecEmpty)
	s.Bind(EvReaderTxEnd, des.EmptyHandler(readerTxEnd), des.SpecEmpty)
	s.Bind(EvReaderRxStart, des.IndexAttachmentHandler(readerRxStart), des.SpecIndexAttachment)
	s.Bind(EvReaderRxEnd, des.EmptyHandler(readerRxEnd), des.SpecEmpty)
	s.Bind(EvSendCommand, des.AttachmentHandler(sendCommandEvent), des.SpecAttachment)
	s.Bind(EvReaderAbortRx, des.IndexHandler(readerAbortRx), des.SpecIndex)
	s.Bind(EvReaderNoReply, des.EmptyHandler(noReply), des.SpecEmpty)
	s.Bind(EvSendReply, des.IndexAttachmentHandler(sendReply), des.SpecIndexAttachment)
	s.Bind(EvTagTxEnd, des.IndexHandler(tagTxEnd), des.SpecIndex)
	s.Bind(EvTagRxStart, des.IndexAttachmentHandler(tagRxStart), des.SpecIndexAttachment)
	s.Bind(EvTagRxEnd, des.IndexHandler(tagRxEnd), des.SpecIndex)
	s.Bind(EvTagPowerOn, des.IndexHandler(tagPowerOnLink), des.SpecIndex)
	s.Bind(EvTagPowerOff, des.IndexHandler(tagPowerOffLink), des.SpecIndex)
}

func scene(ctx *des.Context) *Scene {
	return ctx.State.(*Scene)
}

//////////////////////////////////////////////////////////////////////
// System handlers
//////////////////////////////////////////////////////////////////////

func initialize(ctx *des.Context) {
	ctx.Sched.Schedule(0.0, EvUpdatePositions, -1, nil)
	ctx.Sched.Schedule(0.0, EvStartRound, -1, nil)
}

func readerLeft(ctx *des.Context) {
	ctx.Sched.Stop()
}

func updatePositions(ctx *des.Context) {
	sc := scene(ctx)
	time := ctx.Sched.Time()
	sc.Reader.UpdatePosition(time)

	if sc.AllTagsOutOfRange() {
		ctx.Sched.Schedule(time, EvReaderLeft, -1, nil)
		return
	}

	for i, link := range sc.Links {
		d := radio.Distance(sc.Reader.Position, link.Tag.Position)
		if d >= sc.MaxDistance {
			continue
		}

		readerEP := radio.LinkEndpoint{
			Position:        sc.Reader.Position,
			TxPower:         sc.Reader.TxPower,
			CirculatorNoise: sc.Reader.CirculatorNoise,
		}
		tagEP := radio.LinkEndpoint{
			Position:       link.Tag.Position,
			ModulationLoss: link.Tag.ModulationLoss,
		}
		link.State.UpdatePower(time, readerEP, tagEP)
		tagRxPower := link.State.TagRxPowerMap.Last()

		if !link.Tag.Powered() && tagRxPower >= link.Tag.Sensitivity {
			tagPowerOnLink(ctx, i)
		} else if link.Tag.Powered() && tagRxPower < link.Tag.Sensitivity {
			tagPowerOffLink(ctx, i)
		}
	}

	sc.notify(time)
	ctx.Sched.Schedule(time+sc.PositionUpdateInterval, EvUpdatePositions, -1, nil)
}

//////////////////////////////////////////////////////////////////////
// Reader handlers
//////////////////////////////////////////////////////////////////////

func propagationDelay(link *Link, reader *Reader) float64 {
	return radio.Distance(reader.Position, link.Tag.Position) / link.State.SpeedOfLight
}

func sendCommand(ctx *des.Context, frame gen2.ReaderFrame) {
	sc := scene(ctx)
	reader := sc.Reader
	time := ctx.Sched.Time()

	reader.State = ReaderTX
	reader.TxFrame = &frame
	ctx.Sched.Schedule(time+frame.Duration(), EvReaderTxEnd, -1, nil)

	for i, link := range sc.Links {
		prop := propagationDelay(link, reader)
		ctx.Sched.Schedule(time+prop, EvTagRxStart, i, frame)
	}
}

// sendCommandEvent adapts sendCommand to the SEND_COMMAND event's
// attachment-only calling convention.
func sendCommandEvent(ctx *des.Context, att any) {
	sendCommand(ctx, att.(gen2.ReaderFrame))
}

func readerStartRound(ctx *des.Context) {
	sc := scene(ctx)
	reader := sc.Reader

	if sc.MaxNumRounds > 0 && reader.NumRounds >= sc.MaxNumRounds {
		ctx.Sched.Schedule(ctx.Sched.Time(), EvReaderLeft, -1, nil)
		return
	}

	reader.StartRound()
	sc.currentRoundStart = ctx.Sched.Time()
	sendCommand(ctx, reader.Commands.Query)
}

// recordRound appends the just-finished round's summary to Rounds: a
// snapshot of powered tags, tags unpowered at the round's end, and tags
// that completed a full read (Data reply) during it.
func recordRound(ctx *des.Context, sc *Scene) {
	tagsOn, tagsOff := 0, 0
	for _, link := range sc.Links {
		if link.Tag.Powered() {
			tagsOn++
		} else {
			tagsOff++
		}
	}
	sc.Rounds = append(sc.Rounds, RoundRecord{
		Index:         sc.Reader.NumRounds,
		TStart:        sc.currentRoundStart,
		TFinish:       ctx.Sched.Time(),
		TagsOn:        tagsOn,
		TagsTurnedOff: tagsOff,
		TagsRead:      sc.tagsReadThisRound,
	})
	sc.notify(ctx.Sched.Time())
}

func readerRxStart(ctx *des.Context, index int, att any) {
	sc := scene(ctx)
	reader := sc.Reader
	frame := att.(gen2.TagFrame)
	time := ctx.Sched.Time()

	hasRXOps := len(reader.RXOps) > 0
	broken := reader.State == ReaderTX || hasRXOps

	if broken {
		for _, rxop := range reader.RXOps {
			rxop.Broken = true
		}
		if hasRXOps {
			sc.NumCollisions++
		}
	}

	reader.RXOps = append(reader.RXOps, &RxOp{
		Frame: frame, TagIndex: index,
		StartedAt: time, FinishAt: time + frame.Duration(),
		Broken: broken,
	})

	rxEndsAt := reader.RXOps[0].FinishAt
	for _, rxop := range reader.RXOps {
		if rxop.FinishAt > rxEndsAt {
			rxEndsAt = rxop.FinishAt
		}
	}
	if !hasRXOps || reader.RxEndsAt < rxEndsAt {
		ctx.Sched.Cancel(reader.EndOfRxEventID)
		reader.EndOfRxEventID = ctx.Sched.Schedule(rxEndsAt, EvReaderRxEnd, -1, nil)
		reader.RxEndsAt = rxEndsAt
	}

	if reader.State == ReaderIdle {
		reader.State = ReaderRX
		ctx.Sched.Cancel(reader.NoReplyEventID)
		reader.NoReplyEventID = -1
	}
}

func readerRxEnd(ctx *des.Context) {
	sc := scene(ctx)
	reader := sc.Reader

	reader.State = ReaderIdle

	var frame gen2.TagFrame
	broken := true
	tagIndex := -1

	if len(reader.RXOps) == 1 && !reader.RXOps[0].Broken {
		rxop := reader.RXOps[0]
		link := sc.Links[rxop.TagIndex]
		ber := link.State.BERMap.Last()
		pSuccess := math.Pow(1-ber, float64(rxop.Frame.Bitlen()))
		broken = sc.RNG.Float64() > pSuccess
		frame = rxop.Frame
		tagIndex = rxop.TagIndex
	}

	reader.RXOps = nil
	reader.EndOfRxEventID = -1

	tSend := ctx.Sched.Time() + gen2.MinT2(reader.BLF)

	if broken {
		reader.NoReplyEventID = ctx.Sched.Schedule(tSend, EvReaderNoReply, -1, nil)
		return
	}

	link := sc.Links[tagIndex]
	reply := frame.Reply

	switch reply.(type) {
	case gen2.EPC:
		link.Tag.NumEPCIDReceived++
	case gen2.Data:
		link.Tag.NumDataReceived++
		sc.tagsReadThisRound++
		if sc.RecordReadTimestamps {
			link.ReadTimestamps = append(link.ReadTimestamps, ctx.Sched.Time())
		}
	}

	newRound, nextFrame, err := reader.GetNextCommand(reply)
	if err != nil {
		panic(&ProtocolError{State: ReaderStateName(reader.State), Command: reply.Name()})
	}
	if newRound {
		recordRound(ctx, sc)
		sc.tagsReadThisRound = 0
		ctx.Sched.Schedule(tSend, EvStartRound, -1, nil)
	} else {
		ctx.Sched.Schedule(tSend, EvSendCommand, -1, nextFrame)
	}
}

func readerAbortRx(ctx *des.Context, index int) {
	sc := scene(ctx)
	reader := sc.Reader

	for _, rxop := range reader.RXOps {
		if rxop.TagIndex == index {
			rxop.Broken = true
			ctx.Sched.Cancel(reader.EndOfRxEventID)
			rxop.FinishAt = ctx.Sched.Time()
			reader.RxEndsAt = ctx.Sched.Time()
			readerRxEnd(ctx)
			return
		}
	}
}

func readerTxEnd(ctx *des.Context) {
	sc := scene(ctx)
	reader := sc.Reader

	reader.State = ReaderIdle
	reader.TxFrame = nil
	reader.EndOfTxEventID = -1

	tNoReply := ctx.Sched.Time() + reader.InterCommandInterval
	reader.NoReplyEventID = ctx.Sched.Schedule(tNoReply, EvReaderNoReply, -1, nil)
}

func noReply(ctx *des.Context) {
	sc := scene(ctx)
	reader := sc.Reader

	if reader.HasNextSlot() {
		reader.StartSlot()
		sendCommand(ctx, reader.Commands.QueryRep)
	} else {
		recordRound(ctx, sc)
		sc.tagsReadThisRound = 0
		readerStartRound(ctx)
	}
}

//////////////////////////////////////////////////////////////////////
// Tag handlers
//////////////////////////////////////////////////////////////////////

func tagPowerOnLink(ctx *des.Context, index int) {
	sc := scene(ctx)
	sc.Links[index].Tag.PowerOn()
}

func tagPowerOffLink(ctx *des.Context, index int) {
	sc := scene(ctx)
	link := sc.Links[index]
	tag := link.Tag

	if tag.TxStartEventID >= 0 {
		ctx.Sched.Cancel(tag.TxStartEventID)
		tag.TxStartEventID = -1
	}
	if tag.RxEndEventID >= 0 {
		ctx.Sched.Cancel(tag.RxEndEventID)
		tag.RxEndEventID = -1
		tag.RxFrame = nil
	}
	if tag.TxEndEventID >= 0 {
		ctx.Sched.Cancel(tag.TxEndEventID)
		tag.TxEndEventID = -1

		prop := propagationDelay(link, sc.Reader)
		ctx.Sched.Schedule(ctx.Sched.Time()+prop, EvReaderAbortRx, index, nil)
	}

	tag.State = TagOff
}

func tagRxStart(ctx *des.Context, index int, att any) {
	sc := scene(ctx)
	link := sc.Links[index]
	tag := link.Tag

	if tag.State == TagOff {
		return
	}

	frame := att.(gen2.ReaderFrame)
	tag.RxEndsAt = ctx.Sched.Time() + frame.Duration()
	tag.RxFrame = &frame
	tag.RxEndEventID = ctx.Sched.Schedule(tag.RxEndsAt, EvTagRxEnd, index, nil)
}

func tagRxEnd(ctx *des.Context, index int) {
	sc := scene(ctx)
	link := sc.Links[index]
	tag := link.Tag
	state := tag.State

	frame := tag.RxFrame
	tag.RxFrame = nil
	tag.RxEndEventID = -1

	if state == TagOff || frame == nil {
		return
	}

	time := ctx.Sched.Time()

	switch command := frame.Command.(type) {
	case gen2.Query:
		if !tag.Matches(command) {
			return
		}
		tag.Counter = sc.RNG.Intn(tag.NumSlots)
		if tag.Counter == 0 {
			tag.TxStartEventID = ctx.Sched.Schedule(time+tag.T1, EvSendReply, index, tag.Replies.RN16)
			tag.State = TagReply
		} else {
			tag.State = TagArbitrate
		}

	case gen2.QueryRep:
		tag.Counter = (tag.Counter - 1 + 0x10000) % 0x10000
		if tag.Counter == 0 {
			tag.TxStartEventID = ctx.Sched.Schedule(time+tag.T1, EvSendReply, index, tag.Replies.RN16)
			tag.State = TagReply
		} else if state != TagArbitrate && state != TagReady {
			tag.State = TagArbitrate
		}

	case gen2.Ack:
		if state == TagReply {
			tag.TxStartEventID = ctx.Sched.Schedule(time+tag.T1, EvSendReply, index, tag.Replies.EPCID)
			tag.State = TagAcknowledged
		} else {
			panic(&ProtocolError{State: TagStateName(state), Command: "Ack"})
		}

	case gen2.ReqRN:
		if state == TagAcknowledged {
			tag.TxStartEventID = ctx.Sched.Schedule(time+tag.T1, EvSendReply, index, tag.Replies.Handle)
		} else {
			panic(&ProtocolError{State: TagStateName(state), Command: "ReqRN"})
		}

	case gen2.Read:
		if state == TagAcknowledged {
			tag.TxStartEventID = ctx.Sched.Schedule(time+tag.T1, EvSendReply, index, tag.Replies.Data)
		} else {
			panic(&ProtocolError{State: TagStateName(state), Command: "Read"})
		}

	default:
		panic(&ProtocolError{State: TagStateName(state), Command: frame.Command.Name()})
	}
}

func sendReply(ctx *des.Context, index int, att any) {
	sc := scene(ctx)
	link := sc.Links[index]
	tag := link.Tag
	frame := att.(gen2.TagFrame)
	time := ctx.Sched.Time()

	tag.TxFrame = &frame

	switch frame.Reply.(type) {
	case gen2.EPC:
		tag.NumEPCIDSent++
	case gen2.Data:
		tag.NumDataSent++
	}

	tag.TxEndEventID = ctx.Sched.Schedule(time+frame.Duration(), EvTagTxEnd, index, nil)
	prop := propagationDelay(link, sc.Reader)
	ctx.Sched.Schedule(time+prop, EvReaderRxStart, index, frame)
}

func tagTxEnd(ctx *des.Context, index int) {
	sc := scene(ctx)
	tag := sc.Links[index].Tag
	tag.TxEndEventID = -1
	tag.TxFrame = nil
}
