package gen2

import "fmt"

// Reply is the closed sum type of tag reply frames: RN16, EPC, Handle,
// Data. Dispatch over it is always an exhaustive type switch.
type Reply interface {
	Name() string
	encodedBody() string
	isReply()
}

// RN16 is the tag's slot-arbitration random number.
type RN16 struct {
	Value uint16
}

func (RN16) isReply()   {}
func (RN16) Name() string { return "RN16" }
func (r RN16) encodedBody() string {
	return encodeUint(uint64(r.Value), 16)
}

// EPC carries the tag's identifier plus its PC and CRC16.
type EPC struct {
	PC    uint16
	Epc   string
	CRC16 uint16
}

func (EPC) isReply()   {}
func (EPC) Name() string { return "EPC" }
func (e EPC) encodedBody() string {
	epcBits, err := encodeHex(e.Epc)
	if err != nil {
		panic(err)
	}
	return encodeUint(uint64(e.PC), 16) + epcBits + encodeUint(uint64(e.CRC16), 16)
}

// Handle is the tag's access handle, returned after ReqRN.
type Handle struct {
	RN    uint16
	CRC16 uint16
}

func (Handle) isReply()   {}
func (Handle) Name() string { return "Handle" }
func (h Handle) encodedBody() string {
	return encodeUint(uint64(h.RN), 16) + encodeUint(uint64(h.CRC16), 16)
}

// Data is the tag's response to a Read request: a memory word payload.
type Data struct {
	Header bool
	Words  string // hex-encoded word payload
	RN     uint16
	CRC16  uint16
}

func (Data) isReply()   {}
func (Data) Name() string { return "Data" }
func (d Data) encodedBody() string {
	wordBits, err := encodeHex(d.Words)
	if err != nil {
		panic(err)
	}
	return encodeBool(d.Header) + wordBits + encodeUint(uint64(d.RN), 16) + encodeUint(uint64(d.CRC16), 16)
}

// EncodeReply returns the tag reply's encoded body (replies have no fixed
// command prefix the way reader commands do).
func EncodeReply(r Reply) string {
	return r.encodedBody()
}

// tagPreambleBits is the fixed bit-string table for the tag preamble,
// keyed by (encoding M, TRext). Ported verbatim from
// original_source/src/model/c1g2/replies.py.
func tagPreambleBits(m TagEncoding, trext bool) string {
	switch {
	case m == FM0 && !trext:
		return "1010v1"
	case m == FM0 && trext:
		return "0000000000001010v1"
	case m != FM0 && trext:
		return "0000000000000000010111"
	default: // m != FM0 && !trext
		return "0000010111"
	}
}

// TagPreamble is the bit-string+violation preamble a tag prepends to every
// reply frame, whose on-air duration depends on M and the link's BLF.
type TagPreamble struct {
	M     TagEncoding
	TRext bool
	BLF   float64
	bits  string
}

// NewTagPreamble builds a tag preamble for the given encoding/extension/BLF.
func NewTagPreamble(m TagEncoding, trext bool, blf float64) TagPreamble {
	return TagPreamble{M: m, TRext: trext, BLF: blf, bits: tagPreambleBits(m, trext)}
}

// Duration is the on-air duration of the preamble waveform: one symbol
// period per bit (including the violation marker 'v'), at M cycles/bit.
func (p TagPreamble) Duration() float64 {
	return float64(len(p.bits)) * float64(p.M) / p.BLF
}

// TagFrame pairs a tag preamble with an encoded reply and derives the
// resulting on-air duration.
type TagFrame struct {
	Preamble TagPreamble
	Reply    Reply
	duration float64
}

// NewTagFrame builds a TagFrame and computes its duration: every bit of
// the reply (plus the trailing dummy '1' end-of-signaling bit) takes
// M cycles of the link's BLF.
func NewTagFrame(preamble TagPreamble, reply Reply) TagFrame {
	body := EncodeReply(reply)
	bitlen := len(body) + 1 // dummy bit terminates the reply
	d := preamble.Duration() + float64(bitlen)*float64(preamble.M)/preamble.BLF
	return TagFrame{Preamble: preamble, Reply: reply, duration: d}
}

// Duration is the on-air duration of the full tag frame (preamble included).
func (f TagFrame) Duration() float64 { return f.duration }

// Bitlen is the reply's encoded bit length (preamble and dummy
// end-of-signaling bit excluded), as used by the channel's
// frame-survival probability calculation: (1-ber)^bitlen.
func (f TagFrame) Bitlen() int {
	return len(EncodeReply(f.Reply))
}

func (f TagFrame) String() string {
	return fmt.Sprintf("Frame{%s}", f.Reply.Name())
}
