package gen2

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReaderFrameDurationFormula(t *testing.T) {
	// Property 6: duration = preamble + n0*data0 + n1*data1.
	sync := NewReaderSync(6.25e-6, 15.0e-6)
	cmd := QueryRep{Session: S1}
	frame := NewReaderFrame(sync, cmd)

	encoded := Encode(cmd)
	zeros, ones := countBits(encoded)
	want := sync.Duration() + float64(zeros)*sync.Data0() + float64(ones)*sync.Data1()

	if got := frame.Duration(); got != want {
		t.Fatalf("Duration() = %v, want %v", got, want)
	}
}

// decodeQueryBits parses a Query's encoded body (the 18 bits following
// the fixed 4-bit prefix) back into field values, mirroring the field
// order and widths spec.md §4.D.3 names for Query. It exists only to
// exercise the round-trip property; no production decoder is needed
// since this simulator never receives a Query, it only emits one.
func decodeQueryBits(body string) Query {
	bit := func(i int) uint64 {
		if body[i] == '1' {
			return 1
		}
		return 0
	}
	bits := func(i, n int) uint64 {
		var v uint64
		for k := 0; k < n; k++ {
			v = v<<1 | bit(i+k)
		}
		return v
	}

	dr := DR8
	if bit(0) == 1 {
		dr = DR64_3
	}
	m := TagEncoding(1 << bits(1, 2))
	trext := bit(3) == 1
	sel := Sel(bits(4, 2))
	session := Session(bits(6, 2))
	target := InventoryFlag(bit(8))
	q := int(bits(9, 4))
	crc5 := uint8(bits(13, 5))

	return Query{Q: q, M: m, DR: dr, TRext: trext, Sel: sel, Session: session, Target: target, CRC5: crc5}
}

func TestQueryEncodeDecodeRoundTrip(t *testing.T) {
	original := Query{Q: 5, M: M4, DR: DR64_3, TRext: true, Sel: SelYes, Session: S2, Target: FlagB, CRC5: 17}

	encoded := Encode(original)
	body := strings.TrimPrefix(encoded, commandPrefix(original))
	decoded := decodeQueryBits(body)

	if diff := cmp.Diff(original, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryEncodingSeedScenario(t *testing.T) {
	// S6: Q=4, M=M2, DR=8, TRext=false, Sel=ALL, Session=S0, Target=A, CRC5=0.
	//
	// spec.md's worked example writes the M field as "10"; TagEncoding's
	// own encode rule (log2(M) as a 2-bit value, shared with
	// original_source/src/model/c1g2/symbols.py) gives M2 = "01" — FM0=00,
	// M2=01, M4=10, M8=11, matching the EPC Gen2 standard's own table.
	// This test follows the implementation's (and the standard's) value
	// rather than the apparently transposed digit in that prose example.
	q := Query{Q: 4, M: M2, DR: DR8, TRext: false, Sel: SelAll, Session: S0, Target: FlagA, CRC5: 0}

	const prefix = "1000"
	wantBody := "0" + "01" + "0" + "00" + "00" + "0" + "0100" + "00000"

	encoded := Encode(q)
	if !strings.HasPrefix(encoded, prefix) {
		t.Fatalf("encoded = %q, want prefix %q", encoded, prefix)
	}
	gotBody := strings.TrimPrefix(encoded, prefix)
	if gotBody != wantBody {
		t.Fatalf("body = %q, want %q", gotBody, wantBody)
	}
}

func TestQueryRepAckReqRNReadPrefixes(t *testing.T) {
	cases := []struct {
		cmd    Command
		prefix string
	}{
		{QueryRep{Session: S0}, "00"},
		{Ack{RN: 0x1234}, "01"},
		{ReqRN{RN: 0x1234, CRC16: 0x5678}, "11000001"},
		{Read{Bank: BankUser, WordPtr: 0, WordCnt: 4, RN: 0x1234, CRC16: 0x5678}, "11000010"},
	}
	for _, c := range cases {
		encoded := Encode(c.cmd)
		if !strings.HasPrefix(encoded, c.prefix) {
			t.Fatalf("%s: encoded = %q, want prefix %q", c.cmd.Name(), encoded, c.prefix)
		}
	}
}

func TestTagFrameDurationFormula(t *testing.T) {
	blf := GetBLF(DR64_3, 20e-6)
	preamble := NewTagPreamble(M2, false, blf)
	reply := RN16{Value: 0xBEEF}
	frame := NewTagFrame(preamble, reply)

	bitlen := len(EncodeReply(reply)) + 1
	want := preamble.Duration() + float64(bitlen)*float64(M2)/blf
	if got := frame.Duration(); got != want {
		t.Fatalf("Duration() = %v, want %v", got, want)
	}
}
