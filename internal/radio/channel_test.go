package radio

import "testing"

const eps = 1e-9

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}

func TestTimeValueMapEmptyReturnsDefault(t *testing.T) {
	m := NewTimeValueMap(-42.0)
	if m.Last() != -42.0 {
		t.Fatalf("Last() = %v, want default", m.Last())
	}
	if m.Get(100) != -42.0 {
		t.Fatalf("Get() = %v, want default", m.Get(100))
	}
	if m.GetMin(0, 100) != -42.0 {
		t.Fatalf("GetMin() = %v, want default", m.GetMin(0, 100))
	}
}

func TestTimeValueMapLastAndGet(t *testing.T) {
	m := NewTimeValueMap(0)
	m.Record(2, 10)
	m.Record(4, 20)
	m.Record(6, 30)

	if m.Last() != 30 {
		t.Fatalf("Last() = %v, want 30", m.Last())
	}
	if m.Get(5) != 20 {
		t.Fatalf("Get(5) = %v, want 20 (most recent sample at or before 5)", m.Get(5))
	}
	if m.Get(1) != 0 {
		t.Fatalf("Get(1) = %v, want default 0 (before first sample)", m.Get(1))
	}
	if m.Get(6) != 30 {
		t.Fatalf("Get(6) = %v, want 30 (exact match)", m.Get(6))
	}
}

func TestTimeValueMapGetMinSeedScenario(t *testing.T) {
	// S4: records (2,-10), (4,-8), (6,-9).
	m := NewTimeValueMap(-1000)
	m.Record(2, -10)
	m.Record(4, -8)
	m.Record(6, -9)

	cases := []struct {
		t0, t1, want float64
	}{
		{1, 3, -1000},
		{2, 3, -10},
		{3, 5, -10},
		{4, 7, -9},
	}
	for _, c := range cases {
		got := m.GetMin(c.t0, c.t1)
		if !almostEqual(got, c.want) {
			t.Fatalf("GetMin(%v,%v) = %v, want %v", c.t0, c.t1, got, c.want)
		}
	}
}

func TestConversionsRoundTrip(t *testing.T) {
	for _, dbm := range []float64{-80, -30, 0, 20} {
		w := Dbm2W(dbm)
		back := W2Dbm(w)
		if !almostEqual(back, dbm) {
			t.Fatalf("Dbm2W/W2Dbm round trip: %v -> %v -> %v", dbm, w, back)
		}
	}
	for _, db := range []float64{-40, -10, 0, 3} {
		lin := Db2Lin(db)
		back := Lin2Db(lin)
		if !almostEqual(back, db) {
			t.Fatalf("Db2Lin/Lin2Db round trip: %v -> %v -> %v", db, lin, back)
		}
	}
}

func TestConstantChannelConnectionCutoff(t *testing.T) {
	c := NewConstantChannel(10.0, -40.0, -200.0, 0.01)
	if got := c.PathLoss(5.0); got != -40.0 {
		t.Fatalf("in-range PathLoss = %v, want -40", got)
	}
	if got := c.PathLoss(20.0); got != -200.0 {
		t.Fatalf("out-of-range PathLoss = %v, want -200", got)
	}
	if got := c.BER(10.0); got != 0.01 {
		t.Fatalf("BER with good SNR = %v, want 0.01", got)
	}
	if got := c.BER(0.1); got != 1.0 {
		t.Fatalf("BER with poor SNR = %v, want 1.0 (link considered dead)", got)
	}
}

func TestStateUpdatePowerRecordsAllMaps(t *testing.T) {
	channel := NewConstantChannel(10.0, -40.0, -200.0, 0.0)
	state := NewState(channel, DefaultThermalNoise, DefaultSpeedOfLight)

	reader := LinkEndpoint{Position: Position{X: 0, Y: 0, Z: 0}, TxPower: 31.5, CirculatorNoise: -80.0}
	tag := LinkEndpoint{Position: Position{X: 5, Y: 0, Z: 0}, ModulationLoss: -10.0}

	state.UpdatePower(0.0, reader, tag)

	if state.DistanceMap.Last() != 5.0 {
		t.Fatalf("DistanceMap = %v, want 5.0", state.DistanceMap.Last())
	}
	if got := state.TagRxPowerMap.Last(); got != 31.5-40.0 {
		t.Fatalf("TagRxPowerMap = %v, want %v", got, 31.5-40.0)
	}
	if got := state.ReaderRxPowerMap.Last(); got != 31.5-40.0-10.0-40.0 {
		t.Fatalf("ReaderRxPowerMap = %v, want %v", got, 31.5-40.0-10.0-40.0)
	}
	if state.BERMap.Last() != 0.0 {
		t.Fatalf("BERMap = %v, want 0.0", state.BERMap.Last())
	}
}
