package trace

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wave builds a trace by applying level changes one at a time
type wave struct {
	rec *Recorder
	t   uint32
	sda bool
	scl bool
}

func newWave() *wave {
	return &wave{rec: NewRecorder(), sda: true, scl: true}
}

func (w *wave) set(sda, scl bool) {
	w.t++
	w.sda, w.scl = sda, scl
	w.rec.Record(w.t, sda, scl)
}

func (w *wave) start() { w.set(false, true) }

func (w *wave) bit(v bool) {
	w.set(w.sda, false)
	w.set(v, false)
	w.set(v, true)
}

func (w *wave) byte(v uint8, ack bool) {
	for i := 7; i >= 0; i-- {
		w.bit(v&(1<<uint(i)) != 0)
	}
	w.bit(!ack)
}

func (w *wave) stop() {
	w.set(w.sda, false)
	w.set(false, false)
	w.set(false, true)
	w.set(true, true)
}

// wait lets n time units pass without a level change
func (w *wave) wait(n uint32) { w.t += n }

func TestRecorderDropsRepeats(t *testing.T) {
	r := NewRecorder()
	r.Record(1, true, true)
	r.Record(2, false, true)
	r.Record(3, false, true)

	require.Equal(t, 2, r.Len())
	assert.Equal(t, Sample{T: 2, SDA: false, SCL: true}, r.Last())
	assert.Len(t, r.Since(1), 1)
	assert.Nil(t, r.Since(5))

	r.Reset()
	assert.Equal(t, 1, r.Len())
	assert.False(t, r.Last().SDA)
}

func TestDecodeTransaction(t *testing.T) {
	w := newWave()
	w.start()
	w.byte(0x41<<1, true)
	w.byte(0x81, true)
	w.byte(0x5A, false)
	w.stop()

	samples := w.rec.Samples()
	assert.Empty(t, Check(samples))

	txs := Decode(samples)
	require.Len(t, txs, 1)
	tx := txs[0]
	assert.False(t, tx.Repeated)
	assert.True(t, tx.Stopped)
	assert.Zero(t, tx.Extra)
	assert.Equal(t, []Byte{{0x82, true}, {0x81, true}, {0x5A, false}}, tx.Bytes)

	assert.Equal(t, 1, Count(samples, KindStart))
	assert.Equal(t, 1, Count(samples, KindStop))
	assert.Equal(t, 27, Count(samples, KindBit))
}

func TestDecodeRepeatedStart(t *testing.T) {
	w := newWave()
	w.start()
	w.byte(0x20, true)
	// Release SDA while low, pull it down again while high
	w.set(w.sda, false)
	w.set(true, false)
	w.set(true, true)
	w.set(false, true)
	w.byte(0x21, true)
	w.stop()

	samples := w.rec.Samples()
	assert.Empty(t, Check(samples))

	txs := Decode(samples)
	require.Len(t, txs, 2)
	assert.False(t, txs[0].Stopped)
	assert.True(t, txs[1].Repeated)
	assert.True(t, txs[1].Stopped)
}

func TestCheckMidByteChange(t *testing.T) {
	w := newWave()
	w.start()
	w.bit(true)
	w.bit(false)
	// SDA rises while SCL is high in the middle of a byte
	w.set(true, true)

	violations := Check(w.rec.Samples())
	require.NotEmpty(t, violations)
	assert.Equal(t, RuleMidByte, violations[0].Rule)
}

func TestCheckGlitch(t *testing.T) {
	w := newWave()
	w.start()
	w.byte(0x10, true)
	w.set(w.sda, false)
	w.set(true, false)
	w.set(true, true)
	w.set(false, true)
	w.set(true, true)

	rules := map[Rule]bool{}
	for _, v := range Check(w.rec.Samples()) {
		rules[v.Rule] = true
	}
	assert.True(t, rules[RuleGlitch])
}

func TestCheckStopThenStart(t *testing.T) {
	w := newWave()
	w.start()
	w.byte(0x20, true)
	w.stop()
	// SCL stays high from the STOP into the next START
	w.start()
	w.byte(0x21, true)
	w.stop()

	samples := w.rec.Samples()
	assert.Empty(t, Check(samples))

	txs := Decode(samples)
	require.Len(t, txs, 2)
	assert.False(t, txs[1].Repeated)

	// One unit between the conditions is not enough bus free time
	violations := CheckTiming(samples, 2)
	rules := map[Rule]bool{}
	for _, v := range violations {
		rules[v.Rule] = true
	}
	assert.True(t, rules[RuleBusFree])
}

func TestWindows(t *testing.T) {
	w := newWave()
	w.wait(10)
	w.start() // 11
	w.wait(4)
	w.set(false, false) // 16
	w.set(true, false)
	w.wait(3)
	w.set(true, true) // 21
	w.wait(4)
	w.set(true, false) // 26
	w.set(false, false)
	w.set(false, true) // 28
	w.wait(2)
	w.set(true, true) // STOP at 31
	w.wait(6)
	w.start() // 38
	w.wait(4)
	w.set(false, false) // 43
	w.set(true, false)
	w.wait(3)
	w.set(true, true) // 48
	w.wait(4)
	w.set(false, true) // repeated START at 53
	w.wait(4)
	w.set(false, false) // 58

	samples := w.rec.Samples()
	ws := Windows(samples)
	for i := range ws {
		ws[i].Index = 0
	}
	assert.Equal(t, []Window{
		{Rule: RuleStartHold, T: 16, Span: 5},
		{Rule: RuleShortHigh, T: 26, Span: 5},
		{Rule: RuleStopSetup, T: 31, Span: 3},
		{Rule: RuleBusFree, T: 38, Span: 7},
		{Rule: RuleStartHold, T: 43, Span: 5},
		{Rule: RuleShortHigh, T: 43, Span: 15},
		{Rule: RuleStartSetup, T: 53, Span: 5},
		{Rule: RuleStartHold, T: 58, Span: 5},
		{Rule: RuleShortHigh, T: 58, Span: 10},
	}, ws)

	short, ok := Shortest(ws, RuleStartHold)
	require.True(t, ok)
	assert.Equal(t, uint32(5), short)
	_, ok = Shortest(nil, RuleBusFree)
	assert.False(t, ok)

	violations := CheckTiming(samples, 5)
	require.Len(t, violations, 1)
	assert.Equal(t, RuleStopSetup, violations[0].Rule)
	assert.Equal(t, uint32(31), violations[0].T)
	assert.Equal(t, "STOP setup too short at t=31", violations[0].String())
}

func TestCheckIdleClock(t *testing.T) {
	w := newWave()
	w.set(true, false)
	w.set(true, true)

	violations := Check(w.rec.Samples())
	require.Len(t, violations, 1)
	assert.Equal(t, RuleIdleClock, violations[0].Rule)
}

func TestCheckOpenTransaction(t *testing.T) {
	w := newWave()
	w.start()
	w.byte(0x10, true)

	violations := Check(w.rec.Samples())
	require.Len(t, violations, 1)
	assert.Equal(t, RuleOpen, violations[0].Rule)
}

func TestCaptureRoundTrip(t *testing.T) {
	w := newWave()
	w.start()
	w.byte(0x48, true)
	w.stop()

	c := NewCapture(100000, w.rec.Samples())
	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	got, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	path := filepath.Join(t.TempDir(), "bus.cbor")
	require.NoError(t, c.SaveFile(path))
	got, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(100000), got.Frequency)
	assert.Equal(t, c.Samples, got.Samples)
}

func TestLoadRejectsVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Capture{Version: 99}).Save(&buf))

	_, err := Load(&buf)
	assert.Error(t, err)
}
