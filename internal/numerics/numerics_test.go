package numerics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceBPM(t *testing.T) {
	assert.Equal(t, DefaultBPM, CoerceBPM(0))
	assert.Equal(t, MinBPM, CoerceBPM(-10))
	assert.Equal(t, MaxBPM, CoerceBPM(1000))
	assert.Equal(t, 140.0, CoerceBPM(140))
}

func TestCoerceTranspose(t *testing.T) {
	assert.Equal(t, 0, CoerceTranspose(0.4))
	assert.Equal(t, 1, CoerceTranspose(0.6))
	assert.Equal(t, MaxTranspose, CoerceTranspose(1000))
	assert.Equal(t, MinTranspose, CoerceTranspose(-1000))
}

func TestBeatSecRoundtrip(t *testing.T) {
	bpm := 120.0
	beat := 3.5
	sec := BeatToSec(beat, bpm)
	require.InDelta(t, 1.75, sec, 1e-9)
	back := SecToBeat(sec, bpm)
	assert.InDelta(t, beat, back, 1e-9)
}

func TestPxConversionDual(t *testing.T) {
	bpm := 150.0
	pxPerSec := 200.0
	pxPerBeat := PxPerSecToPxPerBeat(pxPerSec, bpm)
	back := PxPerBeatToPxPerSec(pxPerBeat, bpm)
	assert.InDelta(t, pxPerSec, back, 1e-9)
}

func TestPxConversionDefaultsOnNonFinite(t *testing.T) {
	nan := 0.0
	nan = nan / nan
	assert.Equal(t, DefaultPxPerBeat, PxPerSecToPxPerBeat(nan, 120))
	assert.Equal(t, DefaultPxPerSec, PxPerBeatToPxPerSec(nan, 120))
}

func TestSnapToGridBeat(t *testing.T) {
	assert.Equal(t, 2.0, SnapToGridBeat(2.1, 0.5))
	assert.Equal(t, 2.1, SnapToGridBeat(2.1, 0))
}

func TestSnapIfCloseBeat(t *testing.T) {
	assert.Equal(t, 2.0, SnapIfCloseBeat(2.01, 0.5, 0.05))
	assert.Equal(t, 2.2, SnapIfCloseBeat(2.2, 0.5, 0.01))
}

func TestNormalizeBeat(t *testing.T) {
	assert.Equal(t, 1.123457, NormalizeBeat(1.1234567))
}

func TestFreeVsSnappedSetters(t *testing.T) {
	bpm := 120.0
	sec := 0.9
	free := FreePlayheadBeat(sec, bpm)
	assert.Equal(t, NormalizeBeat(SecToBeat(sec, bpm)), free)

	snapped := SnappedPlayheadBeat(sec, bpm, 0.5)
	assert.Equal(t, NormalizeBeat(SnapToGridBeat(SecToBeat(sec, bpm), 0.5)), snapped)

	freeInst := FreeInstanceStartBeat(sec, bpm)
	assert.Equal(t, free, freeInst)

	snappedInst := SnappedInstanceStartBeat(sec, bpm, 0.5)
	assert.Equal(t, snapped, snappedInst)
}

func TestClampPitchVelocity(t *testing.T) {
	assert.Equal(t, MaxPitch, ClampPitch(200))
	assert.Equal(t, MinPitch, ClampPitch(-5))
	assert.Equal(t, MinVelocity, ClampVelocity(0))
	assert.Equal(t, MaxVelocity, ClampVelocity(300))
}
