// Package numerics holds the engine's pure beat/seconds/pixel conversion
// helpers. No hidden state, no I/O — every function here is deterministic in
// its arguments alone.
package numerics

import "math"

const (
	// MinBPM and MaxBPM bound coerceBpm's clamp range.
	MinBPM = 30.0
	MaxBPM = 260.0
	// DefaultBPM is used whenever an input bpm is invalid or non-finite.
	DefaultBPM = 120.0

	// MinTranspose and MaxTranspose bound coerceTranspose's clamp range.
	MinTranspose = -48
	MaxTranspose = 48

	// MinPitch and MaxPitch bound clampPitch.
	MinPitch = 0
	MaxPitch = 127
	// MinVelocity and MaxVelocity bound clampVelocity.
	MinVelocity = 1
	MaxVelocity = 127

	// BeatEpsilon is the storage de-noise rounding granularity for beat
	// values. It is never a musical grid snap.
	BeatEpsilon = 1e-6

	// DefaultPxPerBeat and DefaultPxPerSec are returned when a pixel-density
	// conversion is given a non-finite input.
	DefaultPxPerBeat = 80.0
	DefaultPxPerSec  = 160.0

	secondsPerMinute = 60.0
)

// CoerceBPM clamps bpm into [MinBPM, MaxBPM]; invalid (non-finite or zero)
// inputs coerce to DefaultBPM.
func CoerceBPM(bpm float64) float64 {
	if !isFinite(bpm) || bpm == 0 {
		return DefaultBPM
	}
	return clampFloat(bpm, MinBPM, MaxBPM)
}

// CoerceTranspose rounds to the nearest integer and clamps into
// [MinTranspose, MaxTranspose]. Non-finite input coerces to 0.
func CoerceTranspose(transpose float64) int {
	if !isFinite(transpose) {
		return 0
	}
	rounded := int(math.Round(transpose))
	if rounded < MinTranspose {
		return MinTranspose
	}
	if rounded > MaxTranspose {
		return MaxTranspose
	}
	return rounded
}

// ClampPitch rounds and clamps a raw pitch value into [MinPitch, MaxPitch].
func ClampPitch(pitch float64) int {
	return clampInt(int(math.Round(pitch)), MinPitch, MaxPitch)
}

// ClampVelocity rounds and clamps a raw velocity value into
// [MinVelocity, MaxVelocity].
func ClampVelocity(velocity float64) int {
	return clampInt(int(math.Round(velocity)), MinVelocity, MaxVelocity)
}

// BeatToSec converts a beat offset to seconds at the given bpm.
func BeatToSec(beat, bpm float64) float64 {
	return beat * secondsPerMinute / CoerceBPM(bpm)
}

// SecToBeat is the inverse of BeatToSec.
func SecToBeat(sec, bpm float64) float64 {
	return sec * CoerceBPM(bpm) / secondsPerMinute
}

// PxPerSecToPxPerBeat converts a pixels-per-second density to pixels-per-beat
// at the given bpm. Non-finite input returns DefaultPxPerBeat.
func PxPerSecToPxPerBeat(pxPerSec, bpm float64) float64 {
	if !isFinite(pxPerSec) {
		return DefaultPxPerBeat
	}
	return pxPerSec * secondsPerMinute / CoerceBPM(bpm)
}

// PxPerBeatToPxPerSec is the dual of PxPerSecToPxPerBeat. Non-finite input
// returns DefaultPxPerSec.
func PxPerBeatToPxPerSec(pxPerBeat, bpm float64) float64 {
	if !isFinite(pxPerBeat) {
		return DefaultPxPerSec
	}
	return pxPerBeat * CoerceBPM(bpm) / secondsPerMinute
}

// NormalizeBeat rounds a beat value to the storage de-noise epsilon
// (1e-6). This is never a musical grid snap.
func NormalizeBeat(beat float64) float64 {
	return math.Round(beat/BeatEpsilon) * BeatEpsilon
}

// RoundSec rounds a seconds value for UI/log display only; never used for
// storage.
func RoundSec(sec float64) float64 {
	return math.Round(sec*1e3) / 1e3
}

// SnapToGridBeat rounds b to the nearest multiple of grid g. When g<=0, b is
// returned unchanged.
func SnapToGridBeat(beat, grid float64) float64 {
	if grid <= 0 {
		return beat
	}
	return math.Round(beat/grid) * grid
}

// SnapIfCloseBeat snaps b to the grid only when the distance to the snapped
// value is strictly less than eps; otherwise b is returned unchanged.
func SnapIfCloseBeat(beat, grid, eps float64) float64 {
	snapped := SnapToGridBeat(beat, grid)
	if math.Abs(beat-snapped) < eps {
		return snapped
	}
	return beat
}

// FreePlayheadBeat computes the unsnapped playhead position (in beats) for a
// playhead set at sec seconds, at the given bpm.
func FreePlayheadBeat(sec, bpm float64) float64 {
	return NormalizeBeat(SecToBeat(sec, bpm))
}

// SnappedPlayheadBeat computes the grid-snapped playhead position (in
// beats) for a playhead set at sec seconds, at the given bpm and grid.
func SnappedPlayheadBeat(sec, bpm, grid float64) float64 {
	return NormalizeBeat(SnapToGridBeat(SecToBeat(sec, bpm), grid))
}

// FreeInstanceStartBeat computes the unsnapped start position (in beats) for
// an instance dragged to sec seconds, at the given bpm.
func FreeInstanceStartBeat(sec, bpm float64) float64 {
	return NormalizeBeat(SecToBeat(sec, bpm))
}

// SnappedInstanceStartBeat computes the grid-snapped start position (in
// beats) for an instance dragged to sec seconds, at the given bpm and grid.
func SnappedInstanceStartBeat(sec, bpm, grid float64) float64 {
	return NormalizeBeat(SnapToGridBeat(SecToBeat(sec, bpm), grid))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
