package projectio

import (
	"testing"

	"github.com/hum2song/engine/internal/idgen"
	"github.com/hum2song/engine/internal/numerics"
	"github.com/hum2song/engine/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrateV1PreservesClipOrderAndConvertsInstance is scenario S1: a v1
// project with clips [{id:'a'},{id:'b'}] and one instance referencing clip
// 'a' at startSec=0.25, trackIndex=0, bpm=120 migrates to clipOrder==['a',
// 'b'] and an instance with trackId==tracks[0].id and
// startBeat==normalizeBeat(0.25*120/60).
func TestMigrateV1PreservesClipOrderAndConvertsInstance(t *testing.T) {
	gen := idgen.NewSequentialGenerator("id")
	raw := []byte(`{
		"bpm": 120,
		"tracks": [{"id": "trk-0", "name": "Track 1", "instrument": "default"}],
		"clips": {
			"a": {"id": "a", "name": "clip a", "score": {"tracks": []}},
			"b": {"id": "b", "name": "clip b", "score": {"tracks": []}}
		},
		"instances": [{"id": "i1", "clipId": "a", "startSec": 0.25, "trackIndex": 0}]
	}`)

	p, warnings := MigrateProjectV1ToV2(raw, gen)
	_ = warnings

	require.Equal(t, []string{"a", "b"}, p.ClipOrder)
	require.Len(t, p.Instances, 1)
	assert.Equal(t, p.Tracks[0].ID, p.Instances[0].TrackID)
	want := numerics.NormalizeBeat(0.25 * 120 / 60)
	assert.InDelta(t, want, p.Instances[0].StartBeat, 1e-9)

	check := project.CheckProjectV2Invariants(p)
	assert.True(t, check.Ok, "%v", check.Errors)
}

// TestLoadProjectDocRepairsArrayClipsAndMissingClipOrder is scenario S6:
// loadProjectDoc is fed a document already in the beat domain but with
// clips as an array and clipOrder absent. The result must pass
// CheckProjectV2Invariants, with clipOrder listing every clip id exactly
// once.
func TestLoadProjectDocRepairsArrayClipsAndMissingClipOrder(t *testing.T) {
	gen := idgen.NewSequentialGenerator("id")
	raw := []byte(`{
		"version": 2,
		"timebase": "beat",
		"bpm": 100,
		"tracks": [{"id": "trk-0", "name": "Track 1", "instrument": "default"}],
		"clips": [
			{"id": "c1", "name": "one", "score": {"tracks": []}},
			{"id": "c2", "name": "two", "score": {"tracks": []}}
		],
		"instances": []
	}`)

	rawChecks := ScanRawInvariants(raw)
	assert.Contains(t, rawChecks, "clips_is_array")
	assert.Contains(t, rawChecks, "clipOrder_missing")

	p, info := LoadProjectDoc(raw, gen)
	require.Equal(t, shapeLegacyV2, info.From)
	require.True(t, info.Changed)

	check := project.CheckProjectV2Invariants(p)
	require.True(t, check.Ok, "%v", check.Errors)

	seen := map[string]int{}
	for _, id := range p.ClipOrder {
		seen[id]++
	}
	assert.Equal(t, 1, seen["c1"])
	assert.Equal(t, 1, seen["c2"])
	assert.Len(t, p.ClipOrder, 2)
}

// TestLoadProjectDocUnparseableYieldsDefaultV2 exercises loadProjectDoc's
// first branch: input that is not a JSON object always yields a fresh
// default v2 project, never an error.
func TestLoadProjectDocUnparseableYieldsDefaultV2(t *testing.T) {
	gen := idgen.NewSequentialGenerator("id")

	p, info := LoadProjectDoc("not json at all {{{", gen)
	assert.Equal(t, shapeUnparseable, info.From)
	assert.True(t, info.Changed)
	check := project.CheckProjectV2Invariants(p)
	assert.True(t, check.Ok, "%v", check.Errors)

	p2, info2 := LoadProjectDoc([]any{1, 2, 3}, gen)
	assert.Equal(t, shapeUnparseable, info2.From)
	check2 := project.CheckProjectV2Invariants(p2)
	assert.True(t, check2.Ok, "%v", check2.Errors)
}

// TestScoreSecToBeatRoundtrip is property 1: for any score and bpm,
// scoreBeatToSec(scoreSecToBeat(s,bpm),bpm) equals s modulo 1e-6 on
// start/duration, with pitch/velocity exact and note order preserved.
func TestScoreSecToBeatRoundtrip(t *testing.T) {
	gen := idgen.NewSequentialGenerator("id")
	bpm := 140.0
	original := &ScoreSec{
		Tracks: []*TrackSec{
			{Name: "lead", Notes: []*NoteSec{
				{ID: "n0", Pitch: 60, Velocity: 100, Start: 0, Duration: 0.5},
				{ID: "n1", Pitch: 64, Velocity: 90, Start: 0.5, Duration: 0.25},
				{ID: "n2", Pitch: 67, Velocity: 110, Start: 0.75, Duration: 1.0},
			}},
		},
	}

	beat := ScoreSecToBeat(original, bpm, gen)
	roundtripped := ScoreBeatToSec(beat, bpm)

	require.Len(t, roundtripped.Tracks, 1)
	require.Len(t, roundtripped.Tracks[0].Notes, 3)
	for i, want := range original.Tracks[0].Notes {
		got := roundtripped.Tracks[0].Notes[i]
		assert.Equal(t, want.Pitch, got.Pitch)
		assert.Equal(t, want.Velocity, got.Velocity)
		assert.InDelta(t, want.Start, got.Start, 1e-6)
		assert.InDelta(t, want.Duration, got.Duration, 1e-6)
	}
}

// TestMigrateV1SynthesizesDefaultTrackWhenMissing is property 2: a v1
// project missing a tracks array still migrates to an invariant-clean v2
// project with one default track.
func TestMigrateV1SynthesizesDefaultTrackWhenMissing(t *testing.T) {
	gen := idgen.NewSequentialGenerator("id")
	raw := []byte(`{"bpm": 90, "clips": {}, "instances": []}`)

	p, warnings := MigrateProjectV1ToV2(raw, gen)
	require.Len(t, p.Tracks, 1)
	assert.Equal(t, project.DefaultInstrument, p.Tracks[0].Instrument)
	assert.Contains(t, warnings, "v1_tracks_missing_default_synthesized")

	check := project.CheckProjectV2Invariants(p)
	assert.True(t, check.Ok, "%v", check.Errors)
}

// TestMigrateV1InstanceFallsBackToDefaultTrackOnUnknownIndex covers the
// trackIndex-out-of-range edge case: migration must never leave an
// instance pointing at a nonexistent track.
func TestMigrateV1InstanceFallsBackToDefaultTrackOnUnknownIndex(t *testing.T) {
	gen := idgen.NewSequentialGenerator("id")
	raw := []byte(`{
		"bpm": 120,
		"tracks": [{"id": "trk-0", "name": "Track 1"}],
		"clips": {},
		"instances": [{"id": "i1", "clipId": "missing", "trackIndex": 7}]
	}`)

	p, _ := MigrateProjectV1ToV2(raw, gen)
	require.Len(t, p.Instances, 1)
	assert.Equal(t, p.Tracks[0].ID, p.Instances[0].TrackID)
}
