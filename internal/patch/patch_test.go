package patch

import (
	"strings"
	"testing"

	"github.com/hum2song/engine/internal/engineconfig"
	"github.com/hum2song/engine/internal/idgen"
	"github.com/hum2song/engine/internal/project"
	"github.com/hum2song/engine/internal/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasPrefixIn(codes []string, prefix string) bool {
	for _, c := range codes {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func newTestClip(t *testing.T, noteCount int) (*project.Clip, idgen.Generator) {
	t.Helper()
	gen := idgen.NewSequentialGenerator("id")
	notes := make([]*score.Note, 0, noteCount)
	for i := 0; i < noteCount; i++ {
		notes = append(notes, &score.Note{
			Pitch: 60, Velocity: 100, StartBeat: float64(i), DurationBeat: 1,
		})
	}
	s := &score.ScoreBeat{Tracks: []*score.Track{{Name: "lead", Notes: notes}}}
	clip := project.CreateClipFromScoreBeat("verse", s, nil, nil, gen)
	return clip, gen
}

func defaultTestConfig() *engineconfig.Config {
	return &engineconfig.Config{
		MaxOpsPerPatch:        5000,
		MaxNotesAfterApply:    5000,
		DeleteRatioReject:     0.90,
		DeleteRatioWarn:       0.50,
		NetDeleteRatioReject:  0.90,
		NetDeleteRatioWarn:    0.50,
		MaxNotesPerBeatBucket: 50,
		SpanGrowthMultiplier:  8.0,
		SpanGrowthAddend:      16.0,
		AbsoluteSpanCapBeats:  4096.0,
		TinyDurationThreshold: 0.001,
		TinyDurationMinNotes:  200,
		TinyDurationRatio:     0.70,
		MaxRevisionsPerClip:   40,
	}
}

func TestValidatePatchAddNoteRequiresTrackAndNote(t *testing.T) {
	clip, _ := newTestClip(t, 1)
	p := Patch{Ops: []Op{{Kind: OpAddNote}}}
	res := ValidatePatch(p, clip)
	assert.False(t, res.Ok)
	assert.Contains(t, res.Errors, "op[0]_add_trackId_required")
	assert.Contains(t, res.Errors, "op[0]_add_note_required")
}

func TestValidatePatchAddNoteUnknownTrack(t *testing.T) {
	clip, _ := newTestClip(t, 1)
	p := Patch{Ops: []Op{{
		Kind:    OpAddNote,
		TrackID: "nope",
		Note:    &NoteInput{Pitch: 60, Velocity: 100, StartBeat: 0, DurationBeat: 1},
	}}}
	res := ValidatePatch(p, clip)
	assert.False(t, res.Ok)
	assert.Contains(t, res.Errors, "op[0]_add_track_not_found:nope")
}

func TestValidatePatchAddNoteOutOfRangeFields(t *testing.T) {
	clip, _ := newTestClip(t, 1)
	trackID := clip.Score.Tracks[0].ID
	p := Patch{Ops: []Op{{
		Kind:    OpAddNote,
		TrackID: trackID,
		Note:    &NoteInput{Pitch: 999, Velocity: -1, StartBeat: -5, DurationBeat: 0},
	}}}
	res := ValidatePatch(p, clip)
	require.False(t, res.Ok)
	assert.Contains(t, res.Errors, "op[0]_add_pitch_oob")
	assert.Contains(t, res.Errors, "op[0]_add_velocity_oob")
	assert.Contains(t, res.Errors, "op[0]_add_startBeat_invalid")
	assert.Contains(t, res.Errors, "op[0]_add_durationBeat_invalid")
}

func TestValidatePatchDeleteUnknownNote(t *testing.T) {
	clip, _ := newTestClip(t, 1)
	p := Patch{Ops: []Op{{Kind: OpDeleteNote, NoteID: "missing"}}}
	res := ValidatePatch(p, clip)
	assert.False(t, res.Ok)
	assert.Contains(t, res.Errors, "op[0]_note_not_found:missing")
}

func TestValidatePatchSetNoEffectiveFieldsIsWarningOnly(t *testing.T) {
	clip, _ := newTestClip(t, 1)
	noteID := clip.Score.Tracks[0].Notes[0].ID
	p := Patch{Ops: []Op{{Kind: OpSetNote, NoteID: noteID}}}
	res := ValidatePatch(p, clip)
	assert.True(t, res.Ok)
	assert.Contains(t, res.Warnings, "op[0]_set_no_effective_fields")
}

func TestValidatePatchSetFieldsOutOfRange(t *testing.T) {
	clip, _ := newTestClip(t, 1)
	noteID := clip.Score.Tracks[0].Notes[0].ID
	pitch := 200.0
	p := Patch{Ops: []Op{{Kind: OpSetNote, NoteID: noteID, Set: SetFields{Pitch: &pitch}}}}
	res := ValidatePatch(p, clip)
	assert.False(t, res.Ok)
	assert.Contains(t, res.Errors, "op[0]_set_pitch_oob")
}

// TestApplyThenInvertRoundtrip is spec.md §8 scenario S2 / property 5:
// apply(inversePatch, apply(patch, clip)) reproduces the original score.
func TestApplyThenInvertRoundtrip(t *testing.T) {
	gen := idgen.NewSequentialGenerator("id")
	notes := make([]*score.Note, 8)
	for i := 0; i < 8; i++ {
		notes[i] = &score.Note{
			Pitch: 60 + (i % 5), Velocity: 100, StartBeat: float64(i) * 0.25, DurationBeat: 0.25,
		}
	}
	s := &score.ScoreBeat{Tracks: []*score.Track{{Name: "lead", Notes: notes}}}
	clip := project.CreateClipFromScoreBeat("verse", s, nil, nil, gen)
	trackID := clip.Score.Tracks[0].ID

	originalByIndex := make([]*score.Note, 8)
	for i, n := range clip.Score.Tracks[0].Notes {
		cp := *n
		originalByIndex[i] = &cp
	}
	n2ID := clip.Score.Tracks[0].Notes[2].ID
	n3ID := clip.Score.Tracks[0].Notes[3].ID

	cfg := defaultTestConfig()
	forward := Patch{
		ID:     "p1",
		ClipID: clip.ID,
		Ops: []Op{
			{Kind: OpMoveNote, NoteID: n2ID, DeltaBeat: ptrFloat(0.5)},
			{Kind: OpSetNote, NoteID: n3ID, Set: SetFields{Pitch: ptrFloat(72), Velocity: ptrFloat(90)}},
			{Kind: OpAddNote, TrackID: trackID, Note: &NoteInput{Pitch: 67, Velocity: 110, StartBeat: 0.125, DurationBeat: 0.125}},
		},
	}

	res := ApplyPatchToClip(clip, forward, cfg, gen)
	require.True(t, res.Ok, "%v", res.Errors)
	require.NotNil(t, res.InversePatch)
	newNoteID := res.AppliedPatch.Ops[2].NoteID

	back := ApplyPatchToClip(res.Clip, *res.InversePatch, cfg, gen)
	require.True(t, back.Ok, "%v", back.Errors)

	assert.Equal(t, 8, back.Clip.Meta.Notes)
	byID := map[string]*score.Note{}
	for _, n := range back.Clip.Score.Tracks[0].Notes {
		byID[n.ID] = n
	}
	assert.NotContains(t, byID, newNoteID)
	for i, orig := range originalByIndex {
		got, ok := byID[orig.ID]
		require.True(t, ok, "note %d (%s) missing after roundtrip", i, orig.ID)
		assert.Equal(t, orig.Pitch, got.Pitch)
		assert.Equal(t, orig.Velocity, got.Velocity)
		assert.InDelta(t, orig.StartBeat, got.StartBeat, 1e-6)
		assert.InDelta(t, orig.DurationBeat, got.DurationBeat, 1e-6)
	}
}

// TestApplyRejectsCatastrophicDelete is spec.md §8 scenario S3 / property 6:
// a clip of 40 notes, 38 deletes (ratio 0.95), must reject with an error
// string starting "semantic_delete_ratio:".
func TestApplyRejectsCatastrophicDelete(t *testing.T) {
	clip, gen := newTestClip(t, 40)
	cfg := defaultTestConfig()

	ops := make([]Op, 0, 38)
	for i := 0; i < 38; i++ {
		ops = append(ops, Op{Kind: OpDeleteNote, NoteID: clip.Score.Tracks[0].Notes[i].ID})
	}
	patch := Patch{ID: "p2", ClipID: clip.ID, Ops: ops}

	res := ApplyPatchToClip(clip, patch, cfg, gen)
	require.False(t, res.Ok)
	assert.True(t, hasPrefixIn(res.Errors, "semantic_delete_ratio:"), "%v", res.Errors)
	// original clip must be untouched
	assert.Equal(t, 40, clip.Meta.Notes)
}

func TestApplyAllowUnsafeDowngradesRejectionToWarning(t *testing.T) {
	clip, gen := newTestClip(t, 40)
	cfg := defaultTestConfig()

	ops := make([]Op, 0, 38)
	for i := 0; i < 38; i++ {
		ops = append(ops, Op{Kind: OpDeleteNote, NoteID: clip.Score.Tracks[0].Notes[i].ID})
	}
	patch := Patch{ID: "p3", ClipID: clip.ID, Meta: Meta{AllowUnsafe: true}, Ops: ops}

	res := ApplyPatchToClip(clip, patch, cfg, gen)
	require.True(t, res.Ok, "%v", res.Errors)
	assert.True(t, hasPrefixIn(res.Warnings, "semantic_delete_ratio:"), "%v", res.Warnings)
	assert.Equal(t, 2, res.Clip.Meta.Notes)
}

func TestApplyInvalidPatchLeavesClipUntouched(t *testing.T) {
	clip, gen := newTestClip(t, 1)
	cfg := defaultTestConfig()
	before := clip.Meta.Notes

	res := ApplyPatchToClip(clip, Patch{Ops: []Op{{Kind: OpDeleteNote, NoteID: "missing"}}}, cfg, gen)
	assert.False(t, res.Ok)
	assert.Nil(t, res.Clip)
	assert.Equal(t, before, clip.Meta.Notes)
}

func TestSummarizeAppliedPatch(t *testing.T) {
	clip, gen := newTestClip(t, 2)
	trackID := clip.Score.Tracks[0].ID
	cfg := defaultTestConfig()

	patch := Patch{Ops: []Op{
		{Kind: OpAddNote, TrackID: trackID, Note: &NoteInput{Pitch: 64, Velocity: 90, StartBeat: 5, DurationBeat: 1}},
		{Kind: OpDeleteNote, NoteID: clip.Score.Tracks[0].Notes[0].ID},
	}}
	res := ApplyPatchToClip(clip, patch, cfg, gen)
	require.True(t, res.Ok, "%v", res.Errors)

	summary := SummarizeAppliedPatch(res.AppliedPatch, SummarizeOptions{})
	assert.Equal(t, 2, summary.Ops)
	assert.Equal(t, 1, summary.ByOp[OpAddNote])
	assert.Equal(t, 1, summary.ByOp[OpDeleteNote])
	assert.Equal(t, ClampCounts{}, summary.Clamp)
	assert.Len(t, summary.Examples, 2)
}

func TestSummarizeAppliedPatchCountsClampPerFieldOnRequestedOutOfRange(t *testing.T) {
	clip, gen := newTestClip(t, 1)
	trackID := clip.Score.Tracks[0].ID
	cfg := defaultTestConfig()

	patch := Patch{Ops: []Op{
		// velocity 127 is a legal in-range request, must NOT count as clamped.
		{Kind: OpSetNote, NoteID: clip.Score.Tracks[0].Notes[0].ID, Set: SetFields{Velocity: ptrFloat(127)}},
	}}
	res := ApplyPatchToClip(clip, patch, cfg, gen)
	require.True(t, res.Ok, "%v", res.Errors)

	// ValidatePatch rejects out-of-range requests before any op runs, so the
	// applied ops carrying out-of-range requested values are built directly.
	ops := []AppliedOp{
		// pitch/velocity both requested out of range: should count.
		{Kind: OpAddNote, TrackID: trackID, NoteID: "clamped-pv",
			After:     &NoteSnapshot{ID: "clamped-pv", Pitch: 127, Velocity: 1, StartBeat: 0, DurationBeat: 0.25},
			Requested: RequestedValues{Pitch: ptrFloat(200), Velocity: ptrFloat(-5), StartBeat: ptrFloat(0), DurationBeat: ptrFloat(0.25)}},
	}
	ops = append(ops, res.AppliedPatch.Ops...)
	ops = append(ops, AppliedOp{
		// requested duration <= 0: should count.
		Kind: OpAddNote, TrackID: trackID, NoteID: "clamped-dur",
		After:     &NoteSnapshot{ID: "clamped-dur", Pitch: 60, Velocity: 100, StartBeat: 1, DurationBeat: 1e-6},
		Requested: RequestedValues{Pitch: ptrFloat(60), Velocity: ptrFloat(100), StartBeat: ptrFloat(1), DurationBeat: ptrFloat(0)},
	})

	summary := SummarizeAppliedPatch(&AppliedPatch{Ops: ops}, SummarizeOptions{})
	assert.Equal(t, 1, summary.Clamp.Pitch)
	assert.Equal(t, 1, summary.Clamp.Velocity)
	assert.Equal(t, 0, summary.Clamp.StartBeat)
	assert.Equal(t, 1, summary.Clamp.DurationBeat)
}

func TestSummarizeAppliedPatchRespectsMaxExamples(t *testing.T) {
	clip, gen := newTestClip(t, 5)
	cfg := defaultTestConfig()

	ops := make([]Op, 0, 5)
	for i := 0; i < 5; i++ {
		ops = append(ops, Op{Kind: OpSetNote, NoteID: clip.Score.Tracks[0].Notes[i].ID, Set: SetFields{Velocity: ptrFloat(80)}})
	}
	res := ApplyPatchToClip(clip, Patch{Ops: ops}, cfg, gen)
	require.True(t, res.Ok, "%v", res.Errors)

	assert.Len(t, SummarizeAppliedPatch(res.AppliedPatch, SummarizeOptions{}).Examples, 5)
	assert.Len(t, SummarizeAppliedPatch(res.AppliedPatch, SummarizeOptions{MaxExamples: 2}).Examples, 2)
}

func TestUnwrapFencedJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, UnwrapFencedJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, UnwrapFencedJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, UnwrapFencedJSON(`{"a":1}`))
}

func ptrFloat(f float64) *float64 { return &f }
