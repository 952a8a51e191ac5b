package patch

import (
	"fmt"
	"time"

	"github.com/hum2song/engine/internal/engineconfig"
	"github.com/hum2song/engine/internal/idgen"
	"github.com/hum2song/engine/internal/numerics"
	"github.com/hum2song/engine/internal/project"
	"github.com/hum2song/engine/internal/score"
)

// clockNow is the single indirection point for "now", mirroring
// project.clockNow's seam for a future deterministic-clock test double.
var clockNow = time.Now

// ApplyPatchToClip validates, then applies, a Patch to clip (spec.md §4.5).
// Ops execute against a clone; the clone is only swapped in on success, so a
// rejected patch leaves clip completely untouched. gen defaults to
// idgen.Default and cfg to engineconfig.Load() when nil, matching every
// other constructor in this module.
func ApplyPatchToClip(clip *project.Clip, p Patch, cfg *engineconfig.Config, gen idgen.Generator) Result {
	if gen == nil {
		gen = idgen.Default
	}
	if cfg == nil {
		cfg = engineconfig.Load()
	}

	vr := ValidatePatch(p, clip)
	if !vr.Ok {
		return Result{Ok: false, Errors: vr.Errors, Warnings: vr.Warnings}
	}

	beforeStats := score.RecomputeScoreBeatStats(clip.Score)

	working := project.CloneClip(clip)
	score.EnsureScoreBeatIDs(working.Score, gen)
	notesByID := indexNotesByID(working)
	tracksByID := indexTracksByID(working)

	appliedOps := make([]AppliedOp, 0, len(p.Ops))
	added, deleted := 0, 0
	warnings := append([]string{}, vr.Warnings...)

	for i, op := range p.Ops {
		switch op.Kind {
		case OpAddNote:
			track := tracksByID[op.TrackID]
			requested := RequestedValues{
				Pitch:        &op.Note.Pitch,
				Velocity:     &op.Note.Velocity,
				StartBeat:    &op.Note.StartBeat,
				DurationBeat: &op.Note.DurationBeat,
			}
			note := newNoteFromInput(*op.Note, gen)
			track.Notes = append(track.Notes, note)
			notesByID[note.ID] = noteLocation{track: track, index: len(track.Notes) - 1}
			added++
			appliedOps = append(appliedOps, AppliedOp{
				Kind:      OpAddNote,
				TrackID:   track.ID,
				NoteID:    note.ID,
				After:     snapshotNote(note),
				Requested: requested,
			})

		case OpDeleteNote:
			loc, ok := notesByID[op.NoteID]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("op[%d]_note_already_gone:%s", i, op.NoteID))
				continue
			}
			beforeSnap := snapshotNote(loc.track.Notes[loc.index])
			loc.track.Notes = append(loc.track.Notes[:loc.index], loc.track.Notes[loc.index+1:]...)
			reindexTrack(loc.track, notesByID)
			delete(notesByID, op.NoteID)
			deleted++
			appliedOps = append(appliedOps, AppliedOp{
				Kind:    OpDeleteNote,
				TrackID: loc.track.ID,
				NoteID:  op.NoteID,
				Before:  beforeSnap,
			})

		case OpMoveNote:
			loc, ok := notesByID[op.NoteID]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("op[%d]_note_already_gone:%s", i, op.NoteID))
				continue
			}
			n := loc.track.Notes[loc.index]
			beforeSnap := snapshotNote(n)
			requestedStart := beforeSnap.StartBeat + *op.DeltaBeat
			n.StartBeat = numerics.NormalizeBeat(n.StartBeat + *op.DeltaBeat)
			if n.StartBeat < 0 {
				n.StartBeat = 0
			}
			delta := *op.DeltaBeat
			appliedOps = append(appliedOps, AppliedOp{
				Kind:      OpMoveNote,
				TrackID:   loc.track.ID,
				NoteID:    op.NoteID,
				Before:    beforeSnap,
				After:     snapshotNote(n),
				DeltaBeat: &delta,
				Requested: RequestedValues{StartBeat: &requestedStart},
			})

		case OpSetNote:
			loc, ok := notesByID[op.NoteID]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("op[%d]_note_already_gone:%s", i, op.NoteID))
				continue
			}
			n := loc.track.Notes[loc.index]
			beforeSnap := snapshotNote(n)
			applySetFields(n, op.Set)
			appliedOps = append(appliedOps, AppliedOp{
				Kind:    OpSetNote,
				TrackID: loc.track.ID,
				NoteID:  op.NoteID,
				Before:  beforeSnap,
				After:   snapshotNote(n),
				Requested: RequestedValues{
					Pitch:        op.Set.Pitch,
					Velocity:     op.Set.Velocity,
					StartBeat:    op.Set.StartBeat,
					DurationBeat: op.Set.DurationBeat,
				},
			})
		}
	}

	project.RecomputeClipMetaFromScoreBeat(working)
	after := score.RecomputeScoreBeatStats(working.Score)

	gateErrs, gateWarns := runSanityGate(sanityInput{
		opCount:           len(p.Ops),
		notesBefore:       beforeStats.Count,
		notesAfter:        after.Count,
		added:             added,
		deleted:           deleted,
		spanBefore:        beforeStats.SpanBeat,
		spanAfter:         after.SpanBeat,
		bucketCounts:      beatBucketCounts(working.Score),
		tinyDurationCount: tinyDurationCount(working.Score, cfg.TinyDurationThreshold),
	}, cfg, p.Meta.AllowUnsafe)

	warnings = append(warnings, gateWarns...)
	if len(gateErrs) > 0 {
		return Result{Ok: false, Errors: gateErrs, Warnings: warnings}
	}

	appliedPatch := &AppliedPatch{Version: p.Version, ID: p.ID, ClipID: p.ClipID, Ops: appliedOps}
	working.UpdatedAt = clockNow()

	return Result{
		Ok:           true,
		Clip:         working,
		AppliedPatch: appliedPatch,
		InversePatch: InvertAppliedPatch(appliedPatch),
		Warnings:     warnings,
	}
}

func newNoteFromInput(in NoteInput, gen idgen.Generator) *score.Note {
	id := ""
	if in.ID != nil {
		id = *in.ID
	}
	if id == "" {
		id = gen.NewID()
	}
	n := &score.Note{
		ID:           id,
		Pitch:        numerics.ClampPitch(in.Pitch),
		Velocity:     numerics.ClampVelocity(in.Velocity),
		StartBeat:    numerics.NormalizeBeat(in.StartBeat),
		DurationBeat: numerics.NormalizeBeat(in.DurationBeat),
	}
	if n.StartBeat < 0 {
		n.StartBeat = 0
	}
	if n.DurationBeat <= 0 {
		n.DurationBeat = numerics.BeatEpsilon
	}
	return n
}

func applySetFields(n *score.Note, f SetFields) {
	if f.Pitch != nil {
		n.Pitch = numerics.ClampPitch(*f.Pitch)
	}
	if f.Velocity != nil {
		n.Velocity = numerics.ClampVelocity(*f.Velocity)
	}
	if f.StartBeat != nil {
		v := numerics.NormalizeBeat(*f.StartBeat)
		if v < 0 {
			v = 0
		}
		n.StartBeat = v
	}
	if f.DurationBeat != nil {
		v := numerics.NormalizeBeat(*f.DurationBeat)
		if v <= 0 {
			v = numerics.BeatEpsilon
		}
		n.DurationBeat = v
	}
}

func snapshotNote(n *score.Note) *NoteSnapshot {
	return &NoteSnapshot{
		ID:           n.ID,
		Pitch:        n.Pitch,
		Velocity:     n.Velocity,
		StartBeat:    n.StartBeat,
		DurationBeat: n.DurationBeat,
	}
}

// reindexTrack refreshes notesByID's index entries for tr after a splice,
// since every note at or after the removal point shifted down by one.
func reindexTrack(tr *score.Track, notesByID map[string]noteLocation) {
	for i, n := range tr.Notes {
		notesByID[n.ID] = noteLocation{track: tr, index: i}
	}
}

func beatBucketCounts(s *score.ScoreBeat) map[int]int {
	counts := map[int]int{}
	if s == nil {
		return counts
	}
	for _, tr := range s.Tracks {
		for _, n := range tr.Notes {
			counts[int(n.StartBeat)]++
		}
	}
	return counts
}

func tinyDurationCount(s *score.ScoreBeat, threshold float64) int {
	count := 0
	if s == nil {
		return count
	}
	for _, tr := range s.Tracks {
		for _, n := range tr.Notes {
			if n.DurationBeat < threshold {
				count++
			}
		}
	}
	return count
}
