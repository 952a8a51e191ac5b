package patch

import (
	"fmt"
	"math"

	"github.com/hum2song/engine/internal/numerics"
	"github.com/hum2song/engine/internal/project"
	"github.com/hum2song/engine/internal/score"
)

// ValidatePatch performs structural and numeric legality checks (spec.md
// §4.5): required keys per op, numeric ranges, and (for deleteNote/
// moveNote/setNote) that the target note exists in clip's score. A setNote
// with no effective fields is a warning, not an error.
func ValidatePatch(p Patch, clip *project.Clip) ValidateResult {
	var errs, warns []string

	notesByID := indexNotesByID(clip)
	tracksByID := indexTracksByID(clip)

	for i, op := range p.Ops {
		switch op.Kind {
		case OpAddNote:
			if op.TrackID == "" {
				errs = append(errs, fmt.Sprintf("op[%d]_add_trackId_required", i))
			} else if _, ok := tracksByID[op.TrackID]; !ok {
				errs = append(errs, fmt.Sprintf("op[%d]_add_track_not_found:%s", i, op.TrackID))
			}
			if op.Note == nil {
				errs = append(errs, fmt.Sprintf("op[%d]_add_note_required", i))
				continue
			}
			validateNoteInput(i, "add", *op.Note, &errs)

		case OpDeleteNote:
			if op.NoteID == "" {
				errs = append(errs, fmt.Sprintf("op[%d]_delete_noteId_required", i))
				continue
			}
			if _, ok := notesByID[op.NoteID]; !ok {
				errs = append(errs, fmt.Sprintf("op[%d]_note_not_found:%s", i, op.NoteID))
			}

		case OpMoveNote:
			if op.NoteID == "" {
				errs = append(errs, fmt.Sprintf("op[%d]_move_noteId_required", i))
				continue
			}
			if op.DeltaBeat == nil || !isFinite(*op.DeltaBeat) {
				errs = append(errs, fmt.Sprintf("op[%d]_move_deltaBeat_invalid", i))
			}
			if _, ok := notesByID[op.NoteID]; !ok {
				errs = append(errs, fmt.Sprintf("op[%d]_note_not_found:%s", i, op.NoteID))
			}

		case OpSetNote:
			if op.NoteID == "" {
				errs = append(errs, fmt.Sprintf("op[%d]_set_noteId_required", i))
				continue
			}
			if _, ok := notesByID[op.NoteID]; !ok {
				errs = append(errs, fmt.Sprintf("op[%d]_note_not_found:%s", i, op.NoteID))
				continue
			}
			if !op.Set.AnySet() {
				warns = append(warns, fmt.Sprintf("op[%d]_set_no_effective_fields", i))
				continue
			}
			validateSetFields(i, op.Set, &errs)

		default:
			errs = append(errs, fmt.Sprintf("op[%d]_missing_op", i))
		}
	}

	return ValidateResult{Ok: len(errs) == 0, Errors: errs, Warnings: warns}
}

func validateNoteInput(i int, verb string, n NoteInput, errs *[]string) {
	if !isFinite(n.Pitch) || n.Pitch < numerics.MinPitch || n.Pitch > numerics.MaxPitch {
		*errs = append(*errs, fmt.Sprintf("op[%d]_%s_pitch_oob", i, verb))
	}
	if !isFinite(n.Velocity) || n.Velocity < numerics.MinVelocity || n.Velocity > numerics.MaxVelocity {
		*errs = append(*errs, fmt.Sprintf("op[%d]_%s_velocity_oob", i, verb))
	}
	if !isFinite(n.StartBeat) || n.StartBeat < 0 {
		*errs = append(*errs, fmt.Sprintf("op[%d]_%s_startBeat_invalid", i, verb))
	}
	if !isFinite(n.DurationBeat) || n.DurationBeat <= 0 {
		*errs = append(*errs, fmt.Sprintf("op[%d]_%s_durationBeat_invalid", i, verb))
	}
}

func validateSetFields(i int, f SetFields, errs *[]string) {
	if f.Pitch != nil && (!isFinite(*f.Pitch) || *f.Pitch < numerics.MinPitch || *f.Pitch > numerics.MaxPitch) {
		*errs = append(*errs, fmt.Sprintf("op[%d]_set_pitch_oob", i))
	}
	if f.Velocity != nil && (!isFinite(*f.Velocity) || *f.Velocity < numerics.MinVelocity || *f.Velocity > numerics.MaxVelocity) {
		*errs = append(*errs, fmt.Sprintf("op[%d]_set_velocity_oob", i))
	}
	if f.StartBeat != nil && (!isFinite(*f.StartBeat) || *f.StartBeat < 0) {
		*errs = append(*errs, fmt.Sprintf("op[%d]_set_startBeat_invalid", i))
	}
	if f.DurationBeat != nil && (!isFinite(*f.DurationBeat) || *f.DurationBeat <= 0) {
		*errs = append(*errs, fmt.Sprintf("op[%d]_set_durationBeat_invalid", i))
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// noteLocation is where a note was found: which track, and its index
// within that track's Notes slice.
type noteLocation struct {
	track *score.Track
	index int
}

func indexNotesByID(clip *project.Clip) map[string]noteLocation {
	index := map[string]noteLocation{}
	if clip == nil || clip.Score == nil {
		return index
	}
	for _, tr := range clip.Score.Tracks {
		for i, n := range tr.Notes {
			index[n.ID] = noteLocation{track: tr, index: i}
		}
	}
	return index
}

func indexTracksByID(clip *project.Clip) map[string]*score.Track {
	index := map[string]*score.Track{}
	if clip == nil || clip.Score == nil {
		return index
	}
	for _, tr := range clip.Score.Tracks {
		index[tr.ID] = tr
	}
	return index
}
