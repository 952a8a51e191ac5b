package patch

import "github.com/hum2song/engine/internal/numerics"

// ClampCounts is the per-field breakdown of how many applied ops had a
// requested value fall outside legal range and get coerced back into it
// (spec.md §4.5: "clamp:{pitch,velocity,startBeat,durationBeat}").
type ClampCounts struct {
	Pitch        int
	Velocity     int
	StartBeat    int
	DurationBeat int
}

// Summary is a human/agent-facing digest of an AppliedPatch (spec.md §4.5:
// "summarizeAppliedPatch(x,{maxExamples=6}) -> {ops, byOp, clamp,
// examples}" so a caller can render a one-line "Optimized: ops=N"
// confirmation without walking the full op list).
type Summary struct {
	Ops      int
	ByOp     map[OpKind]int
	Clamp    ClampCounts
	Examples []string
}

// SummarizeOptions configures SummarizeAppliedPatch.
type SummarizeOptions struct {
	// MaxExamples caps len(Summary.Examples). <= 0 means the spec.md §4.5
	// default of 6.
	MaxExamples int
}

const defaultMaxExamples = 6

// SummarizeAppliedPatch reduces ap to a Summary.
func SummarizeAppliedPatch(ap *AppliedPatch, opts SummarizeOptions) Summary {
	maxExamples := opts.MaxExamples
	if maxExamples <= 0 {
		maxExamples = defaultMaxExamples
	}

	s := Summary{ByOp: map[OpKind]int{}}
	if ap == nil {
		return s
	}
	s.Ops = len(ap.Ops)
	for _, op := range ap.Ops {
		s.ByOp[op.Kind]++
		addClampCounts(op, &s.Clamp)
		if len(s.Examples) < maxExamples {
			s.Examples = append(s.Examples, describeOp(op))
		}
	}
	return s
}

// addClampCounts increments c for each field whose op.Requested value sat
// outside legal range while the note's coerced op.After value landed back
// inside it — spec.md §4.5's "before out of legal range and after in
// range" rule, read off the raw requested value rather than off After
// itself (every stored note is always in range, so After alone can never
// distinguish "clamped" from "always was exactly in range").
func addClampCounts(op AppliedOp, c *ClampCounts) {
	if op.After == nil {
		return
	}
	r := op.Requested
	if r.Pitch != nil && (*r.Pitch < numerics.MinPitch || *r.Pitch > numerics.MaxPitch) {
		c.Pitch++
	}
	if r.Velocity != nil && (*r.Velocity < numerics.MinVelocity || *r.Velocity > numerics.MaxVelocity) {
		c.Velocity++
	}
	if r.StartBeat != nil && *r.StartBeat < 0 {
		c.StartBeat++
	}
	if r.DurationBeat != nil && *r.DurationBeat <= 0 {
		c.DurationBeat++
	}
}

func describeOp(op AppliedOp) string {
	switch op.Kind {
	case OpAddNote:
		return "added note " + op.NoteID
	case OpDeleteNote:
		return "deleted note " + op.NoteID
	case OpMoveNote:
		return "moved note " + op.NoteID
	case OpSetNote:
		return "edited note " + op.NoteID
	default:
		return string(op.Kind) + " " + op.NoteID
	}
}
