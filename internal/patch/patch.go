// Package patch implements the AgentPatch engine: validate, apply, invert,
// and summarize structured edits to a clip's score, gated by a semantic
// sanity check that rejects catastrophic patches (spec.md §4.5, §4.5.1).
//
// Grounded on the teacher's action-translation idiom
// (internal/agents/reaper/daw/dsl_parser*.go: parse into discrete actions,
// validate, translate, return []map[string]any or a structured error) and
// on the orchestrator's "validate then apply, return a typed result"
// shape (internal/agents/core/coordination/orchestrator.go) — generalized
// from a string DSL targeting REAPER actions to a typed JSON op list
// targeting a clip's ScoreBeat, per spec.md §9's "duck-typed patch ops"
// design note: ops are a tagged variant (OpKind plus only the fields that
// kind uses), not an interface{} bag.
package patch

import "github.com/hum2song/engine/internal/project"

// OpKind tags which variant an Op is.
type OpKind string

// The four op kinds spec.md §4.5 defines.
const (
	OpAddNote    OpKind = "addNote"
	OpDeleteNote OpKind = "deleteNote"
	OpMoveNote   OpKind = "moveNote"
	OpSetNote    OpKind = "setNote"
)

// NoteInput is the note payload for an addNote op. ID is optional; a fresh
// id is generated when absent.
type NoteInput struct {
	ID           *string
	Pitch        float64
	Velocity     float64
	StartBeat    float64
	DurationBeat float64
}

// SetFields holds only the fields a setNote op actually specified. A nil
// field means "not specified"; spec.md §9 requires this be encoded
// distinctly from "set to null" — using *float64 here does exactly that
// (no field present -> nil; the zero value is never mistaken for absence).
type SetFields struct {
	Pitch        *float64
	Velocity     *float64
	StartBeat    *float64
	DurationBeat *float64
}

// AnySet reports whether at least one field was specified.
func (f SetFields) AnySet() bool {
	return f.Pitch != nil || f.Velocity != nil || f.StartBeat != nil || f.DurationBeat != nil
}

// Op is one entry in a Patch's Ops list, a tagged variant keyed by Kind;
// only the fields relevant to Kind are populated.
type Op struct {
	Kind      OpKind
	TrackID   string     // addNote
	Note      *NoteInput // addNote
	NoteID    string     // deleteNote, moveNote, setNote
	DeltaBeat *float64   // moveNote
	Set       SetFields  // setNote
}

// Meta carries a patch's optional reason and the allowUnsafe downgrade flag
// (spec.md §4.5.1: allowUnsafe turns sanity-gate rejections into warnings).
type Meta struct {
	Reason      string
	AllowUnsafe bool
}

// Patch is a structured edit to a clip's score (spec.md §4.5).
type Patch struct {
	Version int
	ID      string
	ClipID  string
	Meta    Meta
	Ops     []Op
}

// NoteSnapshot is a coerced before/after note value captured by apply
// (spec.md §4.5: "coerced numeric values, after pitch/velocity clamp and
// beat rounding").
type NoteSnapshot struct {
	ID           string
	Pitch        int
	Velocity     int
	StartBeat    float64
	DurationBeat float64
}

// RequestedValues holds the raw, pre-coercion values a caller asked for on
// one op, wherever that op specifies such a value. A nil field means the op
// didn't request that field at all (addNote/setNote leave unset fields nil;
// deleteNote leaves all four nil). summarize.go's clamp counters compare
// these against legal range to tell "coerced because out of range" apart
// from "coerced because every value gets rounded".
type RequestedValues struct {
	Pitch        *float64
	Velocity     *float64
	StartBeat    *float64
	DurationBeat *float64
}

// AppliedOp is the snapshot-shaped record of one executed op (spec.md §4.5:
// "a parallel tagged variant" carrying Before/After alongside the applied
// op's identity).
type AppliedOp struct {
	Kind      OpKind
	TrackID   string // track holding the note, for every kind
	NoteID    string
	Before    *NoteSnapshot // nil for addNote
	After     *NoteSnapshot // nil for deleteNote
	DeltaBeat *float64      // moveNote only
	Requested RequestedValues
}

// AppliedPatch is the full record of a successful apply, in declared op
// order.
type AppliedPatch struct {
	Version int
	ID      string
	ClipID  string
	Ops     []AppliedOp
}

// Result is the outcome of ApplyPatchToClip.
type Result struct {
	Ok           bool
	Clip         *project.Clip
	AppliedPatch *AppliedPatch
	InversePatch *Patch
	Warnings     []string
	Errors       []string
}

// ValidateResult is the outcome of ValidatePatch.
type ValidateResult struct {
	Ok       bool
	Errors   []string
	Warnings []string
}
