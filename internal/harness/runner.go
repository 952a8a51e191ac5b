package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hum2song/engine/internal/engineconfig"
	"github.com/hum2song/engine/internal/idgen"
	"github.com/hum2song/engine/internal/patch"
	"github.com/hum2song/engine/internal/project"
	"github.com/hum2song/engine/internal/projectio"
	"github.com/hum2song/engine/internal/score"
)

// FixtureResult is the outcome of running one Fixture.
type FixtureResult struct {
	Name   string
	Ok     bool
	Detail string
}

// RunFixture dispatches f to the load or patch runner. cfg/gen default to
// engineconfig.Load()/idgen.Default when nil, matching every other entry
// point in this module.
func RunFixture(f Fixture, cfg *engineconfig.Config, gen idgen.Generator) FixtureResult {
	if cfg == nil {
		cfg = engineconfig.Load()
	}
	if gen == nil {
		gen = idgen.Default
	}

	switch f.Kind {
	case KindLoad:
		return runLoadFixture(f, gen)
	case KindPatch:
		return runPatchFixture(f, cfg, gen)
	default:
		return FixtureResult{Name: f.Name, Ok: false, Detail: fmt.Sprintf("unknown fixture kind %q", f.Kind)}
	}
}

func runLoadFixture(f Fixture, gen idgen.Generator) FixtureResult {
	doc := f.Doc
	if raw, ok := doc.(string); ok {
		// Fixture authors routinely paste a doc straight out of an agent
		// transcript, fence and all; strip it before handing the string on
		// to the loader's own unparseable/v1/legacy-v2 sniffing.
		doc = patch.UnwrapFencedJSON(raw)
	}
	p, info := projectio.LoadProjectDoc(doc, gen)

	if f.ExpectFrom != "" && info.From != f.ExpectFrom {
		return fail(f.Name, "expected from=%q, got %q", f.ExpectFrom, info.From)
	}

	check := project.CheckProjectV2Invariants(p)
	if check.Ok != f.ExpectInvariantOk {
		return fail(f.Name, "expected invariantOk=%v, got %v (errors: %v)", f.ExpectInvariantOk, check.Ok, check.Errors)
	}

	if f.ExpectClipOrder != nil {
		if !slices.Equal(p.ClipOrder, f.ExpectClipOrder) {
			return fail(f.Name, "expected clipOrder=%v, got %v", f.ExpectClipOrder, p.ClipOrder)
		}
	}

	return FixtureResult{Name: f.Name, Ok: true, Detail: fmt.Sprintf("from=%s warnings=%d", info.From, len(info.Warnings))}
}

func runPatchFixture(f Fixture, cfg *engineconfig.Config, gen idgen.Generator) FixtureResult {
	clip := buildSeedClip(f.ClipNotes, gen)
	p := buildPatchFromFixture(f, clip)

	res := patch.ApplyPatchToClip(clip, p, cfg, gen)

	if res.Ok != f.ExpectApplyOk {
		return fail(f.Name, "expected applyOk=%v, got %v (errors: %v)", f.ExpectApplyOk, res.Ok, res.Errors)
	}

	if f.ExpectErrorPrefix != "" {
		if !anyHasPrefix(res.Errors, f.ExpectErrorPrefix) {
			return fail(f.Name, "expected an error with prefix %q, got %v", f.ExpectErrorPrefix, res.Errors)
		}
	}

	return FixtureResult{Name: f.Name, Ok: true, Detail: fmt.Sprintf("warnings=%d", len(res.Warnings))}
}

// buildSeedClip constructs a single-track clip with n notes at
// startBeat=i*0.25, durationBeat=0.25, pitch=60+(i%12), velocity=100 — the
// same shape spec.md §8's literal scenarios use, parameterized by count so
// one fixture file can describe small or large (catastrophic-edit) cases.
func buildSeedClip(n int, gen idgen.Generator) *project.Clip {
	notes := make([]*score.Note, n)
	for i := 0; i < n; i++ {
		notes[i] = &score.Note{
			Pitch:        60 + i%12,
			Velocity:     100,
			StartBeat:    float64(i) * 0.25,
			DurationBeat: 0.25,
		}
	}
	s := &score.ScoreBeat{Tracks: []*score.Track{{Name: "lead", Notes: notes}}}
	return project.CreateClipFromScoreBeat("fixture-clip", s, nil, nil, gen)
}

func buildPatchFromFixture(f Fixture, clip *project.Clip) patch.Patch {
	ops := make([]patch.Op, 0, len(f.Ops))
	for _, o := range f.Ops {
		op := patch.Op{Kind: patch.OpKind(o.Kind)}
		if o.TrackIndex < len(clip.Score.Tracks) {
			op.TrackID = clip.Score.Tracks[o.TrackIndex].ID
		}
		if o.NoteIndex < len(clip.Score.Tracks[0].Notes) {
			op.NoteID = clip.Score.Tracks[0].Notes[o.NoteIndex].ID
		}
		switch op.Kind {
		case patch.OpAddNote:
			op.Note = &patch.NoteInput{
				Pitch:        derefOr(o.Pitch, 60),
				Velocity:     derefOr(o.Velocity, 100),
				StartBeat:    derefOr(o.StartBeat, 0),
				DurationBeat: derefOr(o.DurationBeat, 0.25),
			}
		case patch.OpMoveNote:
			op.DeltaBeat = o.DeltaBeat
		case patch.OpSetNote:
			op.Set = patch.SetFields{
				Pitch:        o.Pitch,
				Velocity:     o.Velocity,
				StartBeat:    o.StartBeat,
				DurationBeat: o.DurationBeat,
			}
		}
		ops = append(ops, op)
	}
	return patch.Patch{ClipID: clip.ID, Meta: patch.Meta{AllowUnsafe: f.AllowUnsafe}, Ops: ops}
}

func derefOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

func fail(name, format string, args ...any) FixtureResult {
	return FixtureResult{Name: name, Ok: false, Detail: fmt.Sprintf(format, args...)}
}

func anyHasPrefix(vals []string, prefix string) bool {
	for _, v := range vals {
		if strings.HasPrefix(v, prefix) {
			return true
		}
	}
	return false
}

func stringSlicesEqualAsSets(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]int, len(got))
	for _, g := range got {
		seen[g]++
	}
	for _, w := range want {
		if seen[w] == 0 {
			return false
		}
		seen[w]--
	}
	return true
}
