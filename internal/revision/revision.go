// Package revision implements the per-clip linear revision chain: swap-to-
// activate semantics, rollback, A/B toggling, and retention eviction
// (spec.md §4.3). Grounded on the teacher's orchestrator pattern
// (internal/agents/core/coordination/orchestrator.go: coordinate a state
// transition, return a typed result struct, never throw) generalized from
// "coordinate agents" to "coordinate a clip's revision history".
package revision

import (
	"sort"
	"time"

	"github.com/hum2song/engine/internal/idgen"
	"github.com/hum2song/engine/internal/project"
	"github.com/hum2song/engine/internal/score"
)

// Result is the outcome of a revision-chain mutation. Ok is false iff Code
// is a non-empty failure code (spec.md §4.3: not_v2, bad_args,
// clip_not_found, revision_not_found, no_parent, no_alt_revision).
type Result struct {
	Ok         bool
	RevisionID string
	Changed    bool
	Code       string
}

func fail(code string) Result { return Result{Ok: false, Code: code} }

// BeginNewClipRevision pushes the current head snapshot into clip.Revisions,
// sets ParentRevisionID to the old RevisionID, generates a fresh
// RevisionID, bumps UpdatedAt, resets the A/B pair, and enforces the
// retention cap. When non-empty, name becomes the new head's Name; the
// pushed snapshot keeps the previous name.
func BeginNewClipRevision(p *project.ProjectDoc, clipID string, name string, maxRevisions int, gen idgen.Generator) Result {
	if p == nil || p.Version != project.ProjectVersion {
		return fail("not_v2")
	}
	if clipID == "" {
		return fail("bad_args")
	}
	clip, ok := p.Clips[clipID]
	if !ok {
		return fail("clip_not_found")
	}
	if gen == nil {
		gen = idgen.Default
	}

	clip.Revisions = append(clip.Revisions, snapshotHead(clip))

	oldRevisionID := clip.RevisionID
	clip.ParentRevisionID = &oldRevisionID
	clip.RevisionID = gen.NewID()
	clip.UpdatedAt = time.Now()
	clip.ABPair = nil
	if name != "" {
		clip.Name = name
	}

	evictExcess(clip, maxRevisions)

	return Result{Ok: true, RevisionID: clip.RevisionID}
}

// SetClipActiveRevision swaps the clip's head with a historical snapshot
// (spec.md §4.3). If revisionID already equals the current head, it is a
// no-op (Changed:false). Both the old head and the activated target are
// preserved in Revisions afterward, so A/B stays stable.
func SetClipActiveRevision(p *project.ProjectDoc, clipID, revisionID string) Result {
	if p == nil || p.Version != project.ProjectVersion {
		return fail("not_v2")
	}
	clip, ok := p.Clips[clipID]
	if !ok {
		return fail("clip_not_found")
	}
	if revisionID == clip.RevisionID {
		return Result{Ok: true, RevisionID: clip.RevisionID, Changed: false}
	}

	idx := indexOfRevision(clip.Revisions, revisionID)
	if idx < 0 {
		return fail("revision_not_found")
	}
	target := clip.Revisions[idx]
	clip.Revisions = append(clip.Revisions[:idx], clip.Revisions[idx+1:]...)

	clip.Revisions = append(clip.Revisions, snapshotHead(clip))

	clip.Score = target.Score
	clip.Meta = target.Meta
	clip.Name = target.Name
	clip.RevisionID = target.RevisionID
	clip.ParentRevisionID = target.ParentRevisionID
	clip.UpdatedAt = time.Now()

	return Result{Ok: true, RevisionID: clip.RevisionID, Changed: true}
}

// RollbackClipRevision activates the clip's ParentRevisionID. Fails with
// no_parent at the chain's root.
func RollbackClipRevision(p *project.ProjectDoc, clipID string) Result {
	if p == nil || p.Version != project.ProjectVersion {
		return fail("not_v2")
	}
	clip, ok := p.Clips[clipID]
	if !ok {
		return fail("clip_not_found")
	}
	if clip.ParentRevisionID == nil {
		return fail("no_parent")
	}
	return SetClipActiveRevision(p, clipID, *clip.ParentRevisionID)
}

// ToggleClipAB maintains the ephemeral (aRevisionId,bRevisionId) pair: when
// uninitialized or the head has diverged from both sides, it initializes
// a:=current, b:=parent (or the newest history entry when there is no
// parent), then toggles between a and b on each call.
func ToggleClipAB(p *project.ProjectDoc, clipID string) Result {
	if p == nil || p.Version != project.ProjectVersion {
		return fail("not_v2")
	}
	clip, ok := p.Clips[clipID]
	if !ok {
		return fail("clip_not_found")
	}

	if clip.ABPair == nil || (clip.RevisionID != clip.ABPair.A && clip.RevisionID != clip.ABPair.B) {
		alt := altRevisionID(clip)
		if alt == "" {
			return fail("no_alt_revision")
		}
		clip.ABPair = &project.ABPair{A: clip.RevisionID, B: alt}
		return SetClipActiveRevision(p, clipID, alt)
	}

	var target string
	if clip.RevisionID == clip.ABPair.A {
		target = clip.ABPair.B
	} else {
		target = clip.ABPair.A
	}
	return SetClipActiveRevision(p, clipID, target)
}

// altRevisionID returns the parent revision id when present, else the
// newest (by CreatedAt) history entry's id, else "" when there is no
// alternate revision at all.
func altRevisionID(clip *project.Clip) string {
	if clip.ParentRevisionID != nil {
		if indexOfRevision(clip.Revisions, *clip.ParentRevisionID) >= 0 {
			return *clip.ParentRevisionID
		}
	}
	if len(clip.Revisions) == 0 {
		return ""
	}
	newest := clip.Revisions[0]
	for _, rev := range clip.Revisions[1:] {
		if rev.CreatedAt.After(newest.CreatedAt) {
			newest = rev
		}
	}
	return newest.RevisionID
}

// ListedRevision is one entry in ListClipRevisions' output.
type ListedRevision struct {
	RevisionID       string
	ParentRevisionID *string
	CreatedAt        time.Time
	Name             string
	Label            string // "Current", "Original", or "Rev"
}

// ListClipRevisions returns head plus history, newest-first, labeled
// Current/Original/Rev (spec.md §4.3).
func ListClipRevisions(clip *project.Clip) []ListedRevision {
	all := make([]ListedRevision, 0, len(clip.Revisions)+1)
	all = append(all, ListedRevision{
		RevisionID:       clip.RevisionID,
		ParentRevisionID: clip.ParentRevisionID,
		CreatedAt:        clip.UpdatedAt,
		Name:             clip.Name,
		Label:            "Current",
	})
	for _, rev := range clip.Revisions {
		label := "Rev"
		if rev.ParentRevisionID == nil {
			label = "Original"
		}
		all = append(all, ListedRevision{
			RevisionID:       rev.RevisionID,
			ParentRevisionID: rev.ParentRevisionID,
			CreatedAt:        rev.CreatedAt,
			Name:             rev.Name,
			Label:            label,
		})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all
}

func snapshotHead(clip *project.Clip) *project.RevisionSnapshot {
	return &project.RevisionSnapshot{
		RevisionID:       clip.RevisionID,
		ParentRevisionID: clip.ParentRevisionID,
		CreatedAt:        clip.UpdatedAt,
		Name:             clip.Name,
		Score:            score.DeepCopy(clip.Score),
		Meta:             deepCopyClipMeta(clip.Meta),
	}
}

// deepCopyClipMeta copies a ClipMeta's pointer fields so a snapshot never
// aliases the live clip's meta.
func deepCopyClipMeta(m project.ClipMeta) project.ClipMeta {
	cp := m
	if m.PitchMin != nil {
		v := *m.PitchMin
		cp.PitchMin = &v
	}
	if m.PitchMax != nil {
		v := *m.PitchMax
		cp.PitchMax = &v
	}
	if m.SourceTempoBPM != nil {
		v := *m.SourceTempoBPM
		cp.SourceTempoBPM = &v
	}
	if m.Agent != nil {
		v := *m.Agent
		cp.Agent = &v
	}
	return cp
}

func indexOfRevision(revisions []*project.RevisionSnapshot, revisionID string) int {
	for i, rev := range revisions {
		if rev.RevisionID == revisionID {
			return i
		}
	}
	return -1
}

// evictExcess caps clip.Revisions at maxRevisions. The root snapshot
// (ParentRevisionID==nil) is pinned when present; otherwise eviction is
// oldest-first. Ties in CreatedAt break by ascending RevisionID (spec.md §9
// Open Questions).
func evictExcess(clip *project.Clip, maxRevisions int) {
	if maxRevisions <= 0 || len(clip.Revisions) <= maxRevisions {
		return
	}

	sort.SliceStable(clip.Revisions, func(i, j int) bool {
		a, b := clip.Revisions[i], clip.Revisions[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.RevisionID < b.RevisionID
	})

	rootIdx := -1
	for i, rev := range clip.Revisions {
		if rev.ParentRevisionID == nil {
			rootIdx = i
			break
		}
	}

	excess := len(clip.Revisions) - maxRevisions
	kept := make([]*project.RevisionSnapshot, 0, maxRevisions)
	evicted := 0
	for i, rev := range clip.Revisions {
		if evicted < excess && i != rootIdx {
			evicted++
			continue
		}
		kept = append(kept, rev)
	}
	clip.Revisions = kept
}
