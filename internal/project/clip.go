package project

import (
	"time"

	"github.com/hum2song/engine/internal/idgen"
	"github.com/hum2song/engine/internal/score"
)

// RecomputeClipMetaFromScoreBeat installs the four derived meta fields from
// clip.Score, preserving SourceTempoBPM and Agent across the recompute
// (spec.md §4.2).
func RecomputeClipMetaFromScoreBeat(clip *Clip) {
	stats := score.RecomputeScoreBeatStats(clip.Score)
	sourceTempo := clip.Meta.SourceTempoBPM
	agent := clip.Meta.Agent
	clip.Meta = ClipMeta{
		Notes:          stats.Count,
		PitchMin:       stats.PitchMin,
		PitchMax:       stats.PitchMax,
		SpanBeat:       stats.SpanBeat,
		SourceTempoBPM: sourceTempo,
		Agent:          agent,
	}
}

// CreateClipFromScoreBeat is the primary (beats-domain) clip constructor
// (spec.md §9 Open Questions: the beats-domain variant is primary). It
// assigns ids throughout the score, computes derived meta, and assigns a
// fresh root revision (parentRevisionId=nil).
func CreateClipFromScoreBeat(name string, s *score.ScoreBeat, sourceTempoBPM *float64, agent *string, gen idgen.Generator) *Clip {
	if gen == nil {
		gen = idgen.Default
	}
	score.EnsureScoreBeatIDs(s, gen)

	now := clockNow()
	clip := &Clip{
		ID:        gen.NewID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Score:     s,
		Meta: ClipMeta{
			SourceTempoBPM: sourceTempoBPM,
			Agent:          agent,
		},
		RevisionID:       gen.NewID(),
		ParentRevisionID: nil,
		Revisions:        nil,
	}
	RecomputeClipMetaFromScoreBeat(clip)
	return clip
}

// clockNow is the single indirection point for "now" so that a future
// deterministic-clock test double has one seam to replace; production
// always uses time.Now.
var clockNow = time.Now

// CloneClip deep-copies clip so a caller (the patch engine's apply step) can
// mutate the copy freely and discard it on failure without the original
// ever being touched. Revisions gets a fresh slice whose entries point at
// the same snapshots: history is immutable once captured, so sharing the
// snapshots is safe and avoids deep-copying each one on every apply.
func CloneClip(clip *Clip) *Clip {
	if clip == nil {
		return nil
	}
	cp := *clip
	cp.Score = score.DeepCopy(clip.Score)
	cp.Meta = cloneClipMeta(clip.Meta)
	if clip.ParentRevisionID != nil {
		v := *clip.ParentRevisionID
		cp.ParentRevisionID = &v
	}
	if clip.SourceTaskID != nil {
		v := *clip.SourceTaskID
		cp.SourceTaskID = &v
	}
	if clip.Revisions != nil {
		cp.Revisions = make([]*RevisionSnapshot, len(clip.Revisions))
		copy(cp.Revisions, clip.Revisions)
	}
	cp.ABPair = nil
	return &cp
}

func cloneClipMeta(m ClipMeta) ClipMeta {
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
