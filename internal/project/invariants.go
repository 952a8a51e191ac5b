package project

import (
	"fmt"
	"sort"

	"github.com/hum2song/engine/internal/idgen"
)

// InvariantCheck is the result of CheckProjectV2Invariants: Ok is true iff
// Errors is empty.
type InvariantCheck struct {
	Ok     bool
	Errors []string
}

// CheckProjectV2Invariants enumerates every violation of spec.md §3's
// project invariants. It never mutates p.
func CheckProjectV2Invariants(p *ProjectDoc) InvariantCheck {
	var errs []string

	if p == nil || p.Version != ProjectVersion || p.Timebase != "beat" {
		errs = append(errs, "not_v2")
		return InvariantCheck{Ok: false, Errors: errs}
	}

	trackIDs := make(map[string]bool, len(p.Tracks))
	for _, t := range p.Tracks {
		if t.ID == "" {
			errs = append(errs, "track.id_missing")
			continue
		}
		trackIDs[t.ID] = true
		if t.Instrument == "" {
			errs = append(errs, fmt.Sprintf("track.instrument_missing:%s", t.ID))
		}
	}

	clipOrderSeen := make(map[string]int, len(p.ClipOrder))
	for _, id := range p.ClipOrder {
		clipOrderSeen[id]++
	}
	for id, count := range clipOrderSeen {
		if count > 1 {
			errs = append(errs, "clipOrder_has_duplicates")
		}
		if _, ok := p.Clips[id]; !ok {
			errs = append(errs, fmt.Sprintf("clipOrder_has_missing_clip:%s", id))
		}
	}
	for id := range p.Clips {
		if clipOrderSeen[id] == 0 {
			errs = append(errs, fmt.Sprintf("clips_key_missing_in_clipOrder:%s", id))
		}
	}

	for clipID, clip := range p.Clips {
		seen := make(map[string]bool, len(clip.Revisions))
		for _, rev := range clip.Revisions {
			if rev.RevisionID == "" {
				errs = append(errs, fmt.Sprintf("clip.revisionId_missing:%s", clipID))
				continue
			}
			if seen[rev.RevisionID] {
				errs = append(errs, fmt.Sprintf("clip.revisions_duplicate_revisionId:%s", clipID))
			}
			seen[rev.RevisionID] = true
		}
		if clip.RevisionID == "" {
			errs = append(errs, fmt.Sprintf("clip.revisionId_missing:%s", clipID))
		}
	}

	for _, inst := range p.Instances {
		if !trackIDs[inst.TrackID] {
			errs = append(errs, fmt.Sprintf("instance.trackId_unknown:%s", inst.ID))
		}
	}

	return InvariantCheck{Ok: len(errs) == 0, Errors: errs}
}

// NormalizeProjectV2 is the invariant-enforcement pass run after every load
// and before every save (spec.md §4.4): rebuilds ClipOrder (deduplicated,
// missing clips appended deterministically by CreatedAt then id), repairs
// track/instance fields, and recomputes clip metas while preserving
// SourceTempoBPM/Agent. gen defaults to idgen.Default when nil.
func NormalizeProjectV2(p *ProjectDoc, gen idgen.Generator) {
	if p == nil {
		return
	}
	if gen == nil {
		gen = idgen.Default
	}

	p.Version = ProjectVersion
	p.Timebase = "beat"

	if len(p.Tracks) == 0 {
		p.Tracks = []*Track{{ID: gen.NewID(), Name: DefaultTrackName, Instrument: DefaultInstrument}}
	}
	for _, t := range p.Tracks {
		if t.ID == "" {
			t.ID = gen.NewID()
		}
		if t.Instrument == "" {
			t.Instrument = DefaultInstrument
		}
		t.GainDB = clampGain(t.GainDB)
	}

	if p.Clips == nil {
		p.Clips = map[string]*Clip{}
	}
	for _, clip := range p.Clips {
		RecomputeClipMetaFromScoreBeat(clip)
		dedupeRevisions(clip)
	}

	p.ClipOrder = rebuildClipOrder(p.Clips, p.ClipOrder)

	defaultTrackID := p.Tracks[0].ID
	trackIDs := make(map[string]bool, len(p.Tracks))
	for _, t := range p.Tracks {
		trackIDs[t.ID] = true
	}
	for _, inst := range p.Instances {
		if !trackIDs[inst.TrackID] {
			inst.TrackID = defaultTrackID
		}
	}

	if p.UI.PxPerBeat <= 0 {
		p.UI.PxPerBeat = 80
	}
	if p.UI.PlayheadBeat < 0 {
		p.UI.PlayheadBeat = 0
	}
}

// rebuildClipOrder deduplicates order (keeping first occurrence) and
// appends any clip missing from it, sorted by CreatedAt then id.
func rebuildClipOrder(clips map[string]*Clip, order []string) []string {
	seen := make(map[string]bool, len(order))
	rebuilt := make([]string, 0, len(clips))
	for _, id := range order {
		if seen[id] {
			continue
		}
		if _, ok := clips[id]; !ok {
			continue
		}
		seen[id] = true
		rebuilt = append(rebuilt, id)
	}

	var missing []string
	for id := range clips {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		ci, cj := clips[missing[i]], clips[missing[j]]
		if !ci.CreatedAt.Equal(cj.CreatedAt) {
			return ci.CreatedAt.Before(cj.CreatedAt)
		}
		return missing[i] < missing[j]
	})

	return append(rebuilt, missing...)
}

func dedupeRevisions(clip *Clip) {
	seen := make(map[string]bool, len(clip.Revisions))
	deduped := make([]*RevisionSnapshot, 0, len(clip.Revisions))
	for _, rev := range clip.Revisions {
		if seen[rev.RevisionID] {
			continue
		}
		seen[rev.RevisionID] = true
		deduped = append(deduped, rev)
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].CreatedAt.Before(deduped[j].CreatedAt)
	})
	clip.Revisions = deduped
}

func clampGain(db float64) float64 {
	if db < GainMinDB {
		return GainMinDB
	}
	if db > GainMaxDB {
		return GainMaxDB
	}
	return db
}
