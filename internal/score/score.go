// Package score holds the beat-domain Note/ScoreBeat/Track types (spec.md
// §3) and the helpers that keep them well-formed: id assignment, numeric
// coercion, deep copying, and stat recomputation (spec.md §4.2). Clip meta
// is derived from these stats in internal/project. Naming follows the teacher's internal/models.NoteEvent
// (already beat-domain: StartBeats/DurationBeats), generalized into a
// richer Note/ScoreBeat pair with ids and track grouping.
package score

import (
	"github.com/hum2song/engine/internal/idgen"
	"github.com/hum2song/engine/internal/numerics"
)

// Note is a single event in a beat-domain score.
type Note struct {
	ID            string  `json:"id"`
	Pitch         int     `json:"pitch"`
	Velocity      int     `json:"velocity"`
	StartBeat     float64 `json:"startBeat"`
	DurationBeat  float64 `json:"durationBeat"`
}

// Track is a named group of notes within a ScoreBeat, optionally carrying
// MIDI program/channel hints.
type Track struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Program *int    `json:"program,omitempty"`
	Channel *int    `json:"channel,omitempty"`
	Notes   []*Note `json:"notes"`
}

// ScoreBeat is the beat-domain representation of a musical phrase: tempo is
// an informational hint only (spec.md §3: "never drives playback timing").
type ScoreBeat struct {
	Version       int      `json:"version"`
	TempoBPM      *float64 `json:"tempo_bpm"`
	TimeSignature *string  `json:"time_signature"`
	Tracks        []*Track `json:"tracks"`
}

// ScoreBeatVersion is the only version this package produces or accepts in
// a normalized ScoreBeat.
const ScoreBeatVersion = 2

// EnsureScoreBeatIDs assigns stable ids to any track/note missing one,
// coerces pitch/velocity/startBeat/durationBeat, and enforces
// durationBeat > 0 by substituting numerics.BeatEpsilon when a caller wrote
// 0 (duration 0 is forbidden at the write layer but must not crash readers).
// gen defaults to idgen.Default when nil.
func EnsureScoreBeatIDs(s *ScoreBeat, gen idgen.Generator) {
	if s == nil {
		return
	}
	if gen == nil {
		gen = idgen.Default
	}
	if s.Version == 0 {
		s.Version = ScoreBeatVersion
	}
	for _, tr := range s.Tracks {
		if tr.ID == "" {
			tr.ID = gen.NewID()
		}
		for _, n := range tr.Notes {
			ensureNoteID(n, gen)
			coerceNote(n)
		}
	}
}

func ensureNoteID(n *Note, gen idgen.Generator) {
	if n.ID == "" {
		n.ID = gen.NewID()
	}
}

// coerceNote applies spec.md §3's write-layer numeric invariants to a
// single note in place: pitch/velocity rounded+clamped, startBeat rounded
// and floored at 0, durationBeat rounded and floored above 0.
func coerceNote(n *Note) {
	n.Pitch = numerics.ClampPitch(float64(n.Pitch))
	n.Velocity = numerics.ClampVelocity(float64(n.Velocity))
	if n.StartBeat < 0 {
		n.StartBeat = 0
	}
	n.StartBeat = numerics.NormalizeBeat(n.StartBeat)
	n.DurationBeat = numerics.NormalizeBeat(n.DurationBeat)
	if n.DurationBeat <= 0 {
		n.DurationBeat = numerics.BeatEpsilon
	}
}

// DeepCopy returns a deep copy of s: no slice or pointer field is shared
// with the original, so mutating the copy never affects s.
func DeepCopy(s *ScoreBeat) *ScoreBeat {
	if s == nil {
		return nil
	}
	cp := &ScoreBeat{Version: s.Version}
	if s.TempoBPM != nil {
		v := *s.TempoBPM
		cp.TempoBPM = &v
	}
	if s.TimeSignature != nil {
		v := *s.TimeSignature
		cp.TimeSignature = &v
	}
	cp.Tracks = make([]*Track, len(s.Tracks))
	for i, tr := range s.Tracks {
		trCopy := &Track{ID: tr.ID, Name: tr.Name}
		if tr.Program != nil {
			v := *tr.Program
			trCopy.Program = &v
		}
		if tr.Channel != nil {
			v := *tr.Channel
			trCopy.Channel = &v
		}
		trCopy.Notes = make([]*Note, len(tr.Notes))
		for j, n := range tr.Notes {
			noteCopy := *n
			trCopy.Notes[j] = &noteCopy
		}
		cp.Tracks[i] = trCopy
	}
	return cp
}

// ScoreBeatStats is the result of recomputing a score's derived statistics.
type ScoreBeatStats struct {
	Count     int
	PitchMin  *int
	PitchMax  *int
	SpanBeat  float64
}

// RecomputeScoreBeatStats returns {count, pitchMin|null, pitchMax|null,
// spanBeat} where spanBeat = max(startBeat+durationBeat) across every note
// in every track. If count is 0, PitchMin/PitchMax are nil.
func RecomputeScoreBeatStats(s *ScoreBeat) ScoreBeatStats {
	stats := ScoreBeatStats{}
	if s == nil {
		return stats
	}

	var min, max int
	haveRange := false

	for _, tr := range s.Tracks {
		for _, n := range tr.Notes {
			stats.Count++
			if !haveRange {
				min, max = n.Pitch, n.Pitch
				haveRange = true
			} else {
				if n.Pitch < min {
					min = n.Pitch
				}
				if n.Pitch > max {
					max = n.Pitch
				}
			}
			end := n.StartBeat + n.DurationBeat
			if end > stats.SpanBeat {
				stats.SpanBeat = end
			}
		}
	}

	if haveRange {
		stats.PitchMin = &min
		stats.PitchMax = &max
	}
	stats.SpanBeat = numerics.NormalizeBeat(stats.SpanBeat)
	return stats
}
