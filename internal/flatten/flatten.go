// Package flatten projects a beat-domain ProjectDoc into per-track,
// seconds-domain event streams ready for playback or offline rendering
// (spec.md §4.6). Grounded on the teacher's response-shaping handlers
// (internal/api/handlers/magda.go: gather referenced domain objects, build
// one flat response struct, never leak internal pointers) — generalized
// from "build an HTTP response" to "build a sorted event stream per track".
package flatten

import (
	"math"
	"sort"

	"github.com/hum2song/engine/internal/numerics"
	"github.com/hum2song/engine/internal/project"
)

// Event is one playable note, fully resolved to the seconds domain.
type Event struct {
	StartSec    float64
	DurationSec float64
	Pitch       int
	Velocity    int
	ClipID      string
	InstanceID  string
	NoteID      string
}

// TrackEvents is one project track's sorted event stream.
type TrackEvents struct {
	TrackID string
	Notes   []Event
}

// Result is flatten's output: the project bpm plus one TrackEvents bucket
// per project track, in project-track order.
type Result struct {
	BPM    float64
	Tracks []TrackEvents
}

// Drop describes one note excluded from the output, reported to the
// optional onDrop callback.
type Drop struct {
	Reason     string
	InstanceID string
	NoteID     string
}

// Options configures Flatten. OnDrop, when non-nil, is invoked once per
// excluded note with the reason it was dropped.
type Options struct {
	OnDrop func(Drop)
}

// Flatten implements spec.md §4.6's algorithm: one bucket per track,
// instances resolved against their clip's score, transpose/clamp applied,
// non-finite or zero-duration notes dropped, each bucket sorted by
// (startSec, pitch, noteId).
func Flatten(p *project.ProjectDoc, opts Options) Result {
	if p == nil {
		return Result{}
	}
	res := Result{BPM: p.BPM}

	buckets := make(map[string]*TrackEvents, len(p.Tracks))
	order := make([]string, 0, len(p.Tracks))
	for _, tr := range p.Tracks {
		buckets[tr.ID] = &TrackEvents{TrackID: tr.ID}
		order = append(order, tr.ID)
	}

	report := func(d Drop) {
		if opts.OnDrop != nil {
			opts.OnDrop(d)
		}
	}

	for _, inst := range p.Instances {
		clip, ok := p.Clips[inst.ClipID]
		if !ok || clip.Score == nil {
			continue
		}
		for _, tr := range clip.Score.Tracks {
			for _, n := range tr.Notes {
				if n.DurationBeat <= 0 {
					report(Drop{Reason: "duration<=0", InstanceID: inst.ID, NoteID: n.ID})
					continue
				}

				absBeat := inst.StartBeat + n.StartBeat
				startSec := numerics.BeatToSec(absBeat, p.BPM)
				durationSec := numerics.BeatToSec(n.DurationBeat, p.BPM)
				if !isFinite(startSec) || !isFinite(durationSec) {
					report(Drop{Reason: "non_finite_time", InstanceID: inst.ID, NoteID: n.ID})
					continue
				}

				pitch := numerics.ClampPitch(float64(n.Pitch + inst.Transpose))
				velocity := numerics.ClampVelocity(float64(n.Velocity))

				event := Event{
					StartSec:    startSec,
					DurationSec: durationSec,
					Pitch:       pitch,
					Velocity:    velocity,
					ClipID:      inst.ClipID,
					InstanceID:  inst.ID,
					NoteID:      n.ID,
				}

				bucket, ok := buckets[inst.TrackID]
				if !ok {
					bucket = &TrackEvents{TrackID: inst.TrackID}
					buckets[inst.TrackID] = bucket
					order = append(order, inst.TrackID)
				}
				bucket.Notes = append(bucket.Notes, event)
			}
		}
	}

	res.Tracks = make([]TrackEvents, 0, len(order))
	for _, id := range order {
		b := buckets[id]
		sortEvents(b.Notes)
		res.Tracks = append(res.Tracks, *b)
	}
	return res
}

// sortEvents sorts in place by (startSec, pitch, noteId) ascending, stable.
func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.StartSec != b.StartSec {
			return a.StartSec < b.StartSec
		}
		if a.Pitch != b.Pitch {
			return a.Pitch < b.Pitch
		}
		return a.NoteID < b.NoteID
	})
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
