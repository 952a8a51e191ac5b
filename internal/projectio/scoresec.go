package projectio

import (
	"github.com/hum2song/engine/internal/idgen"
	"github.com/hum2song/engine/internal/numerics"
	"github.com/hum2song/engine/internal/project"
	"github.com/hum2song/engine/internal/score"
)

// NoteSec is a seconds-domain note, the wire shape backend score v1 uses
// (spec.md §6).
type NoteSec struct {
	ID       string  `json:"id"`
	Pitch    int     `json:"pitch"`
	Velocity int     `json:"velocity"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// TrackSec is a seconds-domain track.
type TrackSec struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Program *int       `json:"program,omitempty"`
	Channel *int       `json:"channel,omitempty"`
	Notes   []*NoteSec `json:"notes"`
}

// ScoreSec is the seconds-domain score interchange format (spec.md §6,
// "Backend score v1"): `{tempo_bpm,time_signature,tracks:[{notes:[...]}]}`.
type ScoreSec struct {
	TempoBPM      *float64    `json:"tempo_bpm"`
	TimeSignature *string     `json:"time_signature"`
	Tracks        []*TrackSec `json:"tracks"`
}

// ScoreSecToBeat converts a seconds-domain score to the beat domain at bpm
// (spec.md §6 `scoreSecToBeat`). Ids are assigned for any note/track
// missing one; pitch/velocity/beat values are coerced exactly as
// EnsureScoreBeatIDs does for any other freshly built ScoreBeat.
func ScoreSecToBeat(s *ScoreSec, bpm float64, gen idgen.Generator) *score.ScoreBeat {
	if gen == nil {
		gen = idgen.Default
	}
	if s == nil {
		return &score.ScoreBeat{Version: score.ScoreBeatVersion}
	}

	out := &score.ScoreBeat{
		Version:       score.ScoreBeatVersion,
		TempoBPM:      s.TempoBPM,
		TimeSignature: s.TimeSignature,
	}
	out.Tracks = make([]*score.Track, len(s.Tracks))
	for i, tr := range s.Tracks {
		beatTrack := &score.Track{ID: tr.ID, Name: tr.Name, Program: tr.Program, Channel: tr.Channel}
		beatTrack.Notes = make([]*score.Note, len(tr.Notes))
		for j, n := range tr.Notes {
			beatTrack.Notes[j] = &score.Note{
				ID:           n.ID,
				Pitch:        n.Pitch,
				Velocity:     n.Velocity,
				StartBeat:    numerics.SecToBeat(n.Start, bpm),
				DurationBeat: numerics.SecToBeat(n.Duration, bpm),
			}
		}
		out.Tracks[i] = beatTrack
	}
	score.EnsureScoreBeatIDs(out, gen)
	return out
}

// ScoreBeatToSec is the dual of ScoreSecToBeat (spec.md §6 `scoreBeatToSec`,
// used by backend/export consumers, not the core orchestration). Ids and
// pitch/velocity pass through unchanged; only startBeat/durationBeat are
// projected to seconds.
func ScoreBeatToSec(s *score.ScoreBeat, bpm float64) *ScoreSec {
	if s == nil {
		return &ScoreSec{}
	}
	out := &ScoreSec{TempoBPM: s.TempoBPM, TimeSignature: s.TimeSignature}
	out.Tracks = make([]*TrackSec, len(s.Tracks))
	for i, tr := range s.Tracks {
		secTrack := &TrackSec{ID: tr.ID, Name: tr.Name, Program: tr.Program, Channel: tr.Channel}
		secTrack.Notes = make([]*NoteSec, len(tr.Notes))
		for j, n := range tr.Notes {
			secTrack.Notes[j] = &NoteSec{
				ID:       n.ID,
				Pitch:    n.Pitch,
				Velocity: n.Velocity,
				Start:    numerics.BeatToSec(n.StartBeat, bpm),
				Duration: numerics.BeatToSec(n.DurationBeat, bpm),
			}
		}
		out.Tracks[i] = secTrack
	}
	return out
}

// CreateClipFromScoreSec is the migration-time convenience constructor
// (spec.md §9 Open Questions): a seconds-domain score arriving from an
// external source is converted to beats at bpm, then handed to
// project.CreateClipFromScoreBeat, the one primary clip constructor. It
// exists only here, never in internal/project, since every in-process path
// after load is beat-domain already.
func CreateClipFromScoreSec(name string, s *ScoreSec, bpm float64, sourceTempoBPM *float64, agent *string, gen idgen.Generator) *project.Clip {
	beatScore := ScoreSecToBeat(s, bpm, gen)
	return project.CreateClipFromScoreBeat(name, beatScore, sourceTempoBPM, agent, gen)
}
