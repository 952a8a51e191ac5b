package projectio

import (
	"github.com/hum2song/engine/internal/idgen"
	"github.com/hum2song/engine/internal/numerics"
	"github.com/hum2song/engine/internal/project"
	"github.com/tidwall/gjson"
)

// v1 raw-shape field names, kept local to this file since they only ever
// appear as gjson paths, never as a typed DTO (spec.md §4.4's v1 documents
// are too loosely shaped for a strict struct to round-trip safely).
const (
	v1PathBPM          = "bpm"
	v1PathTracks       = "tracks"
	v1PathClips        = "clips"
	v1PathInstances    = "instances"
	v1PathUIPxPerSec   = "ui.pxPerSec"
	v1PathUIPlayhead   = "ui.playheadSec"
)

// MigrateProjectV1ToV2 implements spec.md §4.4's v1→v2 migration: bpm
// coercion, track passthrough with instrument defaulting, per-clip score
// seconds→beats conversion (preserving sourceTempoBpm/meta.agent), and
// per-instance trackIndex→trackId / startSec→startBeat / transpose
// derivation. raw must already be JSON bytes; callers route string/any input
// through toJSONBytes first.
func MigrateProjectV1ToV2(raw []byte, gen idgen.Generator) (*project.ProjectDoc, []string) {
	if gen == nil {
		gen = idgen.Default
	}
	var warnings []string

	bpm := numerics.CoerceBPM(gjson.GetBytes(raw, v1PathBPM).Float())

	p := project.NewProjectDoc(bpm, gen)
	p.Tracks = nil

	tracksResult := gjson.GetBytes(raw, v1PathTracks)
	if tracksResult.IsArray() {
		for _, t := range tracksResult.Array() {
			id := t.Get("id").String()
			if id == "" {
				id = gen.NewID()
			}
			name := t.Get("name").String()
			if name == "" {
				name = project.DefaultTrackName
			}
			instrument := t.Get("instrument").String()
			if instrument == "" {
				instrument = project.DefaultInstrument
			}
			p.Tracks = append(p.Tracks, &project.Track{
				ID:         id,
				Name:       name,
				Instrument: instrument,
				GainDB:     t.Get("gainDb").Float(),
				Muted:      t.Get("muted").Bool(),
			})
		}
	}
	if len(p.Tracks) == 0 {
		p.Tracks = []*project.Track{{ID: gen.NewID(), Name: project.DefaultTrackName, Instrument: project.DefaultInstrument}}
		warnings = append(warnings, "v1_tracks_missing_default_synthesized")
	}

	trackIndexToID := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		trackIndexToID[i] = t.ID
	}

	clipsResult := gjson.GetBytes(raw, v1PathClips)
	clipsResult.ForEach(func(key, val gjson.Result) bool {
		clipID := val.Get("id").String()
		if clipID == "" {
			clipID = key.String()
		}
		name := val.Get("name").String()

		var secScore *ScoreSec
		if scoreRaw := val.Get("score").Raw; scoreRaw != "" {
			secScore = parseScoreSec(val.Get("score"))
		}
		sourceTempo := secScore.tempoOrNil()
		clipBeatScore := ScoreSecToBeat(secScore, bpm, gen)

		var agent *string
		if a := val.Get("meta.agent"); a.Exists() {
			s := a.String()
			agent = &s
		}

		clip := project.CreateClipFromScoreBeat(name, clipBeatScore, sourceTempo, agent, gen)
		clip.ID = clipID
		p.Clips[clip.ID] = clip
		p.ClipOrder = append(p.ClipOrder, clip.ID)
		return true
	})
	for _, inst := range gjson.GetBytes(raw, v1PathInstances).Array() {
		id := inst.Get("id").String()
		if id == "" {
			id = gen.NewID()
		}
		trackID := defaultTrackIDFor(inst, trackIndexToID, p.Tracks[0].ID)
		startBeat := numerics.NormalizeBeat(numerics.SecToBeat(inst.Get("startSec").Float(), bpm))
		transpose := numerics.CoerceTranspose(inst.Get("transpose").Float())
		p.Instances = append(p.Instances, &project.Instance{
			ID:        id,
			ClipID:    inst.Get("clipId").String(),
			TrackID:   trackID,
			StartBeat: startBeat,
			Transpose: transpose,
		})
	}

	if px := gjson.GetBytes(raw, v1PathUIPxPerSec); px.Exists() {
		p.UI.PxPerBeat = numerics.PxPerSecToPxPerBeat(px.Float(), bpm)
	}
	if ph := gjson.GetBytes(raw, v1PathUIPlayhead); ph.Exists() {
		p.UI.PlayheadBeat = numerics.NormalizeBeat(numerics.SecToBeat(ph.Float(), bpm))
	}

	project.NormalizeProjectV2(p, gen)
	return p, warnings
}

// defaultTrackIDFor resolves a v1 instance's track reference: trackIndex
// (by position) takes precedence when present, falling back to the first
// track when out of range; else a non-empty trackId passes through
// unchecked (NormalizeProjectV2 later rebinds an unknown one to the first
// track); else the first track.
func defaultTrackIDFor(inst gjson.Result, trackIndexToID []string, fallback string) string {
	if idx := inst.Get("trackIndex"); idx.Exists() {
		i := int(idx.Int())
		if i >= 0 && i < len(trackIndexToID) {
			return trackIndexToID[i]
		}
		return fallback
	}
	if id := inst.Get("trackId"); id.Exists() && id.String() != "" {
		return id.String()
	}
	return fallback
}

// parseScoreSec reads a v1 clip's seconds-domain score out of a gjson
// result into the typed ScoreSec shape MigrateProjectV1ToV2 converts.
func parseScoreSec(v gjson.Result) *ScoreSec {
	out := &ScoreSec{}
	if bpm := v.Get("tempo_bpm"); bpm.Exists() {
		f := bpm.Float()
		out.TempoBPM = &f
	}
	if ts := v.Get("time_signature"); ts.Exists() {
		s := ts.String()
		out.TimeSignature = &s
	}
	for _, tr := range v.Get("tracks").Array() {
		trackSec := &TrackSec{ID: tr.Get("id").String(), Name: tr.Get("name").String()}
		for _, n := range tr.Get("notes").Array() {
			trackSec.Notes = append(trackSec.Notes, &NoteSec{
				ID:       n.Get("id").String(),
				Pitch:    int(n.Get("pitch").Int()),
				Velocity: int(n.Get("velocity").Int()),
				Start:    n.Get("start").Float(),
				Duration: n.Get("duration").Float(),
			})
		}
		out.Tracks = append(out.Tracks, trackSec)
	}
	return out
}

func (s *ScoreSec) tempoOrNil() *float64 {
	if s == nil {
		return nil
	}
	return s.TempoBPM
}
