// Package project holds the ProjectDoc v2 document, its Track/Clip/Instance
// types, and the invariant checks that must hold after every public
// mutation (spec.md §3). New domain types grounded on the teacher's plain-
// struct, json-tagged internal/models conventions.
package project

import (
	"time"

	"github.com/hum2song/engine/internal/idgen"
	"github.com/hum2song/engine/internal/numerics"
	"github.com/hum2song/engine/internal/score"
)

// ProjectVersion is the only version this package produces.
const ProjectVersion = 2

// ClipMeta holds the fields derived from a clip's score plus the two
// non-derived fields (SourceTempoBPM, Agent) that must survive recompute.
type ClipMeta struct {
	Notes          int      `json:"notes"`
	PitchMin       *int     `json:"pitchMin"`
	PitchMax       *int     `json:"pitchMax"`
	SpanBeat       float64  `json:"spanBeat"`
	SourceTempoBPM *float64 `json:"sourceTempoBpm"`
	Agent          *string  `json:"agent,omitempty"`
}

// RevisionSnapshot is a deep-copied, tagged snapshot of a clip's head at
// some point in its history.
type RevisionSnapshot struct {
	RevisionID       string          `json:"revisionId"`
	ParentRevisionID *string         `json:"parentRevisionId"`
	CreatedAt        time.Time       `json:"createdAt"`
	Name             string          `json:"name"`
	Score            *score.ScoreBeat `json:"score"`
	Meta             ClipMeta        `json:"meta"`
}

// Clip is a named, versioned ScoreBeat plus derived metadata and its linear
// revision history (oldest -> newest).
type Clip struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	SourceTaskID   *string   `json:"sourceTaskId"`

	Score *score.ScoreBeat `json:"score"`
	Meta  ClipMeta         `json:"meta"`

	RevisionID       string  `json:"revisionId"`
	ParentRevisionID *string `json:"parentRevisionId"`

	Revisions []*RevisionSnapshot `json:"revisions"`

	// ABPair is the ephemeral (aRevisionId,bRevisionId) toggle state
	// (spec.md §4.3 toggleClipAB). It is not part of the persisted schema's
	// invariant surface — nil until first toggled.
	ABPair *ABPair `json:"-"`
}

// ABPair is the revision chain's ephemeral A/B toggle state.
type ABPair struct {
	A string
	B string
}

// Instance places a clip on the project timeline at a beat offset on a
// specific track.
type Instance struct {
	ID        string `json:"id"`
	ClipID    string `json:"clipId"`
	TrackID   string `json:"trackId"`
	StartBeat float64 `json:"startBeat"`
	Transpose int     `json:"transpose"`
}

// Track is a mixer channel in the project.
type Track struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Instrument string  `json:"instrument"`
	GainDB     float64 `json:"gainDb"`
	Muted      bool    `json:"muted"`
}

// UI holds the project's view-state fields. All fields are beat-domain;
// seconds-domain equivalents (pxPerSec, playheadSec) are forbidden.
type UI struct {
	PxPerBeat    float64 `json:"pxPerBeat"`
	PlayheadBeat float64 `json:"playheadBeat"`
}

const (
	// GainMinDB and GainMaxDB bound Track.GainDB.
	GainMinDB = -30.0
	GainMaxDB = 6.0

	// DefaultInstrument is substituted for a missing/empty Track.Instrument.
	DefaultInstrument = "default"
	// DefaultTrackName is used when synthesizing a default track.
	DefaultTrackName = "Track 1"
)

// ProjectDoc is the v2 project document (spec.md §3).
type ProjectDoc struct {
	Version   int               `json:"version"`
	Timebase  string            `json:"timebase"`
	BPM       float64           `json:"bpm"`
	Tracks    []*Track          `json:"tracks"`
	Clips     map[string]*Clip  `json:"clips"`
	ClipOrder []string          `json:"clipOrder"`
	Instances []*Instance       `json:"instances"`
	UI        UI                `json:"ui"`
}

// NewProjectDoc returns a fresh, invariant-clean, empty v2 project with a
// single default track, at the given bpm (coerced).
func NewProjectDoc(bpm float64, gen idgen.Generator) *ProjectDoc {
	if gen == nil {
		gen = idgen.Default
	}
	return &ProjectDoc{
		Version:  ProjectVersion,
		Timebase: "beat",
		BPM:      numerics.CoerceBPM(bpm),
		Tracks: []*Track{
			{ID: gen.NewID(), Name: DefaultTrackName, Instrument: DefaultInstrument},
		},
		Clips:     map[string]*Clip{},
		ClipOrder: []string{},
		Instances: []*Instance{},
		UI:        UI{PxPerBeat: numerics.DefaultPxPerBeat, PlayheadBeat: 0},
	}
}
