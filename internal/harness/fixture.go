// Package harness is the dev harness's engine side: YAML-described
// contract fixtures (SPEC_FULL.md §9) and the runner that drives them
// through internal/projectio and internal/patch, reporting pass/fail
// without ever touching a screen or the network. cmd/harness is the only
// consumer that turns this into a CLI.
package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"
)

// FixtureKind selects which engine surface a Fixture exercises.
type FixtureKind string

const (
	// KindLoad exercises internal/projectio.LoadProjectDoc on Doc.
	KindLoad FixtureKind = "load"
	// KindPatch exercises internal/patch.ApplyPatchToClip against a clip
	// seeded with ClipNotes notes.
	KindPatch FixtureKind = "patch"
)

// FixtureOp is one op in a patch fixture, wide enough to describe any of
// the four op kinds; unused fields are simply omitted from the YAML.
type FixtureOp struct {
	Kind         string   `yaml:"kind"`
	TrackIndex   int      `yaml:"trackIndex,omitempty"`
	NoteIndex    int      `yaml:"noteIndex,omitempty"`
	Pitch        *float64 `yaml:"pitch,omitempty"`
	Velocity     *float64 `yaml:"velocity,omitempty"`
	StartBeat    *float64 `yaml:"startBeat,omitempty"`
	DurationBeat *float64 `yaml:"durationBeat,omitempty"`
	DeltaBeat    *float64 `yaml:"deltaBeat,omitempty"`
}

// Fixture is one YAML-described contract check: a load (LoadProjectDoc)
// or a patch (ApplyPatchToClip) case, such as spec.md §8 scenarios S1, S3
// and S6. Roundtrip, flatten and revision-chain scenarios are not
// expressible as fixtures; they are covered by package tests.
type Fixture struct {
	Name string      `yaml:"name"`
	Kind FixtureKind `yaml:"kind"`

	// load fixtures.
	Doc               any      `yaml:"doc,omitempty"`
	ExpectFrom        string   `yaml:"expectFrom,omitempty"`
	ExpectInvariantOk bool     `yaml:"expectInvariantOk"`
	ExpectClipOrder   []string `yaml:"expectClipOrder,omitempty"`

	// patch fixtures.
	BPM               float64     `yaml:"bpm,omitempty"`
	ClipNotes         int         `yaml:"clipNotes,omitempty"`
	Ops               []FixtureOp `yaml:"ops,omitempty"`
	AllowUnsafe       bool        `yaml:"allowUnsafe,omitempty"`
	ExpectApplyOk     bool        `yaml:"expectApplyOk"`
	ExpectErrorPrefix string      `yaml:"expectErrorPrefix,omitempty"`
}

// LoadFixtures reads every *.yaml file directly under dir and returns their
// decoded Fixtures, sorted by file name for a deterministic run order.
func LoadFixtures(dir string) ([]Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("harness: reading fixtures dir %q: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	fixtures := make([]Fixture, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("harness: reading %q: %w", path, err)
		}
		var f Fixture
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("harness: parsing %q: %w", path, err)
		}
		if f.Name == "" {
			f.Name = name
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}
