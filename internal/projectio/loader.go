package projectio

import (
	"github.com/hum2song/engine/internal/idgen"
	"github.com/hum2song/engine/internal/project"
	"github.com/tidwall/gjson"
)

// LoadInfo describes what LoadProjectDoc did: which shape it detected the
// input as, which path it normalized to, whether it had to change anything,
// and any non-fatal warnings collected along the way.
type LoadInfo struct {
	From     string
	To       string
	Changed  bool
	Warnings []string
}

const (
	shapeUnparseable = "unparseable"
	shapeLegacyV2    = "legacy_v2"
	shapeV1          = "v1"
	shapeV2          = "v2"
)

// LoadProjectDoc implements spec.md §4.4's loadProjectDoc(raw) dispatcher.
// raw may be a JSON string, []byte, or any value JSON-marshalable via JSON
// (the dev harness passes parsed fixture values through as-is). Unparseable
// or non-object input yields a fresh default v2 project.
func LoadProjectDoc(raw any, gen idgen.Generator) (*project.ProjectDoc, LoadInfo) {
	if gen == nil {
		gen = idgen.Default
	}

	data, ok := toJSONBytes(raw)
	if !ok || !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		p := project.NewProjectDoc(120, gen)
		return p, LoadInfo{From: shapeUnparseable, To: shapeV2, Changed: true, Warnings: []string{"json_parse_failed"}}
	}

	version := gjson.GetBytes(data, "version")
	timebase := gjson.GetBytes(data, "timebase")
	isLegacyV2 := (version.Exists() && version.Int() == 2) || (timebase.Exists() && timebase.String() == "beat")

	if isLegacyV2 {
		p, warnings := UpgradeLegacyV2(data, gen)
		return p, LoadInfo{From: shapeLegacyV2, To: shapeV2, Changed: len(warnings) > 0, Warnings: warnings}
	}

	p, warnings := MigrateProjectV1ToV2(data, gen)
	return p, LoadInfo{From: shapeV1, To: shapeV2, Changed: true, Warnings: warnings}
}

// toJSONBytes normalizes raw into JSON bytes. Strings are assumed to already
// be JSON text; []byte passes through; everything else is marshaled via the
// shared codec. ok is false only when marshaling a non-string/[]byte value
// fails.
func toJSONBytes(raw any) ([]byte, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	default:
		b, err := JSON.Marshal(v)
		if err != nil {
			return nil, false
		}
		return b, true
	}
}
