package projectio

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ScanRawInvariants detects the legacy raw-JSON-shape invariant violations a
// typed project.ProjectDoc cannot represent once unmarshaled — by the time
// JSON has gone through a struct, an array-shaped "clips" or a
// "ui.pxPerSec" field has already been coerced or silently dropped. This is
// a diagnostic companion to project.CheckProjectV2Invariants (spec.md
// §4.4), used by this package's tests to verify a raw document was actually
// legacy-shaped before asserting the loader repaired it.
func ScanRawInvariants(data []byte) []string {
	var errs []string

	if gjson.GetBytes(data, "ui.pxPerSec").Exists() {
		errs = append(errs, "ui.pxPerSec_present")
	}
	if gjson.GetBytes(data, "ui.playheadSec").Exists() {
		errs = append(errs, "ui.playheadSec_present")
	}
	if gjson.GetBytes(data, "clips").IsArray() {
		errs = append(errs, "clips_is_array")
	}
	if !gjson.GetBytes(data, "clipOrder").Exists() {
		errs = append(errs, "clipOrder_missing")
	}

	for i, inst := range gjson.GetBytes(data, "instances").Array() {
		if inst.Get("startSec").Exists() {
			errs = append(errs, fmt.Sprintf("instance.startSec_present:%d", i))
		}
		if inst.Get("trackIndex").Exists() {
			errs = append(errs, fmt.Sprintf("instance.trackIndex_present:%d", i))
		}
	}

	clips := gjson.GetBytes(data, "clips")
	if clips.IsObject() {
		clips.ForEach(func(key, val gjson.Result) bool {
			if val.Get("meta.spanSec").Exists() {
				errs = append(errs, fmt.Sprintf("clip.meta.spanSec_present:%s", key.String()))
			}
			return true
		})
	} else if clips.IsArray() {
		for _, c := range clips.Array() {
			if c.Get("meta.spanSec").Exists() {
				errs = append(errs, fmt.Sprintf("clip.meta.spanSec_present:%s", c.Get("id").String()))
			}
		}
	}

	return errs
}
