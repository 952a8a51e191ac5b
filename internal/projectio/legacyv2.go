package projectio

import (
	"strconv"

	"github.com/hum2song/engine/internal/idgen"
	"github.com/hum2song/engine/internal/numerics"
	"github.com/hum2song/engine/internal/project"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// UpgradeLegacyV2 implements spec.md §4.4's legacy v2 upgrade: a document
// already in the beat domain (version===2 or timebase==='beat') but written
// against an earlier shape of this schema. sjson does the raw-JSON surgery
// (array clips -> map + clipOrder synthesis, pxPerSec/playheadSec ->
// pxPerBeat/playheadBeat, trackIndex -> trackId) before the result is
// unmarshaled into the typed ProjectDoc and run through
// project.NormalizeProjectV2 for anything the surgery didn't fully resolve.
func UpgradeLegacyV2(raw []byte, gen idgen.Generator) (*project.ProjectDoc, []string) {
	if gen == nil {
		gen = idgen.Default
	}
	var warnings []string
	doc := raw
	bpm := numerics.CoerceBPM(gjson.GetBytes(doc, "bpm").Float())

	if clips := gjson.GetBytes(doc, "clips"); clips.IsArray() {
		var order []string
		doc, _ = sjson.DeleteBytes(doc, "clips")
		for _, c := range clips.Array() {
			id := c.Get("id").String()
			if id == "" {
				id = gen.NewID()
			}
			order = append(order, id)
			doc, _ = sjson.SetRawBytes(doc, "clips."+sjsonEscape(id), []byte(c.Raw))
		}
		doc, _ = sjson.SetBytes(doc, "clipOrder", order)
		warnings = append(warnings, "legacy_clips_array_converted")
	} else if !gjson.GetBytes(doc, "clipOrder").Exists() {
		var order []string
		for id := range gjson.GetBytes(doc, "clips").Map() {
			order = append(order, id)
		}
		doc, _ = sjson.SetBytes(doc, "clipOrder", order)
		warnings = append(warnings, "legacy_clipOrder_synthesized")
	}

	if px := gjson.GetBytes(doc, "ui.pxPerSec"); px.Exists() {
		doc, _ = sjson.SetBytes(doc, "ui.pxPerBeat", numerics.PxPerSecToPxPerBeat(px.Float(), bpm))
		doc, _ = sjson.DeleteBytes(doc, "ui.pxPerSec")
		warnings = append(warnings, "legacy_ui_pxPerSec_converted")
	}
	if ph := gjson.GetBytes(doc, "ui.playheadSec"); ph.Exists() {
		doc, _ = sjson.SetBytes(doc, "ui.playheadBeat", numerics.NormalizeBeat(numerics.SecToBeat(ph.Float(), bpm)))
		doc, _ = sjson.DeleteBytes(doc, "ui.playheadSec")
		warnings = append(warnings, "legacy_ui_playheadSec_converted")
	}

	for i, inst := range gjson.GetBytes(doc, "instances").Array() {
		path := "instances." + strconv.Itoa(i)
		if idx := inst.Get("trackIndex"); idx.Exists() {
			trackID := resolveTrackIDByIndex(doc, int(idx.Int()))
			doc, _ = sjson.SetBytes(doc, path+".trackId", trackID)
			doc, _ = sjson.DeleteBytes(doc, path+".trackIndex")
			warnings = append(warnings, "legacy_instance_trackIndex_converted")
		}
		if ss := inst.Get("startSec"); ss.Exists() {
			doc, _ = sjson.SetBytes(doc, path+".startBeat", numerics.NormalizeBeat(numerics.SecToBeat(ss.Float(), bpm)))
			doc, _ = sjson.DeleteBytes(doc, path+".startSec")
			warnings = append(warnings, "legacy_instance_startSec_converted")
		}
	}

	for id := range gjson.GetBytes(doc, "clips").Map() {
		path := "clips." + sjsonEscape(id) + ".meta.spanSec"
		if gjson.GetBytes(doc, path).Exists() {
			doc, _ = sjson.DeleteBytes(doc, path)
			warnings = append(warnings, "legacy_clip_meta_spanSec_stripped")
		}
	}

	var p project.ProjectDoc
	if err := JSON.Unmarshal(doc, &p); err != nil {
		fresh := project.NewProjectDoc(bpm, gen)
		return fresh, append(warnings, "legacy_v2_unmarshal_failed")
	}
	project.NormalizeProjectV2(&p, gen)
	return &p, warnings
}

func resolveTrackIDByIndex(doc []byte, idx int) string {
	tracks := gjson.GetBytes(doc, "tracks").Array()
	if idx >= 0 && idx < len(tracks) {
		return tracks[idx].Get("id").String()
	}
	if len(tracks) > 0 {
		return tracks[0].Get("id").String()
	}
	return ""
}

// sjsonEscape escapes a map key so it is treated as a single path segment
// by sjson/gjson's dotted-path syntax, even when the id itself contains a
// dot (ids are generator-produced and normally safe, but this keeps a
// pathological id from corrupting the surrounding document).
func sjsonEscape(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '.' || c == '*' || c == '?' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
