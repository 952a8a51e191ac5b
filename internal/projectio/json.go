// Package projectio loads and migrates ProjectDoc v2 documents (spec.md
// §4.4): JSON-or-string input, legacy v2 upgrade, full v1→v2 migration, and
// a raw-JSON shape scanner for the legacy invariant codes a typed
// ProjectDoc cannot represent. Grounded on the teacher's
// internal/services/magda_dsl_parser.go idiom of shape-sniffing loosely
// typed input before committing to a strict struct, plus tidwall/gjson and
// tidwall/sjson for that sniffing and surgery.
package projectio

import jsoniter "github.com/json-iterator/go"

// JSON is the one JSON codec this module uses for persisted-form
// marshal/unmarshal; every JSON encode/decode in internal/projectio goes
// through it (SPEC_FULL.md §6). A drop-in replacement for encoding/json, not
// a second competing format.
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary
