// Package engineconfig loads the engine's few legitimately-configurable
// knobs: the semantic sanity gate's hard thresholds (spec.md §4.5.1), the
// revision chain's retention cap, and the dev harness's fixtures
// directory. Adapted from the teacher's internal/config: same getEnv-with-
// default pattern, optionally preceded by a loaded .env file.
package engineconfig

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every engine knob overridable from the environment.
type Config struct {
	// Sanity gate thresholds, spec.md §4.5.1.
	MaxOpsPerPatch        int
	MaxNotesAfterApply     int
	DeleteRatioReject      float64
	DeleteRatioWarn        float64
	NetDeleteRatioReject   float64
	NetDeleteRatioWarn     float64
	MaxNotesPerBeatBucket  int
	SpanGrowthMultiplier   float64
	SpanGrowthAddend       float64
	AbsoluteSpanCapBeats   float64
	TinyDurationThreshold  float64
	TinyDurationMinNotes   int
	TinyDurationRatio      float64

	// Revision chain retention, spec.md §4.3.
	MaxRevisionsPerClip int

	// Dev harness paths, spec.md SPEC_FULL.md §9.
	FixturesDir string
}

// Load reads a .env file if present (mirroring the teacher's main.go, but
// silently — a missing .env is the common case for library consumers, not
// worth a log line here), then builds a Config from the environment,
// falling back to spec.md's hard defaults everywhere unset.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		MaxOpsPerPatch:        getEnvInt("HUM2SONG_MAX_OPS_PER_PATCH", 5000),
		MaxNotesAfterApply:    getEnvInt("HUM2SONG_MAX_NOTES_AFTER_APPLY", 5000),
		DeleteRatioReject:     getEnvFloat("HUM2SONG_DELETE_RATIO_REJECT", 0.90),
		DeleteRatioWarn:       getEnvFloat("HUM2SONG_DELETE_RATIO_WARN", 0.50),
		NetDeleteRatioReject:  getEnvFloat("HUM2SONG_NET_DELETE_RATIO_REJECT", 0.90),
		NetDeleteRatioWarn:    getEnvFloat("HUM2SONG_NET_DELETE_RATIO_WARN", 0.50),
		MaxNotesPerBeatBucket: getEnvInt("HUM2SONG_MAX_NOTES_PER_BEAT_BUCKET", 50),
		SpanGrowthMultiplier:  getEnvFloat("HUM2SONG_SPAN_GROWTH_MULTIPLIER", 8.0),
		SpanGrowthAddend:      getEnvFloat("HUM2SONG_SPAN_GROWTH_ADDEND", 16.0),
		AbsoluteSpanCapBeats:  getEnvFloat("HUM2SONG_ABSOLUTE_SPAN_CAP_BEATS", 4096.0),
		TinyDurationThreshold: getEnvFloat("HUM2SONG_TINY_DURATION_THRESHOLD", 0.001),
		TinyDurationMinNotes:  getEnvInt("HUM2SONG_TINY_DURATION_MIN_NOTES", 200),
		TinyDurationRatio:     getEnvFloat("HUM2SONG_TINY_DURATION_RATIO", 0.70),
		MaxRevisionsPerClip:   getEnvInt("HUM2SONG_MAX_REVISIONS_PER_CLIP", 40),
		FixturesDir:           getEnv("HUM2SONG_FIXTURES_DIR", "internal/harness/fixtures"),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
