package patch

import (
	"fmt"

	"github.com/hum2song/engine/internal/engineconfig"
)

// sanityInput is the before/after shape the gate reasons about. It is
// deliberately narrower than a full ScoreBeat: the gate only ever needs
// counts, a beat-bucket histogram, and the span.
type sanityInput struct {
	opCount     int
	notesBefore int
	notesAfter  int
	added       int
	deleted     int
	spanBefore  float64
	spanAfter   float64
	bucketCounts map[int]int // after-state notes per 1-beat bucket
	tinyDurationCount int // after-state notes with durationBeat < threshold
}

// runSanityGate implements spec.md §4.5.1's semantic sanity gate: a set of
// hard thresholds (from cfg) checked against the before/after state of one
// apply. A threshold crossing is a reject (semantic_* error) unless
// allowUnsafe downgrades it to a warning. Returns (errors, warnings).
func runSanityGate(in sanityInput, cfg *engineconfig.Config, allowUnsafe bool) (errs, warns []string) {
	report := func(code string, reject bool) {
		if reject && !allowUnsafe {
			errs = append(errs, code)
		} else {
			warns = append(warns, code)
		}
	}

	if cfg.MaxOpsPerPatch > 0 && in.opCount > cfg.MaxOpsPerPatch {
		report(fmt.Sprintf("semantic_too_many_ops:%d", in.opCount), true)
	}

	if cfg.MaxNotesAfterApply > 0 && in.notesAfter > cfg.MaxNotesAfterApply {
		report(fmt.Sprintf("semantic_too_many_notes:%d", in.notesAfter), true)
	}

	if in.notesBefore > 0 {
		deleteRatio := float64(in.deleted) / float64(in.notesBefore)
		if deleteRatio >= cfg.DeleteRatioReject {
			report(fmt.Sprintf("semantic_delete_ratio:%.4f", deleteRatio), true)
		} else if deleteRatio >= cfg.DeleteRatioWarn {
			report(fmt.Sprintf("semantic_delete_ratio_warn:%.4f", deleteRatio), false)
		}

		netDeleted := in.notesBefore - in.notesAfter
		if netDeleted > 0 {
			netRatio := float64(netDeleted) / float64(in.notesBefore)
			if netRatio >= cfg.NetDeleteRatioReject {
				report(fmt.Sprintf("semantic_net_delete_ratio:%.4f", netRatio), true)
			} else if netRatio >= cfg.NetDeleteRatioWarn {
				report(fmt.Sprintf("semantic_net_delete_ratio_warn:%.4f", netRatio), false)
			}
		}
	}

	for bucket, count := range in.bucketCounts {
		if count > cfg.MaxNotesPerBeatBucket {
			report(fmt.Sprintf("semantic_notes_per_beat_excess:bucket=%d,count=%d", bucket, count), true)
		}
	}

	spanCap := in.spanBefore*cfg.SpanGrowthMultiplier + cfg.SpanGrowthAddend
	if in.spanAfter > spanCap {
		report(fmt.Sprintf("semantic_span_growth_excess:%.4f", in.spanAfter), true)
	}
	if cfg.AbsoluteSpanCapBeats > 0 && in.spanAfter > cfg.AbsoluteSpanCapBeats {
		report(fmt.Sprintf("semantic_span_absolute_cap_excess:%.4f", in.spanAfter), true)
	}

	if in.notesAfter >= cfg.TinyDurationMinNotes {
		tinyRatio := float64(in.tinyDurationCount) / float64(in.notesAfter)
		if tinyRatio >= cfg.TinyDurationRatio {
			report(fmt.Sprintf("semantic_tiny_duration_excess:%.4f", tinyRatio), true)
		}
	}

	return errs, warns
}
