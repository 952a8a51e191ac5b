package patch

// InvertAppliedPatch builds the Patch that undoes ap, op-for-op, in reverse
// declaration order (spec.md §4.5: "apply(inversePatch, apply(patch, clip))
// must be bit-identical to clip, modulo rounding"). Every inverse op carries
// explicit values taken from the original Before/After snapshots rather than
// deltas computed against a mutating state, so inversion never depends on
// the order its own ops are later replayed in.
func InvertAppliedPatch(ap *AppliedPatch) *Patch {
	if ap == nil {
		return nil
	}
	ops := make([]Op, 0, len(ap.Ops))
	for i := len(ap.Ops) - 1; i >= 0; i-- {
		op := ap.Ops[i]
		switch op.Kind {
		case OpAddNote:
			ops = append(ops, Op{Kind: OpDeleteNote, NoteID: op.NoteID})

		case OpDeleteNote:
			ops = append(ops, Op{
				Kind:    OpAddNote,
				TrackID: op.TrackID,
				Note: &NoteInput{
					ID:           &op.Before.ID,
					Pitch:        float64(op.Before.Pitch),
					Velocity:     float64(op.Before.Velocity),
					StartBeat:    op.Before.StartBeat,
					DurationBeat: op.Before.DurationBeat,
				},
			})

		case OpMoveNote:
			// A setNote targeting the exact prior startBeat, rather than a
			// negated moveNote delta, so inversion is exact even when the
			// forward move clamped at startBeat=0.
			startBeat := op.Before.StartBeat
			ops = append(ops, Op{Kind: OpSetNote, NoteID: op.NoteID, Set: SetFields{StartBeat: &startBeat}})

		case OpSetNote:
			pitch := float64(op.Before.Pitch)
			velocity := float64(op.Before.Velocity)
			startBeat := op.Before.StartBeat
			durationBeat := op.Before.DurationBeat
			ops = append(ops, Op{
				Kind:   OpSetNote,
				NoteID: op.NoteID,
				Set: SetFields{
					Pitch:        &pitch,
					Velocity:     &velocity,
					StartBeat:    &startBeat,
					DurationBeat: &durationBeat,
				},
			})
		}
	}
	return &Patch{Version: ap.Version, ClipID: ap.ClipID, Ops: ops}
}
