package schedule

// GenerateSlots tiles each working block into consecutive slots of exactly
// slotMinutes, starting at the block start. A slot is emitted only if it fits
// entirely inside its block; a trailing remainder shorter than one slot is
// dropped. Blocks are processed in the order given, no sorting. Blocks with
// malformed times are skipped.
func GenerateSlots(blocks []Block, slotMinutes int) []Slot {
	if slotMinutes <= 0 {
		return nil
	}
	var out []Slot
	for _, b := range blocks {
		start, err := ParseClock(b.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(b.End)
		if err != nil {
			continue
		}
		for cur := start; cur+slotMinutes <= end; cur += slotMinutes {
			out = append(out, Slot{
				Start: FormatClock(cur),
				End:   FormatClock(cur + slotMinutes),
			})
		}
	}
	return out
}

// SubtractBreaks removes every slot that overlaps any break block. Overlap is
// the half-open interval test: a slot ending exactly when a break starts, or
// starting exactly when a break ends, is kept.
func SubtractBreaks(slots []Slot, breaks []Block) []Slot {
	if len(breaks) == 0 {
		return slots
	}
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		sStart, err := ParseClock(s.Start)
		if err != nil {
			continue
		}
		sEnd, err := ParseClock(s.End)
		if err != nil {
			continue
		}
		overlaps := false
		for _, br := range breaks {
			bStart, err := ParseClock(br.Start)
			if err != nil {
				continue
			}
			bEnd, err := ParseClock(br.End)
			if err != nil {
				continue
			}
			if sStart < bEnd && sEnd > bStart {
				overlaps = true
				break
			}
		}
		if !overlaps {
			out = append(out, s)
		}
	}
	return out
}

// EffectiveDay resolves the blocks and slot duration to use for one calendar
// date: each piece comes from the override when present there, otherwise from
// the template (working blocks fall back to the template's blocks for the
// date's weekday). Override blocks fully replace template blocks, never merge.
func EffectiveDay(t Template, ov *Override, weekday string) (working, breaks []Block, slotMin int) {
	slotMin = t.SlotDurationMin
	if slotMin <= 0 {
		slotMin = 30
	}
	working = t.WorkingDays[weekday]
	breaks = t.BreakBlocks
	if ov != nil {
		if ov.SlotDurationMin != nil {
			slotMin = *ov.SlotDurationMin
		}
		if ov.WorkingBlocks != nil {
			working = ov.WorkingBlocks
		}
		if ov.BreakBlocks != nil {
			breaks = ov.BreakBlocks
		}
	}
	return working, breaks, slotMin
}
