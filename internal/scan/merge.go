package scan

// key is the identity of a network observation. Hidden networks share the
// empty name but stay distinct across bands, so two unrelated hidden
// networks on 2.4GHz and 5GHz never merge.
type key struct {
	ssid string
	band Band
}

// Merge folds overlapping observations into one record per (name, band) in a
// single streaming pass. On collision the stronger observation wins; equal
// strengths break the tie toward the most recently seen. Output preserves
// first-seen order, which makes Merge idempotent. Merge never fails:
// malformed input still resolves deterministically through the tie-break.
func Merge(records []Record) []Record {
	order := make([]key, 0, len(records))
	byKey := make(map[key]Record, len(records))

	for _, record := range records {
		k := key{ssid: record.SSID, band: record.Band()}
		existing, seen := byKey[k]
		if !seen {
			order = append(order, k)
			byKey[k] = record
			continue
		}
		if better(record, existing) {
			byKey[k] = record
		}
	}

	merged := make([]Record, 0, len(order))
	for _, k := range order {
		merged = append(merged, byKey[k])
	}
	return merged
}

// better reports whether candidate should replace current under the
// strength-then-recency rule.
func better(candidate, current Record) bool {
	if candidate.Strength != current.Strength {
		return candidate.Strength > current.Strength
	}
	return candidate.LastSeen.After(current.LastSeen)
}
