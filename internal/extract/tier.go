package extract

// Tier identifies which strategy produced an extracted record, ordered from
// most trustworthy to least. Callers use it for graded trust, not control
// flow.
type Tier int

const (
	// TierExact means the whole response parsed as JSON directly.
	TierExact Tier = iota
	// TierSubstring means a brace-matched span of the response parsed.
	TierSubstring
	// TierManual means per-field scanning or regex probes reconstructed values.
	TierManual
	// TierFallback means nothing usable was recovered; the record is all defaults.
	TierFallback
)

// String returns the lowercase tier name used in logs and persisted records.
func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierSubstring:
		return "substring"
	case TierManual:
		return "manual"
	default:
		return "fallback"
	}
}

// ParseTier maps a stored tier name back to a Tier. Unknown names map to
// TierFallback.
func ParseTier(s string) Tier {
	switch s {
	case "exact":
		return TierExact
	case "substring":
		return TierSubstring
	case "manual":
		return TierManual
	default:
		return TierFallback
	}
}

// Worst returns the less trustworthy of two tiers.
func Worst(a, b Tier) Tier {
	if b > a {
		return b
	}
	return a
}
