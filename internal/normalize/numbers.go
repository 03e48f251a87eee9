package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Tier is the internal priority bucket of a creator.
type Tier string

// Tiers.
const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// ParseTier matches A through D, case-insensitive, optionally prefixed by "tier".
func ParseTier(raw string) (Tier, bool) {
	s := strings.TrimSpace(strings.TrimPrefix(fold(raw), "tier"))
	switch t := Tier(strings.ToUpper(s)); t {
	case TierA, TierB, TierC, TierD:
		return t, true
	}
	return "", false
}

// ParseFollowerCount parses spreadsheet follower counts such as "12,300",
// "12.3k" or "1.2M".
func ParseFollowerCount(raw string) (int64, bool) {
	s := strings.ReplaceAll(fold(raw), ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1e3, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1e6, strings.TrimSuffix(s, "m")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	v := math.Round(f * mult)
	if v >= 1<<63 {
		return 0, false
	}
	return int64(v), true
}
