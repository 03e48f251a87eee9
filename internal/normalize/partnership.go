package normalize

import "strings"

// PartnershipType is the canonical partnership arrangement with a creator.
type PartnershipType string

// Partnership types.
const (
	PartnershipUnassigned      PartnershipType = "unassigned"
	PartnershipGiftedNoAsk     PartnershipType = "gifted_no_ask"
	PartnershipGiftedAsk       PartnershipType = "gifted_ask"
	PartnershipGiftedRecurring PartnershipType = "gifted_recurring"
	PartnershipPaid            PartnershipType = "paid"
	PartnershipAffiliate       PartnershipType = "affiliate"
	PartnershipAmbassador      PartnershipType = "ambassador"
)

var partnershipAliases = map[string]PartnershipType{
	"gifted no ask":     PartnershipGiftedNoAsk,
	"gifted (no ask)":   PartnershipGiftedNoAsk,
	"gifted - no ask":   PartnershipGiftedNoAsk,
	"gifted-no ask":     PartnershipGiftedNoAsk,
	"gifted, no ask":    PartnershipGiftedNoAsk,
	"no ask":            PartnershipGiftedNoAsk,
	"gifted":            PartnershipGiftedNoAsk,
	"gifted_no_ask":     PartnershipGiftedNoAsk,
	"gifted ask":        PartnershipGiftedAsk,
	"gifted (ask)":      PartnershipGiftedAsk,
	"gifted - ask":      PartnershipGiftedAsk,
	"gifted with ask":   PartnershipGiftedAsk,
	"gifted_ask":        PartnershipGiftedAsk,
	"gifted recurring":  PartnershipGiftedRecurring,
	"recurring gifting": PartnershipGiftedRecurring,
	"gifted_recurring":  PartnershipGiftedRecurring,
	"paid":              PartnershipPaid,
	"paid partnership":  PartnershipPaid,
	"paid collab":       PartnershipPaid,
	"sponsored":         PartnershipPaid,
	"affiliate":         PartnershipAffiliate,
	"ambassador":        PartnershipAmbassador,
	"brand ambassador":  PartnershipAmbassador,
	"unassigned":        PartnershipUnassigned,
}

// partnershipFallbacks are checked in order when no alias matches exactly.
var partnershipFallbacks = []struct {
	match func(string) bool
	value PartnershipType
}{
	{func(s string) bool { return strings.Contains(s, "recurring") }, PartnershipGiftedRecurring},
	{func(s string) bool { return strings.Contains(s, "no ask") || strings.Contains(s, "no-ask") }, PartnershipGiftedNoAsk},
	{func(s string) bool { return strings.Contains(s, "gift") && strings.Contains(s, "ask") }, PartnershipGiftedAsk},
	{func(s string) bool { return strings.Contains(s, "gift") }, PartnershipGiftedNoAsk},
	{func(s string) bool { return strings.Contains(s, "affiliate") }, PartnershipAffiliate},
	{func(s string) bool { return strings.Contains(s, "ambassador") }, PartnershipAmbassador},
	{func(s string) bool { return strings.Contains(s, "paid") || strings.Contains(s, "sponsor") }, PartnershipPaid},
}

// ParsePartnershipType maps a raw partnership value to its canonical type.
// Unmatched input returns PartnershipUnassigned.
func ParsePartnershipType(raw string) PartnershipType {
	s := fold(raw)
	if s == "" {
		return PartnershipUnassigned
	}
	if v, ok := partnershipAliases[s]; ok {
		return v
	}
	for _, fb := range partnershipFallbacks {
		if fb.match(s) {
			return fb.value
		}
	}
	return PartnershipUnassigned
}

// Assigned reports whether p is a real partnership type rather than the
// unassigned sentinel.
func (p PartnershipType) Assigned() bool {
	return p != "" && p != PartnershipUnassigned
}
