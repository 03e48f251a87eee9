package normalize

import "strings"

// RelationshipStatus is the canonical outreach state of a creator.
type RelationshipStatus string

// Relationship statuses.
const (
	StatusProspect         RelationshipStatus = "prospect"
	StatusContacted        RelationshipStatus = "contacted"
	StatusFollowedUp       RelationshipStatus = "followed_up"
	StatusResponded        RelationshipStatus = "responded"
	StatusCreatorWantsPaid RelationshipStatus = "creator_wants_paid"
	StatusLeadDead         RelationshipStatus = "lead_dead"
	StatusNegotiating      RelationshipStatus = "negotiating"
	StatusAgreed           RelationshipStatus = "agreed"
	StatusProductShipped   RelationshipStatus = "product_shipped"
	StatusProductReceived  RelationshipStatus = "product_received"
	StatusPosted           RelationshipStatus = "posted"
)

// StatusPriority orders every relationship status from least to most
// advanced. It is the only ranking source: the multi-token collapse and the
// monotonic merge rule both go through Rank.
var StatusPriority = []RelationshipStatus{
	StatusProspect,
	StatusContacted,
	StatusFollowedUp,
	StatusResponded,
	StatusCreatorWantsPaid,
	StatusLeadDead,
	StatusNegotiating,
	StatusAgreed,
	StatusProductShipped,
	StatusProductReceived,
	StatusPosted,
}

var statusRank = func() map[RelationshipStatus]int {
	m := make(map[RelationshipStatus]int, len(StatusPriority))
	for i, s := range StatusPriority {
		m[s] = i + 1
	}
	return m
}()

// Rank returns the 1-based position of s in StatusPriority, or 0 for values
// outside the enumeration (including the empty string).
func Rank(s RelationshipStatus) int {
	return statusRank[s]
}

var statusAliases = map[string]RelationshipStatus{
	"prospect":           StatusProspect,
	"new":                StatusProspect,
	"to contact":         StatusProspect,
	"not contacted":      StatusProspect,
	"contacted":          StatusContacted,
	"reached out":        StatusContacted,
	"dm sent":            StatusContacted,
	"dmed":               StatusContacted,
	"dm'd":               StatusContacted,
	"emailed":            StatusContacted,
	"followed up":        StatusFollowedUp,
	"followed-up":        StatusFollowedUp,
	"follow up":          StatusFollowedUp,
	"follow-up":          StatusFollowedUp,
	"followup":           StatusFollowedUp,
	"followed_up":        StatusFollowedUp,
	"responded":          StatusResponded,
	"replied":            StatusResponded,
	"interested":         StatusResponded,
	"creator wants paid": StatusCreatorWantsPaid,
	"wants paid":         StatusCreatorWantsPaid,
	"wants payment":      StatusCreatorWantsPaid,
	"paid only":          StatusCreatorWantsPaid,
	"creator_wants_paid": StatusCreatorWantsPaid,
	"lead dead":          StatusLeadDead,
	"dead":               StatusLeadDead,
	"dead lead":          StatusLeadDead,
	"not interested":     StatusLeadDead,
	"no response":        StatusLeadDead,
	"ghosted":            StatusLeadDead,
	"lead_dead":          StatusLeadDead,
	"negotiating":        StatusNegotiating,
	"in negotiation":     StatusNegotiating,
	"negotiation":        StatusNegotiating,
	"agreed":             StatusAgreed,
	"confirmed":          StatusAgreed,
	"accepted":           StatusAgreed,
	"product shipped":    StatusProductShipped,
	"shipped":            StatusProductShipped,
	"sent product":       StatusProductShipped,
	"product_shipped":    StatusProductShipped,
	"product received":   StatusProductReceived,
	"received":           StatusProductReceived,
	"delivered":          StatusProductReceived,
	"product_received":   StatusProductReceived,
	"posted":             StatusPosted,
	"content posted":     StatusPosted,
	"live":               StatusPosted,
}

// ParseRelationshipStatus collapses a raw status field, which may hold a
// history of comma-separated states, to the single highest-ranked status.
// Unmatched input returns StatusProspect.
func ParseRelationshipStatus(raw string) RelationshipStatus {
	best := StatusProspect
	bestRank := 0
	for _, tok := range splitStatusTokens(raw) {
		s, ok := statusAliases[fold(tok)]
		if !ok {
			continue
		}
		if r := Rank(s); r > bestRank {
			best, bestRank = s, r
		}
	}
	return best
}

// Valid reports whether s is one of the enumerated statuses.
func (s RelationshipStatus) Valid() bool {
	return Rank(s) > 0
}

func splitStatusTokens(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', ';', '|', '/', '\n', '\r':
			return true
		}
		return false
	})
}
