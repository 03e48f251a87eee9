package normalize

// ApprovalStatus is the sign-off state of a campaign association.
type ApprovalStatus string

// Approval statuses.
const (
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalDeclined ApprovalStatus = "declined"
)

// ParseApprovalStatus matches exactly one of approved, pending or declined
// (case-insensitive). Anything else is absent, which is distinct from declined.
func ParseApprovalStatus(raw string) (ApprovalStatus, bool) {
	switch s := ApprovalStatus(fold(raw)); s {
	case ApprovalApproved, ApprovalPending, ApprovalDeclined:
		return s, true
	}
	return "", false
}
