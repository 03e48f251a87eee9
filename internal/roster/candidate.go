package roster

// Resolution classifies how far the joiner got toward a handle.
type Resolution int

const (
	// Resolved means Handle is set.
	Resolved Resolution = iota
	// NeedsLookup means the reference is a post whose shortcode had no
	// usable secondary row. The row goes to manual follow-up.
	NeedsLookup
	// Unresolvable means the reference could not be parsed at all.
	Unresolvable
	// MissingReference means neither the row nor the mapping file supplied
	// a reference.
	MissingReference
)

func (r Resolution) String() string {
	switch r {
	case Resolved:
		return "resolved"
	case NeedsLookup:
		return "needs_lookup"
	case Unresolvable:
		return "unresolvable"
	case MissingReference:
		return "missing_reference"
	default:
		return "unknown"
	}
}

// Candidate is the joined, still-raw view of one primary roster row. It lives
// only for the duration of one run.
type Candidate struct {
	Row    int
	Source string

	Name        string
	Reference   string
	Shortcode   string
	Handle      string
	DisplayName string // inferred from the secondary source

	Partnership string
	Status      string
	Approval    string
	TopSize     string
	BottomSize  string
	Email       string
	Phone       string
	Address     string
	Notes       string
	Followers   string
	Tier        string

	// Provenance maps a field name to the label of the source that supplied it.
	Provenance map[string]string
	Resolution Resolution
	// Detail explains a non-Resolved resolution for the run summary.
	Detail string
}
