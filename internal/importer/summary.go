package importer

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Outcome is the single result every input row maps to.
type Outcome string

// Record outcomes.
const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeErrored Outcome = "errored"
)

// Skip and error reasons.
const (
	ReasonNoName           = "no_name"
	ReasonMissingReference = "missing_reference"
	ReasonUnresolvable     = "unresolvable_reference"
	ReasonNeedsLookup      = "needs_manual_lookup"
	ReasonCancelled        = "cancelled"
	ReasonAmbiguous        = "ambiguous_identity"
	ReasonPersistence      = "persistence_failure"
	ReasonUnchanged        = "unchanged"
)

// Issue is one classified problem, fatal or not, tied to an input row.
type Issue struct {
	Row       int    `json:"row" yaml:"row"`
	Name      string `json:"name" yaml:"name"`
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
	Class     Class  `json:"class" yaml:"class"`
	Kind      string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Message   string `json:"message" yaml:"message"`
}

// ManualLookup is a row an operator has to resolve by hand.
type ManualLookup struct {
	Row       int    `json:"row" yaml:"row"`
	Name      string `json:"name" yaml:"name"`
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
	Shortcode string `json:"shortcode,omitempty" yaml:"shortcode,omitempty"`
	Reason    string `json:"reason" yaml:"reason"`
}

// Record is the per-row result.
type Record struct {
	Row         int      `json:"row" yaml:"row"`
	Source      string   `json:"source" yaml:"source"`
	Name        string   `json:"name" yaml:"name"`
	Reference   string   `json:"reference,omitempty" yaml:"reference,omitempty"`
	Handle      string   `json:"handle,omitempty" yaml:"handle,omitempty"`
	Outcome     Outcome  `json:"outcome" yaml:"outcome"`
	Reason      string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Class       Class    `json:"class,omitempty" yaml:"class,omitempty"`
	IdentityID  int64    `json:"influencer_id,omitempty" yaml:"influencer_id,omitempty"`
	Changed     []string `json:"changed,omitempty" yaml:"changed,omitempty"`
	Association string   `json:"association,omitempty" yaml:"association,omitempty"`
	Warnings    []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Diagnostics []Issue  `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Summary is the sole report of a run.
type Summary struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Campaign   string    `json:"campaign" yaml:"campaign"`
	CampaignID int64     `json:"campaign_id,omitempty" yaml:"campaign_id,omitempty"`
	DryRun     bool      `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	Rows                int `json:"rows" yaml:"rows"`
	Created             int `json:"created" yaml:"created"`
	Updated             int `json:"updated" yaml:"updated"`
	Unchanged           int `json:"unchanged" yaml:"unchanged"`
	SkippedNoHandle     int `json:"skipped_no_handle" yaml:"skipped_no_handle"`
	SkippedNoName       int `json:"skipped_no_name" yaml:"skipped_no_name"`
	Cancelled           int `json:"cancelled" yaml:"cancelled"`
	Errored             int `json:"errored" yaml:"errored"`
	AssociationsCreated int `json:"associations_created" yaml:"associations_created"`
	AlreadyAssociated   int `json:"already_associated" yaml:"already_associated"`

	Errors            []Issue        `json:"errors" yaml:"errors"`
	NeedsManualLookup []ManualLookup `json:"needs_manual_lookup" yaml:"needs_manual_lookup"`
	Records           []Record       `json:"records" yaml:"records"`
}

func newSummary(runID, campaign string, dryRun bool, started time.Time) *Summary {
	return &Summary{
		RunID:             runID,
		Campaign:          campaign,
		DryRun:            dryRun,
		StartedAt:         started,
		Errors:            []Issue{},
		NeedsManualLookup: []ManualLookup{},
		Records:           []Record{},
	}
}

// add folds one record into the counters. Updated counts every matched
// existing identity; Unchanged is the subset that needed no write.
func (s *Summary) add(rec Record) {
	s.Rows++
	switch rec.Outcome {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
		if len(rec.Changed) == 0 {
			s.Unchanged++
		}
	case OutcomeSkipped:
		switch rec.Reason {
		case ReasonNoName:
			s.SkippedNoName++
		case ReasonCancelled:
			s.Cancelled++
		default:
			s.SkippedNoHandle++
		}
	case OutcomeErrored:
		s.Errored++
	}

	switch rec.Association {
	case associationCreated:
		s.AssociationsCreated++
	case associationExisting:
		s.AlreadyAssociated++
	}

	s.Errors = append(s.Errors, rec.Diagnostics...)
	s.Records = append(s.Records, rec)
}

func (s *Summary) addManualLookup(m ManualLookup) {
	s.NeedsManualLookup = append(s.NeedsManualLookup, m)
}

// WriteJSON writes the summary as indented JSON.
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return eris.Wrap(err, "importer: encode summary json")
	}
	return nil
}

// WriteYAML writes the summary as YAML.
func (s *Summary) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return eris.Wrap(err, "importer: encode summary yaml")
	}
	if err := enc.Close(); err != nil {
		return eris.Wrap(err, "importer: flush summary yaml")
	}
	return nil
}

// WriteManualLookupTSV writes the follow-up list as name, reference, reason.
// Once an operator replaces each reference with the creator's handle, the
// file can be passed back as the mapping file.
func (s *Summary) WriteManualLookupTSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write([]string{"name", "reference", "reason"}); err != nil {
		return eris.Wrap(err, "importer: write manual lookup header")
	}
	for _, m := range s.NeedsManualLookup {
		if err := cw.Write([]string{m.Name, m.Reference, m.Reason}); err != nil {
			return eris.Wrapf(err, "importer: write manual lookup row %d", m.Row)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "importer: flush manual lookup")
}
