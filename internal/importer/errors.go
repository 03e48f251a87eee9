package importer

import (
	"errors"
	"fmt"

	"github.com/sells-group/creator-roster/internal/enrich"
	"github.com/sells-group/creator-roster/internal/influencer"
)

// Class is the error taxonomy reported in the run summary.
type Class string

// Error classes.
const (
	ClassValidation           Class = "VALIDATION"
	ClassUnresolvableIdentity Class = "UNRESOLVABLE_IDENTITY"
	ClassAmbiguousIdentity    Class = "AMBIGUOUS_IDENTITY"
	ClassEnrichmentFailure    Class = "ENRICHMENT_FAILURE"
	ClassStorageFailure       Class = "STORAGE_FAILURE"
	ClassPersistenceFailure   Class = "PERSISTENCE_FAILURE"
)

// Fatal reports whether an error of this class stops the record. Enrichment
// and storage failures are diagnostics on an otherwise successful record.
func (c Class) Fatal() bool {
	switch c {
	case ClassEnrichmentFailure, ClassStorageFailure:
		return false
	default:
		return true
	}
}

// RecordError is a classified failure for one input row.
type RecordError struct {
	Class Class
	// Kind refines the class, e.g. NOT_FOUND for an enrichment failure.
	Kind string
	Err  error
}

func (e *RecordError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s (%s): %v", e.Class, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func newRecordError(class Class, err error) *RecordError {
	re := &RecordError{Class: class, Err: err}
	var f *enrich.Failure
	if errors.As(err, &f) {
		re.Kind = f.Kind.String()
	}
	return re
}

// classifyStoreErr picks the class for an error returned while resolving or
// writing a record.
func classifyStoreErr(err error) Class {
	if errors.Is(err, influencer.ErrAmbiguousIdentity) {
		return ClassAmbiguousIdentity
	}
	return ClassPersistenceFailure
}
