package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/creator-roster/internal/roster"
)

func sampleSummary() *Summary {
	s := newSummary("run-1", "Spring Launch", false, fixedNow)
	s.add(Record{Row: 2, Name: "Jane Doe", Outcome: OutcomeCreated, Association: associationCreated})
	s.add(Record{Row: 3, Name: "John Roe", Outcome: OutcomeUpdated, Changed: []string{"email"}, Association: associationExisting})
	s.add(Record{Row: 4, Name: "Sam Poe", Outcome: OutcomeUpdated, Reason: ReasonUnchanged, Association: associationExisting})
	s.add(Record{Row: 5, Outcome: OutcomeSkipped, Reason: ReasonNoName,
		Diagnostics: []Issue{{Row: 5, Class: ClassValidation, Message: "row has no name"}}})
	s.add(Record{Row: 6, Name: "Mystery", Outcome: OutcomeSkipped, Reason: ReasonNeedsLookup})
	s.add(Record{Row: 7, Name: "Twins", Outcome: OutcomeErrored, Reason: ReasonAmbiguous, Class: ClassAmbiguousIdentity})
	s.add(Record{Row: 8, Name: "Late", Outcome: OutcomeSkipped, Reason: ReasonCancelled})
	s.addManualLookup(ManualLookup{Row: 6, Name: "Mystery", Reference: "https://instagram.com/p/X1/", Shortcode: "X1", Reason: ReasonNeedsLookup})
	s.FinishedAt = fixedNow.Add(time.Minute)
	return s
}

func TestSummary_Counters(t *testing.T) {
	t.Parallel()
	s := sampleSummary()

	assert.Equal(t, 7, s.Rows)
	assert.Equal(t, 1, s.Created)
	assert.Equal(t, 2, s.Updated)
	assert.Equal(t, 1, s.Unchanged)
	assert.Equal(t, 1, s.SkippedNoName)
	assert.Equal(t, 1, s.SkippedNoHandle)
	assert.Equal(t, 1, s.Cancelled)
	assert.Equal(t, 1, s.Errored)
	assert.Equal(t, 1, s.AssociationsCreated)
	assert.Equal(t, 2, s.AlreadyAssociated)
	assert.Len(t, s.Errors, 1)
	assert.Len(t, s.Records, 7)
}

func TestSummary_WriteJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, sampleSummary().WriteJSON(&buf))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, float64(1), got["created"])
	assert.Equal(t, float64(1), got["skipped_no_handle"])
	assert.Equal(t, float64(1), got["associations_created"])
	assert.Len(t, got["needs_manual_lookup"], 1)
	assert.Len(t, got["records"], 7)
}

func TestSummary_WriteJSON_EmptyListsAreArrays(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, newSummary("r", "c", true, fixedNow).WriteJSON(&buf))
	assert.Contains(t, buf.String(), `"errors": []`)
	assert.Contains(t, buf.String(), `"needs_manual_lookup": []`)
	assert.Contains(t, buf.String(), `"dry_run": true`)
}

func TestSummary_WriteYAML(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, sampleSummary().WriteYAML(&buf))

	var got struct {
		RunID    string `yaml:"run_id"`
		Updated  int    `yaml:"updated"`
		Campaign string `yaml:"campaign"`
		Records  []struct {
			Row     int    `yaml:"row"`
			Outcome string `yaml:"outcome"`
		} `yaml:"records"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 2, got.Updated)
	assert.Equal(t, "Spring Launch", got.Campaign)
	require.Len(t, got.Records, 7)
	assert.Equal(t, "errored", got.Records[5].Outcome)
}

func TestSummary_WriteManualLookupTSV(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, sampleSummary().WriteManualLookupTSV(&buf))
	assert.Equal(t,
		"name\treference\treason\nMystery\thttps://instagram.com/p/X1/\tneeds_manual_lookup\n",
		buf.String())
}

func TestSummary_ManualLookupTSVLoadsAsMapping(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, sampleSummary().WriteManualLookupTSV(&buf))
	path := filepath.Join(t.TempDir(), "manual.tsv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	m, err := roster.LoadMapping(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	ref, ok := m.Lookup("mystery")
	require.True(t, ok)
	assert.Equal(t, "https://instagram.com/p/X1/", ref)
}
