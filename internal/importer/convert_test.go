package importer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/creator-roster/internal/enrich"
	"github.com/sells-group/creator-roster/internal/influencer"
	"github.com/sells-group/creator-roster/internal/normalize"
	"github.com/sells-group/creator-roster/internal/roster"
)

func TestToIncoming(t *testing.T) {
	t.Parallel()
	in, warnings := toIncoming(roster.Candidate{
		Name:        "  Jane Doe ",
		Handle:      "janedoe",
		DisplayName: "Jane D.",
		Partnership: "Gifted (No Ask)",
		Status:      "Contacted, Posted, Prospect",
		Approval:    "APPROVED",
		TopSize:     "medium",
		BottomSize:  "xl",
		Email:       " Jane@Example.COM ",
		Phone:       "555-0100",
		Address:     "1 Main St",
		Notes:       "met at expo",
		Followers:   "12.3k",
		Tier:        "b",
	})

	assert.Empty(t, warnings)
	assert.Equal(t, influencer.Incoming{
		Handle:         "janedoe",
		RawName:        "Jane Doe",
		DisplayName:    "Jane D.",
		FollowerCount:  12300,
		HasFollowers:   true,
		Email:          "jane@example.com",
		Phone:          "555-0100",
		MailingAddress: "1 Main St",
		Partnership:    normalize.PartnershipGiftedNoAsk,
		Status:         normalize.StatusPosted,
		Approval:       normalize.ApprovalApproved,
		TopSize:        normalize.SizeM,
		BottomSize:     normalize.SizeXL,
		Tier:           normalize.TierB,
		Notes:          "met at expo",
	}, in)
}

func TestToIncoming_UnparsedValuesWarn(t *testing.T) {
	t.Parallel()
	in, warnings := toIncoming(roster.Candidate{
		Name:       "X",
		Handle:     "x",
		Approval:   "maybe",
		TopSize:    "huge",
		BottomSize: "tiny",
		Tier:       "Z",
		Followers:  "lots",
		Status:     "",
	})

	assert.Len(t, warnings, 5)
	assert.Empty(t, in.Approval)
	assert.Empty(t, in.TopSize)
	assert.Empty(t, in.Tier)
	assert.False(t, in.HasFollowers)
	assert.Equal(t, normalize.PartnershipUnassigned, in.Partnership)
	assert.Equal(t, normalize.StatusProspect, in.Status)
}

func TestClass_Fatal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		class Class
		fatal bool
	}{
		{ClassValidation, true},
		{ClassUnresolvableIdentity, true},
		{ClassAmbiguousIdentity, true},
		{ClassPersistenceFailure, true},
		{ClassEnrichmentFailure, false},
		{ClassStorageFailure, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.fatal, tt.class.Fatal(), tt.class)
	}
}

func TestRecordError(t *testing.T) {
	t.Parallel()
	f := &enrich.Failure{Kind: enrich.FailureRateLimited, Handle: "x"}
	re := newRecordError(ClassEnrichmentFailure, f)
	assert.Equal(t, "RATE_LIMITED", re.Kind)
	assert.True(t, errors.Is(re, f))
	assert.Contains(t, re.Error(), "ENRICHMENT_FAILURE (RATE_LIMITED)")

	plain := newRecordError(ClassPersistenceFailure, errors.New("disk full"))
	assert.Empty(t, plain.Kind)
	assert.Equal(t, "PERSISTENCE_FAILURE: disk full", plain.Error())
}

func TestClassifyStoreErr(t *testing.T) {
	t.Parallel()
	require.Equal(t, ClassAmbiguousIdentity, classifyStoreErr(influencer.ErrAmbiguousIdentity))
	require.Equal(t, ClassPersistenceFailure, classifyStoreErr(errors.New("boom")))
}
