package influencer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/creator-roster/internal/normalize"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresStore(mock), mock
}

var identityRowColumns = []string{
	"id", "handle", "display_name", "avatar_ref", "avatar_url", "follower_count",
	"email", "phone", "mailing_address",
	"partnership_type", "relationship_status", "top_size", "bottom_size", "tier",
	"notes", "owner_ref", "created_at", "updated_at",
}

var associationRowColumns = []string{
	"id", "campaign_id", "influencer_id", "partnership_type", "status", "approval", "notes", "created_at",
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS influencers`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindIdentitiesByHandle(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM influencers\s+WHERE lower\(handle\) = lower\(\$1\)`).
		WithArgs("JaneDoe").
		WillReturnRows(pgxmock.NewRows(identityRowColumns).
			AddRow(int64(7), "janedoe", "Jane Doe", "", "", int64(1200),
				"", "", "",
				"gifted_no_ask", "followed_up", "M", "", "C",
				"", "", now, now))

	found, err := s.FindIdentitiesByHandle(context.Background(), "JaneDoe")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(7), found[0].ID)
	assert.Equal(t, normalize.PartnershipGiftedNoAsk, found[0].PartnershipType)
	assert.Equal(t, normalize.StatusFollowedUp, found[0].RelationshipStatus)
	assert.Equal(t, normalize.SizeM, found[0].TopSize)
	assert.Equal(t, normalize.TierC, found[0].Tier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindIdentitiesByHandle_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM influencers`).
		WithArgs("janedoe").
		WillReturnError(errors.New("connection reset"))

	_, err := s.FindIdentitiesByHandle(context.Background(), "janedoe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "find by handle")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertIdentity(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO influencers`).
		WithArgs("janedoe", "Jane Doe", "", "", int64(0),
			"", "", "",
			"gifted_no_ask", "followed_up", "", "", "C",
			"", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	id := &Identity{
		Handle:             "janedoe",
		DisplayName:        "Jane Doe",
		PartnershipType:    normalize.PartnershipGiftedNoAsk,
		RelationshipStatus: normalize.StatusFollowedUp,
		Tier:               normalize.TierC,
	}
	require.NoError(t, s.InsertIdentity(context.Background(), id))
	assert.Equal(t, int64(42), id.ID)
	assert.Equal(t, now, id.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertIdentity_DuplicateHandle(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO influencers`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "influencers_handle_key"})

	err := s.InsertIdentity(context.Background(), &Identity{Handle: "janedoe"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateHandle))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateIdentity(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE influencers SET`).
		WithArgs(int64(7),
			"Jane Doe", "", "", int64(0),
			"jane@example.com", "", "",
			"paid", "posted", "", "", "B",
			"", "").
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))

	id := &Identity{
		ID:                 7,
		DisplayName:        "Jane Doe",
		Email:              "jane@example.com",
		PartnershipType:    normalize.PartnershipPaid,
		RelationshipStatus: normalize.StatusPosted,
		Tier:               normalize.TierB,
	}
	require.NoError(t, s.UpdateIdentity(context.Background(), id))
	assert.Equal(t, now, id.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindAssociation_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM campaign_influencers\s+WHERE campaign_id=\$1 AND influencer_id=\$2`).
		WithArgs(int64(10), int64(7)).
		WillReturnError(pgx.ErrNoRows)

	a, err := s.FindAssociation(context.Background(), 10, 7)
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MostRecentAssociation(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now()

	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(associationRowColumns).
			AddRow(int64(5), int64(3), int64(7), "gifted_recurring", "posted", nil, "", now))

	a, err := s.MostRecentAssociation(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, normalize.PartnershipGiftedRecurring, a.PartnershipType)
	assert.Equal(t, normalize.ApprovalStatus(""), a.Approval)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertAssociation_Duplicate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO campaign_influencers`).
		WithArgs(int64(10), int64(7), "paid", "agreed", nil, "").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "campaign_influencers_pair_key"})

	err := s.InsertAssociation(context.Background(), &Association{
		CampaignID: 10, IdentityID: 7,
		PartnershipType: normalize.PartnershipPaid, Status: normalize.StatusAgreed,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateAssociation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertAssociation_WithApproval(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO campaign_influencers`).
		WithArgs(int64(10), int64(7), "paid", "agreed", "pending", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))

	a := &Association{
		CampaignID: 10, IdentityID: 7,
		PartnershipType: normalize.PartnershipPaid, Status: normalize.StatusAgreed,
		Approval: normalize.ApprovalPending,
	}
	require.NoError(t, s.InsertAssociation(context.Background(), a))
	assert.Equal(t, int64(1), a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindOrCreateCampaign_Existing(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM campaigns\s+WHERE lower\(name\) = lower\(\$1\)`).
		WithArgs("Spring Launch").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "starts_on", "ends_on", "created_at"}).
			AddRow(int64(3), "spring launch", nil, nil, now))

	c, err := s.FindOrCreateCampaign(context.Background(), " Spring Launch ", DateRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindOrCreateCampaign_Creates(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM campaigns`).
		WithArgs("Spring Launch").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO campaigns .+ ON CONFLICT DO NOTHING`).
		WithArgs("Spring Launch", nil, nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT .+ FROM campaigns`).
		WithArgs("Spring Launch").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "starts_on", "ends_on", "created_at"}).
			AddRow(int64(4), "Spring Launch", nil, nil, now))

	c, err := s.FindOrCreateCampaign(context.Background(), "Spring Launch", DateRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Close(t *testing.T) {
	s, _ := newMockPostgresStore(t)
	closed := false
	s.WithCloser(func() { closed = true })
	require.NoError(t, s.Close())
	assert.True(t, closed)
}
