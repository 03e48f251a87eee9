package influencer

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/creator-roster/internal/db"
)

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
	// closeFn releases the underlying pool when the store owns it.
	closeFn func()
}

// NewPostgresStore creates a new PostgresStore. The caller keeps ownership of
// pool unless it is handed over with WithCloser.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// WithCloser makes Close call fn, typically pgxpool.Pool.Close.
func (s *PostgresStore) WithCloser(fn func()) *PostgresStore {
	s.closeFn = fn
	return s
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS influencers (
	id                  BIGSERIAL PRIMARY KEY,
	handle              TEXT NOT NULL,
	display_name        TEXT NOT NULL DEFAULT '',
	avatar_ref          TEXT NOT NULL DEFAULT '',
	avatar_url          TEXT NOT NULL DEFAULT '',
	follower_count      BIGINT NOT NULL DEFAULT 0 CHECK (follower_count >= 0),
	email               TEXT NOT NULL DEFAULT '',
	phone               TEXT NOT NULL DEFAULT '',
	mailing_address     TEXT NOT NULL DEFAULT '',
	partnership_type    TEXT NOT NULL DEFAULT 'unassigned',
	relationship_status TEXT NOT NULL DEFAULT 'prospect',
	top_size            TEXT NOT NULL DEFAULT '',
	bottom_size         TEXT NOT NULL DEFAULT '',
	tier                TEXT NOT NULL DEFAULT 'C',
	notes               TEXT NOT NULL DEFAULT '',
	owner_ref           TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS influencers_handle_key ON influencers (lower(handle));

CREATE TABLE IF NOT EXISTS campaigns (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	starts_on  DATE,
	ends_on    DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS campaigns_name_key ON campaigns (lower(name));

CREATE TABLE IF NOT EXISTS campaign_influencers (
	id               BIGSERIAL PRIMARY KEY,
	campaign_id      BIGINT NOT NULL REFERENCES campaigns(id),
	influencer_id    BIGINT NOT NULL REFERENCES influencers(id),
	partnership_type TEXT NOT NULL,
	status           TEXT NOT NULL,
	approval         TEXT,
	notes            TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT campaign_influencers_pair_key UNIQUE (campaign_id, influencer_id)
);
CREATE INDEX IF NOT EXISTS idx_campaign_influencers_recent
	ON campaign_influencers (influencer_id, created_at DESC, id DESC);
`

// Migrate creates the roster tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "influencer: migrate")
	}
	return nil
}

// Close releases the pool if the store owns it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// FindIdentitiesByHandle returns every identity whose handle matches
// case-insensitively. More than one result indicates corrupted data.
func (s *PostgresStore) FindIdentitiesByHandle(ctx context.Context, handle string) ([]Identity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+identityColumns+`
		FROM influencers
		WHERE lower(handle) = lower($1)
		ORDER BY id`, strings.TrimSpace(handle))
	if err != nil {
		return nil, eris.Wrapf(err, "influencer: find by handle %s", handle)
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		id, err := scanIdentity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "influencer: scan identity")
		}
		out = append(out, *id)
	}
	return out, rows.Err()
}

// InsertIdentity inserts a new identity and sets its ID and timestamps.
func (s *PostgresStore) InsertIdentity(ctx context.Context, id *Identity) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO influencers (
			handle, display_name, avatar_ref, avatar_url, follower_count,
			email, phone, mailing_address,
			partnership_type, relationship_status, top_size, bottom_size, tier,
			notes, owner_ref
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15
		) RETURNING id, created_at, updated_at`,
		id.Handle, id.DisplayName, id.AvatarRef, id.AvatarURL, id.FollowerCount,
		id.Email, id.Phone, id.MailingAddress,
		string(id.PartnershipType), string(id.RelationshipStatus), string(id.TopSize), string(id.BottomSize), string(id.Tier),
		id.Notes, id.OwnerRef,
	).Scan(&id.ID, &id.CreatedAt, &id.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "influencers_handle_key") {
			return eris.Wrapf(ErrDuplicateHandle, "influencer: insert %s", id.Handle)
		}
		return eris.Wrapf(err, "influencer: insert %s", id.Handle)
	}
	return nil
}

// UpdateIdentity writes every mutable field of an existing identity.
func (s *PostgresStore) UpdateIdentity(ctx context.Context, id *Identity) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE influencers SET
			display_name=$2, avatar_ref=$3, avatar_url=$4, follower_count=$5,
			email=$6, phone=$7, mailing_address=$8,
			partnership_type=$9, relationship_status=$10, top_size=$11, bottom_size=$12, tier=$13,
			notes=$14, owner_ref=$15,
			updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		id.ID,
		id.DisplayName, id.AvatarRef, id.AvatarURL, id.FollowerCount,
		id.Email, id.Phone, id.MailingAddress,
		string(id.PartnershipType), string(id.RelationshipStatus), string(id.TopSize), string(id.BottomSize), string(id.Tier),
		id.Notes, id.OwnerRef,
	).Scan(&id.UpdatedAt)
	if err != nil {
		return eris.Wrapf(err, "influencer: update %d", id.ID)
	}
	return nil
}

// FindAssociation returns the association for the pair, or nil if none.
func (s *PostgresStore) FindAssociation(ctx context.Context, campaignID, identityID int64) (*Association, error) {
	a, err := scanAssociation(s.pool.QueryRow(ctx, `
		SELECT `+associationColumns+`
		FROM campaign_influencers
		WHERE campaign_id=$1 AND influencer_id=$2`, campaignID, identityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "influencer: find association %d/%d", campaignID, identityID)
	}
	return a, nil
}

// InsertAssociation creates a new association and sets its ID.
func (s *PostgresStore) InsertAssociation(ctx context.Context, a *Association) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO campaign_influencers (campaign_id, influencer_id, partnership_type, status, approval, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		a.CampaignID, a.IdentityID, string(a.PartnershipType), string(a.Status), nilIfEmpty(a.Approval), a.Notes,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "campaign_influencers_pair_key") {
			return eris.Wrapf(ErrDuplicateAssociation, "influencer: associate %d/%d", a.CampaignID, a.IdentityID)
		}
		return eris.Wrapf(err, "influencer: associate %d/%d", a.CampaignID, a.IdentityID)
	}
	return nil
}

// MostRecentAssociation returns the newest association for an identity, or
// nil when it has none.
func (s *PostgresStore) MostRecentAssociation(ctx context.Context, identityID int64) (*Association, error) {
	a, err := scanAssociation(s.pool.QueryRow(ctx, `
		SELECT `+associationColumns+`
		FROM campaign_influencers
		WHERE influencer_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, identityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "influencer: most recent association %d", identityID)
	}
	return a, nil
}

// FindOrCreateCampaign looks a campaign up by name (case-insensitive) and
// creates it when absent. A concurrent creator wins the insert race and both
// callers end up with the same row.
func (s *PostgresStore) FindOrCreateCampaign(ctx context.Context, name string, dates DateRange) (*Campaign, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, eris.New("influencer: campaign name is required")
	}

	c, err := s.findCampaign(ctx, name)
	if err != nil || c != nil {
		return c, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO campaigns (name, starts_on, ends_on)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		name, nilIfNoTime(dates.Start), nilIfNoTime(dates.End))
	if err != nil {
		return nil, eris.Wrapf(err, "influencer: create campaign %s", name)
	}

	c, err = s.findCampaign(ctx, name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, eris.Errorf("influencer: campaign %s missing after insert", name)
	}
	return c, nil
}

func (s *PostgresStore) findCampaign(ctx context.Context, name string) (*Campaign, error) {
	c, err := scanCampaign(s.pool.QueryRow(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE lower(name) = lower($1)`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "influencer: find campaign %s", name)
	}
	return c, nil
}
