package influencer

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local runs
// and the end-to-end tests.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens a SQLite database at the given path and configures WAL mode.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS influencers (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	handle              TEXT NOT NULL UNIQUE COLLATE NOCASE,
	display_name        TEXT NOT NULL DEFAULT '',
	avatar_ref          TEXT NOT NULL DEFAULT '',
	avatar_url          TEXT NOT NULL DEFAULT '',
	follower_count      INTEGER NOT NULL DEFAULT 0 CHECK (follower_count >= 0),
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
	created_at          DATETIME NOT NULL,
	updated_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS campaigns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE COLLATE NOCASE,
	starts_on  DATE,
	ends_on    DATE,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS campaign_influencers (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	campaign_id      INTEGER NOT NULL REFERENCES campaigns(id),
	influencer_id    INTEGER NOT NULL REFERENCES influencers(id),
	partnership_type TEXT NOT NULL,
	status           TEXT NOT NULL,
	approval         TEXT,
	notes            TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL,
	UNIQUE (campaign_id, influencer_id)
);

CREATE INDEX IF NOT EXISTS idx_campaign_influencers_recent ON campaign_influencers(influencer_id, created_at);
`

// Migrate creates the roster tables if they do not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isSQLiteUnique(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func (s *SQLiteStore) FindIdentitiesByHandle(ctx context.Context, handle string) ([]Identity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+identityColumns+`
		FROM influencers
		WHERE handle = ? COLLATE NOCASE
		ORDER BY id`, strings.TrimSpace(handle))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find by handle %s", handle)
	}
	defer rows.Close() //nolint:errcheck

	var out []Identity
	for rows.Next() {
		id, err := scanIdentity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan identity")
		}
		out = append(out, *id)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate identities")
}

func (s *SQLiteStore) InsertIdentity(ctx context.Context, id *Identity) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO influencers (
			handle, display_name, avatar_ref, avatar_url, follower_count,
			email, phone, mailing_address,
			partnership_type, relationship_status, top_size, bottom_size, tier,
			notes, owner_ref, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.Handle, id.DisplayName, id.AvatarRef, id.AvatarURL, id.FollowerCount,
		id.Email, id.Phone, id.MailingAddress,
		string(id.PartnershipType), string(id.RelationshipStatus), string(id.TopSize), string(id.BottomSize), string(id.Tier),
		id.Notes, id.OwnerRef, now, now,
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return eris.Wrapf(ErrDuplicateHandle, "sqlite: insert %s", id.Handle)
		}
		return eris.Wrapf(err, "sqlite: insert %s", id.Handle)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: last insert id")
	}
	id.ID = newID
	id.CreatedAt = now
	id.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpdateIdentity(ctx context.Context, id *Identity) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE influencers SET
			display_name=?, avatar_ref=?, avatar_url=?, follower_count=?,
			email=?, phone=?, mailing_address=?,
			partnership_type=?, relationship_status=?, top_size=?, bottom_size=?, tier=?,
			notes=?, owner_ref=?, updated_at=?
		WHERE id=?`,
		id.DisplayName, id.AvatarRef, id.AvatarURL, id.FollowerCount,
		id.Email, id.Phone, id.MailingAddress,
		string(id.PartnershipType), string(id.RelationshipStatus), string(id.TopSize), string(id.BottomSize), string(id.Tier),
		id.Notes, id.OwnerRef, now,
		id.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update %d", id.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: update %d", id.ID)
	}
	if n == 0 {
		return eris.Errorf("sqlite: update %d: no such influencer", id.ID)
	}
	id.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) FindAssociation(ctx context.Context, campaignID, identityID int64) (*Association, error) {
	a, err := scanAssociation(s.db.QueryRowContext(ctx, `
		SELECT `+associationColumns+`
		FROM campaign_influencers
		WHERE campaign_id=? AND influencer_id=?`, campaignID, identityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: find association %d/%d", campaignID, identityID)
	}
	return a, nil
}

func (s *SQLiteStore) InsertAssociation(ctx context.Context, a *Association) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO campaign_influencers (campaign_id, influencer_id, partnership_type, status, approval, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.CampaignID, a.IdentityID, string(a.PartnershipType), string(a.Status), nilIfEmpty(a.Approval), a.Notes, now,
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return eris.Wrapf(ErrDuplicateAssociation, "sqlite: associate %d/%d", a.CampaignID, a.IdentityID)
		}
		return eris.Wrapf(err, "sqlite: associate %d/%d", a.CampaignID, a.IdentityID)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: last insert id")
	}
	a.ID = newID
	a.CreatedAt = now
	return nil
}

func (s *SQLiteStore) MostRecentAssociation(ctx context.Context, identityID int64) (*Association, error) {
	a, err := scanAssociation(s.db.QueryRowContext(ctx, `
		SELECT `+associationColumns+`
		FROM campaign_influencers
		WHERE influencer_id=?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, identityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: most recent association %d", identityID)
	}
	return a, nil
}

func (s *SQLiteStore) FindOrCreateCampaign(ctx context.Context, name string, dates DateRange) (*Campaign, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, eris.New("sqlite: campaign name is required")
	}

	c, err := s.findCampaign(ctx, name)
	if err != nil || c != nil {
		return c, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO campaigns (name, starts_on, ends_on, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		name, nilIfNoTime(dates.Start), nilIfNoTime(dates.End), time.Now().UTC())
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: create campaign %s", name)
	}

	c, err = s.findCampaign(ctx, name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, eris.Errorf("sqlite: campaign %s missing after insert", name)
	}
	return c, nil
}

func (s *SQLiteStore) findCampaign(ctx context.Context, name string) (*Campaign, error) {
	c, err := scanCampaign(s.db.QueryRowContext(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE name = ? COLLATE NOCASE`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: find campaign %s", name)
	}
	return c, nil
}
