package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/fency/outreach-pipeline/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
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
CREATE TABLE IF NOT EXISTS properties (
	radar_id               TEXT PRIMARY KEY,
	address                TEXT,
	city                   TEXT,
	state                  TEXT,
	zip_code               TEXT,
	county                 TEXT,
	latitude               REAL,
	longitude              REAL,
	last_transfer_rec_date TEXT,
	last_transfer_type     TEXT,
	last_transfer_value    REAL,
	ptype                  TEXT,
	advanced_type          TEXT,
	beds                   REAL,
	baths                  REAL,
	sqft                   REAL,
	lot_size_acres         REAL,
	year_built             INTEGER,
	has_pool               INTEGER,
	avm                    REAL,
	available_equity       REAL,
	is_same_mailing        INTEGER,
	in_foreclosure         INTEGER,
	in_tax_delinquency     INTEGER,
	is_listed_for_sale     INTEGER,
	last_fetched_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS owners (
	person_key               TEXT PRIMARY KEY,
	radar_id                 TEXT NOT NULL REFERENCES properties(radar_id),
	first_name               TEXT,
	last_name                TEXT,
	entity_name              TEXT,
	person_type              TEXT,
	age                      INTEGER,
	gender                   TEXT,
	occupation               TEXT,
	is_primary_contact       INTEGER,
	ownership_role           TEXT,
	is_primary_residence     INTEGER NOT NULL DEFAULT 0,
	original_phone           TEXT,
	original_email           TEXT,
	processing_status        TEXT NOT NULL,
	mail_street_address      TEXT,
	mail_city                TEXT,
	mail_state               TEXT,
	mail_zip_code            TEXT,
	enriched_emails          TEXT,
	millionverifier_response TEXT,
	neverbounce_response     TEXT,
	millionverifier_status   TEXT,
	neverbounce_status       TEXT,
	created_at               DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at               DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_owners_processing_status ON owners(processing_status);
CREATE INDEX IF NOT EXISTS idx_owners_radar_id ON owners(radar_id);

CREATE TABLE IF NOT EXISTS stage_runs (
	id          TEXT PRIMARY KEY,
	stage       TEXT NOT NULL,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME,
	processed   INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0
);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func sqlitePlaceholder(int) string { return "?" }

var (
	sqliteUpsertProperty = upsertStatement("properties", propertyColumns, "radar_id", sqlitePlaceholder)
	sqliteUpsertOwner    = upsertStatement("owners", ownerColumns, "person_key", sqlitePlaceholder)
)

func (s *SQLiteStore) UpsertProperty(ctx context.Context, p *model.Property) error {
	if p == nil || p.RadarID == "" {
		return eris.New("sqlite: upsert property: missing radar id")
	}
	if _, err := s.db.ExecContext(ctx, sqliteUpsertProperty, propertyRow(p)...); err != nil {
		return eris.Wrapf(err, "sqlite: upsert property %s", p.RadarID)
	}
	return nil
}

func (s *SQLiteStore) UpsertOwners(ctx context.Context, owners []model.Owner) (int64, error) {
	if len(owners) == 0 {
		return 0, nil
	}
	if err := validateOwners(owners); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert owners: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteUpsertOwner)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert owners: prepare")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	var n int64
	for i := range owners {
		res, err := stmt.ExecContext(ctx, ownerRow(&owners[i], now)...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert owner %s", owners[i].PersonKey)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert owners: commit tx")
	}
	return n, nil
}

func (s *SQLiteStore) ListOwnersByStatus(ctx context.Context, statuses []model.ProcessingStatus, limit int) ([]model.Owner, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	args := make([]any, 0, len(statuses)+1)
	for _, st := range statusStrings(statuses) {
		args = append(args, st)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ownerSelect+` FROM owners WHERE processing_status IN (`+marks+`) LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list owners by status")
	}
	defer rows.Close() //nolint:errcheck

	var owners []model.Owner
	for rows.Next() {
		var (
			o        model.Owner
			age      sql.NullInt64
			primary  sql.NullBool
			status   string
			enriched sql.NullString
		)
		if err := rows.Scan(
			&o.PersonKey, &o.RadarID,
			&o.FirstName, &o.LastName, &o.EntityName, &o.PersonType,
			&age, &o.Gender, &o.Occupation,
			&primary, &o.OwnershipRole, &o.IsPrimaryResidence,
			&o.OriginalPhone, &o.OriginalEmail, &status,
			&o.MailStreet, &o.MailCity, &o.MailState, &o.MailZip,
			&enriched,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan owner")
		}
		if age.Valid {
			a := int(age.Int64)
			o.Age = &a
		}
		if primary.Valid {
			p := primary.Bool
			o.IsPrimaryContact = &p
		}
		o.Status = model.ProcessingStatus(status)
		if enriched.Valid && enriched.String != "" {
			if err := json.Unmarshal([]byte(enriched.String), &o.EnrichedEmails); err != nil {
				return nil, eris.Wrapf(err, "sqlite: unmarshal enriched emails for %s", o.PersonKey)
			}
		}
		owners = append(owners, o)
	}
	return owners, eris.Wrap(rows.Err(), "sqlite: list owners iterate")
}

func (s *SQLiteStore) UpdateOwnerStatus(ctx context.Context, personKey string, status model.ProcessingStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE owners SET processing_status = ?, updated_at = ? WHERE person_key = ?`,
		string(status), time.Now().UTC(), personKey,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update owner status %s", personKey)
	}
	return checkOwnerAffected(res, personKey)
}

func (s *SQLiteStore) UpdateOwnerEnrichment(ctx context.Context, personKey string, status model.ProcessingStatus, emails []string) error {
	if emails == nil {
		emails = []string{}
	}
	emailsJSON, err := json.Marshal(emails)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal enriched emails")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE owners SET processing_status = ?, enriched_emails = ?, updated_at = ? WHERE person_key = ?`,
		string(status), string(emailsJSON), time.Now().UTC(), personKey,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update owner enrichment %s", personKey)
	}
	return checkOwnerAffected(res, personKey)
}

func (s *SQLiteStore) UpdateOwnerVerification(ctx context.Context, personKey string, outcome model.VerificationOutcome) error {
	mvJSON, nbJSON, err := marshalAuditLogs(outcome)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal verification logs")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE owners SET processing_status = ?, millionverifier_response = ?, neverbounce_response = ?,
			millionverifier_status = ?, neverbounce_status = ?, updated_at = ? WHERE person_key = ?`,
		string(outcome.Status), mvJSON, nbJSON,
		nullString(outcome.MillionVerifier.PrimaryStatus), nullString(outcome.NeverBounce.PrimaryStatus),
		time.Now().UTC(), personKey,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update owner verification %s", personKey)
	}
	return checkOwnerAffected(res, personKey)
}

func (s *SQLiteStore) CreateStageRun(ctx context.Context, stage model.Stage) (*model.StageRun, error) {
	run := &model.StageRun{
		ID:        uuid.New().String(),
		Stage:     stage,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stage_runs (id, stage, started_at) VALUES (?, ?, ?)`,
		run.ID, string(run.Stage), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert stage run %s", stage)
	}
	return run, nil
}

func (s *SQLiteStore) FinishStageRun(ctx context.Context, run *model.StageRun) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE stage_runs SET finished_at = ?, processed = ?, failed = ? WHERE id = ?`,
		now, run.Processed, run.Failed, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish stage run %s", run.ID)
	}
	run.FinishedAt = &now
	return nil
}

func checkOwnerAffected(res sql.Result, personKey string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrOwnerNotFound, "sqlite: owner %s", personKey)
	}
	return nil
}
