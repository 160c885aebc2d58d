package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/fency/outreach-pipeline/internal/db"
	"github.com/fency/outreach-pipeline/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS properties (
	radar_id               TEXT PRIMARY KEY,
	address                TEXT,
	city                   TEXT,
	state                  TEXT,
	zip_code               TEXT,
	county                 TEXT,
	latitude               DOUBLE PRECISION,
	longitude              DOUBLE PRECISION,
	last_transfer_rec_date TEXT,
	last_transfer_type     TEXT,
	last_transfer_value    DOUBLE PRECISION,
	ptype                  TEXT,
	advanced_type          TEXT,
	beds                   DOUBLE PRECISION,
	baths                  DOUBLE PRECISION,
	sqft                   DOUBLE PRECISION,
	lot_size_acres         DOUBLE PRECISION,
	year_built             INTEGER,
	has_pool               BOOLEAN,
	avm                    DOUBLE PRECISION,
	available_equity       DOUBLE PRECISION,
	is_same_mailing        BOOLEAN,
	in_foreclosure         BOOLEAN,
	in_tax_delinquency     BOOLEAN,
	is_listed_for_sale     BOOLEAN,
	last_fetched_at        TIMESTAMPTZ NOT NULL DEFAULT now()
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
	is_primary_contact       BOOLEAN,
	ownership_role           TEXT,
	is_primary_residence     BOOLEAN NOT NULL DEFAULT false,
	original_phone           TEXT,
	original_email           TEXT,
	processing_status        TEXT NOT NULL,
	mail_street_address      TEXT,
	mail_city                TEXT,
	mail_state               TEXT,
	mail_zip_code            TEXT,
	enriched_emails          JSONB,
	millionverifier_response JSONB,
	neverbounce_response     JSONB,
	millionverifier_status   TEXT,
	neverbounce_status       TEXT,
	created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_owners_processing_status ON owners(processing_status);
CREATE INDEX IF NOT EXISTS idx_owners_radar_id ON owners(radar_id);

CREATE TABLE IF NOT EXISTS stage_runs (
	id          TEXT PRIMARY KEY,
	stage       TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ,
	processed   INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_stage_runs_stage ON stage_runs(stage, started_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func pgPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }

var pgUpsertProperty = upsertStatement("properties", propertyColumns, "radar_id", pgPlaceholder)

func (s *PostgresStore) UpsertProperty(ctx context.Context, p *model.Property) error {
	if p == nil || p.RadarID == "" {
		return eris.New("postgres: upsert property: missing radar id")
	}
	if _, err := s.pool.Exec(ctx, pgUpsertProperty, propertyRow(p)...); err != nil {
		return eris.Wrapf(err, "postgres: upsert property %s", p.RadarID)
	}
	return nil
}

func (s *PostgresStore) UpsertOwners(ctx context.Context, owners []model.Owner) (int64, error) {
	if err := validateOwners(owners); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	rows := make([][]any, len(owners))
	for i := range owners {
		rows[i] = ownerRow(&owners[i], now)
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "owners",
		Columns:      ownerColumns,
		ConflictKeys: []string{"person_key"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert owners")
	}
	return n, nil
}

func (s *PostgresStore) ListOwnersByStatus(ctx context.Context, statuses []model.ProcessingStatus, limit int) ([]model.Owner, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+ownerSelect+` FROM owners WHERE processing_status = ANY($1) LIMIT $2`,
		statusStrings(statuses), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list owners by status")
	}
	defer rows.Close()

	var owners []model.Owner
	for rows.Next() {
		var (
			o        model.Owner
			age      *int
			primary  *bool
			status   string
			enriched []byte
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
			return nil, eris.Wrap(err, "postgres: scan owner")
		}
		o.Age = age
		o.IsPrimaryContact = primary
		o.Status = model.ProcessingStatus(status)
		if len(enriched) > 0 {
			if err := json.Unmarshal(enriched, &o.EnrichedEmails); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal enriched emails for %s", o.PersonKey)
			}
		}
		owners = append(owners, o)
	}
	return owners, eris.Wrap(rows.Err(), "postgres: list owners iterate")
}

func (s *PostgresStore) UpdateOwnerStatus(ctx context.Context, personKey string, status model.ProcessingStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE owners SET processing_status = $1, updated_at = $2 WHERE person_key = $3`,
		string(status), time.Now().UTC(), personKey,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update owner status %s", personKey)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrOwnerNotFound, "postgres: update owner status %s", personKey)
	}
	return nil
}

func (s *PostgresStore) UpdateOwnerEnrichment(ctx context.Context, personKey string, status model.ProcessingStatus, emails []string) error {
	if emails == nil {
		emails = []string{}
	}
	emailsJSON, err := json.Marshal(emails)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal enriched emails")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE owners SET processing_status = $1, enriched_emails = $2, updated_at = $3 WHERE person_key = $4`,
		string(status), string(emailsJSON), time.Now().UTC(), personKey,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update owner enrichment %s", personKey)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrOwnerNotFound, "postgres: update owner enrichment %s", personKey)
	}
	return nil
}

func (s *PostgresStore) UpdateOwnerVerification(ctx context.Context, personKey string, outcome model.VerificationOutcome) error {
	mvJSON, nbJSON, err := marshalAuditLogs(outcome)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal verification logs")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE owners SET processing_status = $1, millionverifier_response = $2, neverbounce_response = $3,
			millionverifier_status = $4, neverbounce_status = $5, updated_at = $6 WHERE person_key = $7`,
		string(outcome.Status), mvJSON, nbJSON,
		nullString(outcome.MillionVerifier.PrimaryStatus), nullString(outcome.NeverBounce.PrimaryStatus),
		time.Now().UTC(), personKey,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update owner verification %s", personKey)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrOwnerNotFound, "postgres: update owner verification %s", personKey)
	}
	return nil
}

func (s *PostgresStore) CreateStageRun(ctx context.Context, stage model.Stage) (*model.StageRun, error) {
	run := &model.StageRun{
		ID:        uuid.New().String(),
		Stage:     stage,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO stage_runs (id, stage, started_at) VALUES ($1, $2, $3)`,
		run.ID, string(run.Stage), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert stage run %s", stage)
	}
	return run, nil
}

func (s *PostgresStore) FinishStageRun(ctx context.Context, run *model.StageRun) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`UPDATE stage_runs SET finished_at = $1, processed = $2, failed = $3 WHERE id = $4`,
		now, run.Processed, run.Failed, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish stage run %s", run.ID)
	}
	run.FinishedAt = &now
	return nil
}

func marshalAuditLogs(outcome model.VerificationOutcome) (string, string, error) {
	mv := outcome.MillionVerifier.Log
	if mv == nil {
		mv = model.VerificationLog{}
	}
	nb := outcome.NeverBounce.Log
	if nb == nil {
		nb = model.VerificationLog{}
	}
	mvJSON, err := json.Marshal(mv)
	if err != nil {
		return "", "", err
	}
	nbJSON, err := json.Marshal(nb)
	if err != nil {
		return "", "", err
	}
	return string(mvJSON), string(nbJSON), nil
}
