// Package store persists properties, owners and stage runs.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fency/outreach-pipeline/internal/model"
)

// Store defines the persistence interface for the pipeline stages.
type Store interface {
	// Ingest
	UpsertProperty(ctx context.Context, p *model.Property) error
	UpsertOwners(ctx context.Context, owners []model.Owner) (int64, error)

	// Owner lifecycle
	ListOwnersByStatus(ctx context.Context, statuses []model.ProcessingStatus, limit int) ([]model.Owner, error)
	UpdateOwnerStatus(ctx context.Context, personKey string, status model.ProcessingStatus) error
	UpdateOwnerEnrichment(ctx context.Context, personKey string, status model.ProcessingStatus, emails []string) error
	UpdateOwnerVerification(ctx context.Context, personKey string, outcome model.VerificationOutcome) error

	// Stage runs
	CreateStageRun(ctx context.Context, stage model.Stage) (*model.StageRun, error)
	FinishStageRun(ctx context.Context, run *model.StageRun) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// ErrOwnerNotFound is returned by owner updates that match no row.
var ErrOwnerNotFound = eris.New("owner not found")

var propertyColumns = []string{
	"radar_id", "address", "city", "state", "zip_code", "county",
	"latitude", "longitude",
	"last_transfer_rec_date", "last_transfer_type", "last_transfer_value",
	"ptype", "advanced_type",
	"beds", "baths", "sqft", "lot_size_acres", "year_built", "has_pool",
	"avm", "available_equity",
	"is_same_mailing", "in_foreclosure", "in_tax_delinquency", "is_listed_for_sale",
	"last_fetched_at",
}

func propertyRow(p *model.Property) []any {
	return []any{
		p.RadarID, nullString(p.Address), nullString(p.City), nullString(p.State), nullString(p.ZipCode), nullString(p.County),
		nullable(p.Latitude), nullable(p.Longitude),
		nullString(p.LastTransferRecDate), nullString(p.LastTransferType), nullable(p.LastTransferValue),
		nullString(p.PType), nullString(p.AdvancedType),
		nullable(p.Beds), nullable(p.Baths), nullable(p.SqFt), nullable(p.LotSizeAcres), nullable(p.YearBuilt), nullable(p.HasPool),
		nullable(p.AVM), nullable(p.AvailableEquity),
		nullable(p.IsSameMailing), nullable(p.InForeclosure), nullable(p.InTaxDelinquency), nullable(p.IsListedForSale),
		p.LastFetchedAt.UTC(),
	}
}

// ownerColumns are written by ingest. Enrichment and verification fields are
// owned by the later stages and never touched here.
var ownerColumns = []string{
	"person_key", "radar_id",
	"first_name", "last_name", "entity_name", "person_type",
	"age", "gender", "occupation",
	"is_primary_contact", "ownership_role", "is_primary_residence",
	"original_phone", "original_email", "processing_status",
	"mail_street_address", "mail_city", "mail_state", "mail_zip_code",
	"updated_at",
}

func ownerRow(o *model.Owner, now time.Time) []any {
	return []any{
		o.PersonKey, o.RadarID,
		nullString(o.FirstName), nullString(o.LastName), nullString(o.EntityName), nullString(o.PersonType),
		nullable(o.Age), nullString(o.Gender), nullString(o.Occupation),
		nullable(o.IsPrimaryContact), nullString(o.OwnershipRole), o.IsPrimaryResidence,
		nullString(o.OriginalPhone), nullString(o.OriginalEmail), string(o.Status),
		nullString(o.MailStreet), nullString(o.MailCity), nullString(o.MailState), nullString(o.MailZip),
		now,
	}
}

// ownerSelect is the column list read back for stage processing, in the
// order scanned by scanOwner helpers.
const ownerSelect = `person_key, radar_id,
	COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(entity_name, ''), COALESCE(person_type, ''),
	age, COALESCE(gender, ''), COALESCE(occupation, ''),
	is_primary_contact, COALESCE(ownership_role, ''), is_primary_residence,
	COALESCE(original_phone, ''), COALESCE(original_email, ''), processing_status,
	COALESCE(mail_street_address, ''), COALESCE(mail_city, ''), COALESCE(mail_state, ''), COALESCE(mail_zip_code, ''),
	enriched_emails`

func validateOwners(owners []model.Owner) error {
	for i := range owners {
		if owners[i].PersonKey == "" {
			return eris.Errorf("store: owner %d has no person key", i)
		}
		if !owners[i].Status.IsValid() {
			return eris.Errorf("store: owner %s has invalid status %q", owners[i].PersonKey, owners[i].Status)
		}
	}
	return nil
}

// upsertStatement builds INSERT ... ON CONFLICT (key) DO UPDATE for a single
// row. placeholder returns the bind marker for the 1-based argument index.
func upsertStatement(table string, cols []string, key string, placeholder func(int) string) string {
	marks := make([]string, len(cols))
	var sets []string
	for i, c := range cols {
		marks[i] = placeholder(i + 1)
		if c != key {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "), key, strings.Join(sets, ", "),
	)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func statusStrings(statuses []model.ProcessingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
