package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fency/outreach-pipeline/internal/model"
	"github.com/fency/outreach-pipeline/pkg/propertyradar"
)

// IngestSummary counts what one ingest pass did.
type IngestSummary struct {
	Items      int
	Properties int
	Owners     int
	Skipped    int
	Failed     int
}

// RunIngest reads one page of items from the configured list and stores
// each property with its owners. It runs once and returns. An empty list is
// not an error.
func (p *Pipeline) RunIngest(ctx context.Context) (*IngestSummary, error) {
	listID := p.cfg.PropertyRadar.ListID
	limit := p.cfg.PropertyRadar.IngestBatchLimit
	log := zap.L().With(zap.String("stage", string(model.StageIngest)), zap.String("list_id", listID))

	summary := &IngestSummary{}
	run := p.startStageRun(ctx, model.StageIngest)
	defer func() { p.finishStageRun(ctx, run, summary.Properties, summary.Failed) }()

	items, err := p.deps.PropertyRadar.ListItems(ctx, listID, 0, limit)
	if err != nil {
		return summary, eris.Wrap(err, "ingest: list items")
	}
	if len(items) == 0 {
		log.Info("ingest: list is empty, nothing to do")
		return summary, nil
	}
	summary.Items = len(items)
	log.Info("ingest: starting", zap.Int("batch_size", len(items)))

	pacer := newPacer(p.cfg.Worker.IngestPace())
	for _, item := range items {
		radarID := item.RadarID.String()
		if radarID == "" {
			log.Warn("ingest: item has no radar id, skipping")
			summary.Skipped++
			continue
		}
		if err := pacer.Wait(ctx); err != nil {
			return summary, nil
		}

		n, err := p.IngestProperty(ctx, radarID)
		if err != nil {
			summary.Failed++
			log.Error("ingest: property failed", zap.String("radar_id", radarID), zap.Error(err))
			continue
		}
		summary.Properties++
		summary.Owners += n
	}

	log.Info("ingest: complete",
		zap.Int("properties", summary.Properties),
		zap.Int("owners", summary.Owners),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// IngestProperty fetches one property and its persons and upserts them. Owners
// are only written once the property row exists. It returns the number of
// owners written.
func (p *Pipeline) IngestProperty(ctx context.Context, radarID string) (int, error) {
	prop, err := p.deps.PropertyRadar.GetProperty(ctx, radarID)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: get property %s", radarID)
	}

	now := time.Now().UTC()
	rec := PropertyFromRadar(prop, now)
	if rec.RadarID == "" {
		rec.RadarID = radarID
	}
	if err := p.deps.Store.UpsertProperty(ctx, rec); err != nil {
		return 0, eris.Wrapf(err, "ingest: upsert property %s", radarID)
	}

	persons, err := p.deps.PropertyRadar.GetPersons(ctx, radarID)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: get persons %s", radarID)
	}

	owners := OwnersFromRadar(persons, rec.RadarID)
	if len(owners) == 0 {
		zap.L().Info("ingest: no owners for property", zap.String("radar_id", radarID))
		return 0, nil
	}
	if _, err := p.deps.Store.UpsertOwners(ctx, owners); err != nil {
		return 0, eris.Wrapf(err, "ingest: upsert owners %s", radarID)
	}
	return len(owners), nil
}

// PropertyFromRadar maps a provider property onto the stored snapshot.
func PropertyFromRadar(src *propertyradar.Property, fetchedAt time.Time) *model.Property {
	return &model.Property{
		RadarID:             src.RadarID.String(),
		Address:             src.Address,
		City:                src.City,
		State:               src.State,
		ZipCode:             src.ZipFive.String(),
		County:              src.County,
		Latitude:            src.Latitude.Ptr(),
		Longitude:           src.Longitude.Ptr(),
		LastTransferRecDate: src.LastTransferRecDate.String(),
		LastTransferType:    src.LastTransferType,
		LastTransferValue:   src.LastTransferValue.Ptr(),
		PType:               src.PType,
		AdvancedType:        src.AdvancedPropertyType,
		Beds:                src.Beds.Ptr(),
		Baths:               src.Baths.Ptr(),
		SqFt:                src.SqFt.Ptr(),
		LotSizeAcres:        src.LotSizeAcres.Ptr(),
		YearBuilt:           src.YearBuilt.IntPtr(),
		HasPool:             src.Pool.Ptr(),
		AVM:                 src.AVM.Ptr(),
		AvailableEquity:     src.AvailableEquity.Ptr(),
		IsSameMailing:       src.IsSameMailing.Ptr(),
		InForeclosure:       src.InForeclosure.Ptr(),
		InTaxDelinquency:    src.InTaxDelinquency.Ptr(),
		IsListedForSale:     src.IsListedForSale.Ptr(),
		LastFetchedAt:       fetchedAt,
	}
}

// OwnersFromRadar maps provider persons onto owner records for a property.
// Persons without a PersonKey are dropped.
func OwnersFromRadar(persons []propertyradar.Person, radarID string) []model.Owner {
	owners := make([]model.Owner, 0, len(persons))
	for _, person := range persons {
		key := person.PersonKey.String()
		if key == "" {
			zap.L().Warn("ingest: person has no person key, skipping", zap.String("radar_id", radarID))
			continue
		}

		email := person.Email.String()
		addr := ParseMailAddress(person.FirstMailAddress())

		var age *int
		if a := person.Age.String(); isDigits(a) {
			if n, err := strconv.Atoi(a); err == nil {
				age = &n
			}
		}

		owners = append(owners, model.Owner{
			PersonKey:          key,
			RadarID:            radarID,
			FirstName:          person.FirstName,
			LastName:           person.LastName,
			EntityName:         person.EntityName,
			PersonType:         person.PersonType,
			Age:                age,
			Gender:             person.Gender,
			Occupation:         person.Occupation,
			IsPrimaryContact:   person.IsPrimaryContact.Ptr(),
			OwnershipRole:      person.OwnershipRole,
			IsPrimaryResidence: person.HasPrimaryResidence(),
			OriginalPhone:      person.PhoneJSON(),
			OriginalEmail:      email,
			Status:             model.InitialStatus(email),
			MailStreet:         deref(addr.Street),
			MailCity:           deref(addr.City),
			MailState:          deref(addr.State),
			MailZip:            deref(addr.Zip),
		})
	}
	return owners
}
