package model

import "time"

// Property is a snapshot of one provider property, keyed by RadarID.
// Nil pointers are stored as NULL.
type Property struct {
	RadarID             string    `json:"radar_id"`
	Address             string    `json:"address,omitempty"`
	City                string    `json:"city,omitempty"`
	State               string    `json:"state,omitempty"`
	ZipCode             string    `json:"zip_code,omitempty"`
	County              string    `json:"county,omitempty"`
	Latitude            *float64  `json:"latitude,omitempty"`
	Longitude           *float64  `json:"longitude,omitempty"`
	LastTransferRecDate string    `json:"last_transfer_rec_date,omitempty"`
	LastTransferType    string    `json:"last_transfer_type,omitempty"`
	LastTransferValue   *float64  `json:"last_transfer_value,omitempty"`
	PType               string    `json:"ptype,omitempty"`
	AdvancedType        string    `json:"advanced_type,omitempty"`
	Beds                *float64  `json:"beds,omitempty"`
	Baths               *float64  `json:"baths,omitempty"`
	SqFt                *float64  `json:"sqft,omitempty"`
	LotSizeAcres        *float64  `json:"lot_size_acres,omitempty"`
	YearBuilt           *int      `json:"year_built,omitempty"`
	HasPool             *bool     `json:"has_pool,omitempty"`
	AVM                 *float64  `json:"avm,omitempty"`
	AvailableEquity     *float64  `json:"available_equity,omitempty"`
	IsSameMailing       *bool     `json:"is_same_mailing,omitempty"`
	InForeclosure       *bool     `json:"in_foreclosure,omitempty"`
	InTaxDelinquency    *bool     `json:"in_tax_delinquency,omitempty"`
	IsListedForSale     *bool     `json:"is_listed_for_sale,omitempty"`
	LastFetchedAt       time.Time `json:"last_fetched_at"`
}

// Owner is a person attached to a property and the unit of enrichment and
// verification. Empty strings are stored as NULL.
type Owner struct {
	PersonKey          string           `json:"person_key"`
	RadarID            string           `json:"radar_id"`
	FirstName          string           `json:"first_name,omitempty"`
	LastName           string           `json:"last_name,omitempty"`
	EntityName         string           `json:"entity_name,omitempty"`
	PersonType         string           `json:"person_type,omitempty"`
	Age                *int             `json:"age,omitempty"`
	Gender             string           `json:"gender,omitempty"`
	Occupation         string           `json:"occupation,omitempty"`
	IsPrimaryContact   *bool            `json:"is_primary_contact,omitempty"`
	OwnershipRole      string           `json:"ownership_role,omitempty"`
	IsPrimaryResidence bool             `json:"is_primary_residence"`
	OriginalPhone      string           `json:"original_phone,omitempty"`
	OriginalEmail      string           `json:"original_email,omitempty"`
	Status             ProcessingStatus `json:"processing_status"`
	MailStreet         string           `json:"mail_street_address,omitempty"`
	MailCity           string           `json:"mail_city,omitempty"`
	MailState          string           `json:"mail_state,omitempty"`
	MailZip            string           `json:"mail_zip_code,omitempty"`
	EnrichedEmails     []string         `json:"enriched_emails,omitempty"`
}

// StageRun records one worker invocation.
type StageRun struct {
	ID         string     `json:"id"`
	Stage      Stage      `json:"stage"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Processed  int        `json:"processed"`
	Failed     int        `json:"failed"`
}
