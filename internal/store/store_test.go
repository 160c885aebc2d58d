package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fency/outreach-pipeline/internal/model"
)

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

func TestUpsertStatement(t *testing.T) {
	got := upsertStatement("owners", []string{"person_key", "first_name", "age"}, "person_key", pgPlaceholder)
	assert.Equal(t,
		"INSERT INTO owners (person_key, first_name, age) VALUES ($1, $2, $3) ON CONFLICT (person_key) DO UPDATE SET first_name = excluded.first_name, age = excluded.age",
		got,
	)

	got = upsertStatement("owners", []string{"person_key", "age"}, "person_key", sqlitePlaceholder)
	assert.Equal(t, "INSERT INTO owners (person_key, age) VALUES (?, ?) ON CONFLICT (person_key) DO UPDATE SET age = excluded.age", got)
}

func TestOwnerRow_NullsEmptyFields(t *testing.T) {
	o := model.Owner{PersonKey: "K1", RadarID: "P1", Status: model.StatusPendingEnrichment}
	row := ownerRow(&o, testProperty("P1").LastFetchedAt)

	assert.Len(t, row, len(ownerColumns))
	assert.Equal(t, "K1", row[0])
	assert.Nil(t, row[2], "first_name")
	assert.Nil(t, row[6], "age")
	assert.Nil(t, row[9], "is_primary_contact")
	assert.Equal(t, false, row[11], "is_primary_residence")
	assert.Equal(t, "pending_enrichment", row[14])
}

func TestPropertyRow_Shape(t *testing.T) {
	row := propertyRow(testProperty("P1"))
	assert.Len(t, row, len(propertyColumns))
	assert.Equal(t, "P1", row[0])
	assert.Equal(t, 3.0, row[13], "beds")
	assert.Equal(t, 1962, row[17], "year_built")
	assert.Equal(t, false, row[18], "has_pool")
	assert.Nil(t, row[19], "avm")
}
