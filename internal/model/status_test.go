package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessingStatusValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   ProcessingStatus
		want     string
		terminal bool
	}{
		{StatusPendingEnrichment, "pending_enrichment", false},
		{StatusPendingVerification, "pending_verification", false},
		{StatusPendingPostEnrichmentVerification, "pending_post_enrichment_verification", false},
		{StatusComplete, "complete", true},
		{StatusFailedEnrichment, "failed_enrichment", true},
		{StatusFailedVerification, "failed_verification", true},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.status))
			assert.True(t, tt.status.IsValid())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestProcessingStatus_Unknown(t *testing.T) {
	t.Parallel()

	s := ProcessingStatus("archived")
	assert.False(t, s.IsValid())
	assert.False(t, s.IsTerminal())
}

func TestAllStatuses_Valid(t *testing.T) {
	t.Parallel()

	all := AllStatuses()
	assert.Len(t, all, 6)
	for _, s := range all {
		assert.True(t, s.IsValid(), s)
	}
}

func TestInitialStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusPendingVerification, InitialStatus("jane@example.com"))
	assert.Equal(t, StatusPendingEnrichment, InitialStatus(""))
}

func TestStage_Selects(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []ProcessingStatus{StatusPendingEnrichment}, StageEnrich.Selects())
	assert.Equal(t, []ProcessingStatus{StatusPendingVerification, StatusPendingPostEnrichmentVerification}, StageVerify.Selects())
	assert.Nil(t, StageIngest.Selects())
	assert.Nil(t, Stage("bogus").Selects())
}

func TestStage_SelectsNeverTerminal(t *testing.T) {
	t.Parallel()

	for _, stage := range []Stage{StageIngest, StageEnrich, StageVerify} {
		for _, s := range stage.Selects() {
			assert.False(t, s.IsTerminal(), "%s selects terminal status %s", stage, s)
		}
	}
}

func TestStage_IsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, StageIngest.IsValid())
	assert.True(t, StageEnrich.IsValid())
	assert.True(t, StageVerify.IsValid())
	assert.False(t, Stage("export").IsValid())
}
