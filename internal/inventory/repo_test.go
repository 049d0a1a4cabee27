package inventory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dashin-hq/inventory-cli/internal/enrich"
	"github.com/dashin-hq/inventory-cli/internal/model"
	"github.com/dashin-hq/inventory-cli/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// racingStore simulates losing the insert race: every create first
// writes the competing winner's row, then reports ErrDuplicate to the
// caller, the way a second process beating us to the unique index
// would look.
type racingStore struct {
	store.Store
	companyRaces int
	leadRaces    int
}

func (s *racingStore) CreateCompany(ctx context.Context, c *model.Company) error {
	winner := *c
	winner.ID = uuid.New().String()
	if err := s.Store.CreateCompany(ctx, &winner); err != nil {
		return err
	}
	s.companyRaces++
	return store.ErrDuplicate
}

func (s *racingStore) CreateLead(ctx context.Context, l *model.Lead) error {
	winner := *l
	winner.ID = uuid.New().String()
	if err := s.Store.CreateLead(ctx, &winner); err != nil {
		return err
	}
	s.leadRaces++
	return store.ErrDuplicate
}

func TestUpsertLostRaceFallsIntoMergePath(t *testing.T) {
	inner := newTestStore(t)
	racing := &racingStore{Store: inner}
	ctx := context.Background()
	repo := NewRepository(racing)

	res, err := repo.Upsert(ctx, "t1", UpsertInput{
		FullName:   "Jane Smith",
		Company:    "Acme GmbH",
		Source:     model.SourceEvent,
		Enrichment: enrich.Update{Email: "jane@acme.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, racing.companyRaces)
	assert.Equal(t, 1, racing.leadRaces)

	// The loser adopts the winner's rows instead of erroring out.
	assert.False(t, res.WasNew)
	winnerCo, err := inner.GetCompanyByKey(ctx, "t1", "acmegmbh")
	require.NoError(t, err)
	require.NotNil(t, winnerCo)
	assert.Equal(t, winnerCo.ID, res.CompanyID)

	lead, err := inner.GetLead(ctx, "t1", res.LeadID)
	require.NoError(t, err)
	assert.Equal(t, winnerCo.ID, lead.CompanyID)

	// The merge path ran: the winner's row records the re-sighting and
	// the enrichment landed on it.
	assert.Equal(t, 2, lead.TimesSeen)
	e, err := inner.GetEnrichment(ctx, res.LeadID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "jane@acme.com", e.Email)
}

func TestUpsertCreatesLeadAndCompany(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := NewRepository(s)

	res, err := repo.Upsert(ctx, "t1", UpsertInput{
		FullName:   "Jane Smith",
		Company:    "Acme GmbH",
		Title:      "CTO",
		Source:     model.SourceEvent,
		Enrichment: enrich.Update{Email: "jane@acme.com"},
		EnrichedBy: "ana",
		Appearance: Appearance{EventName: "SaaS Summit"},
	})
	require.NoError(t, err)
	assert.True(t, res.WasNew)
	assert.True(t, res.HasEmail)
	require.NotEmpty(t, res.CompanyID)

	lead, err := s.GetLead(ctx, "t1", res.LeadID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusEnriched, lead.Status)
	assert.Equal(t, 1, lead.TimesSeen)
	assert.Equal(t, res.CompanyID, lead.CompanyID)

	co, err := s.GetCompany(ctx, "t1", res.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, "Acme GmbH", co.Name)

	e, err := s.GetEnrichment(ctx, res.LeadID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "jane@acme.com", e.Email)
	assert.Equal(t, "ana", e.EnrichedBy)

	n, err := s.CountAppearances(ctx, res.LeadID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertDedupsMessySpellings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := NewRepository(s)

	first, err := repo.Upsert(ctx, "t1", UpsertInput{
		FullName: "Dr. Jane Smith", Company: "Acme GmbH", Source: model.SourceEvent,
	})
	require.NoError(t, err)
	require.True(t, first.WasNew)

	second, err := repo.Upsert(ctx, "t1", UpsertInput{
		FullName: "jane smith", Company: "ACME Gmbh", Source: model.SourceDirectory,
	})
	require.NoError(t, err)
	assert.False(t, second.WasNew)
	assert.Equal(t, first.LeadID, second.LeadID)
	assert.Equal(t, first.CompanyID, second.CompanyID)

	lead, err := s.GetLead(ctx, "t1", first.LeadID)
	require.NoError(t, err)
	assert.Equal(t, 2, lead.TimesSeen)
	// First-write-wins: the display name stays the first spelling.
	assert.Equal(t, "Dr. Jane Smith", lead.FullName)

	n, err := s.CountAppearances(ctx, first.LeadID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpsertSameNameDifferentCompany(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := NewRepository(s)

	a, err := repo.Upsert(ctx, "t1", UpsertInput{FullName: "Jane Smith", Company: "Acme", Source: model.SourceEvent})
	require.NoError(t, err)
	b, err := repo.Upsert(ctx, "t1", UpsertInput{FullName: "Jane Smith", Company: "Globex", Source: model.SourceEvent})
	require.NoError(t, err)

	assert.NotEqual(t, a.LeadID, b.LeadID)
}

func TestUpsertMergesEnrichmentNonDestructively(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := NewRepository(s)

	first, err := repo.Upsert(ctx, "t1", UpsertInput{
		FullName: "Jane Smith", Company: "Acme", Source: model.SourceCSVUpload,
		Enrichment: enrich.Update{Email: "jane@acme.com", Country: "Germany"},
		EnrichedBy: "ana",
	})
	require.NoError(t, err)

	_, err = repo.Upsert(ctx, "t1", UpsertInput{
		FullName: "Jane Smith", Company: "Acme", Source: model.SourceCSVUpload,
		Enrichment: enrich.Update{Email: "different@other.com", Phone: "+49 30 1234"},
		EnrichedBy: "bob",
	})
	require.NoError(t, err)

	e, err := s.GetEnrichment(ctx, first.LeadID)
	require.NoError(t, err)
	// Existing email survives; the empty phone slot is filled.
	assert.Equal(t, "jane@acme.com", e.Email)
	assert.Equal(t, "+49 30 1234", e.Phone)
	assert.Equal(t, "Germany", e.Country)
	assert.Equal(t, "bob", e.EnrichedBy)
}

func TestUpsertStatusLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := NewRepository(s)

	t.Run("CSVWithoutEmailIsNoEmail", func(t *testing.T) {
		res, err := repo.Upsert(ctx, "t1", UpsertInput{
			FullName: "Bob Jones", Company: "Acme", Source: model.SourceCSVUpload,
		})
		require.NoError(t, err)
		lead, err := s.GetLead(ctx, "t1", res.LeadID)
		require.NoError(t, err)
		assert.Equal(t, model.LeadStatusNoEmail, lead.Status)
	})

	t.Run("EventSightingIsNew", func(t *testing.T) {
		res, err := repo.Upsert(ctx, "t1", UpsertInput{
			FullName: "Ana Lopez", Company: "Acme", Source: model.SourceEvent,
		})
		require.NoError(t, err)
		lead, err := s.GetLead(ctx, "t1", res.LeadID)
		require.NoError(t, err)
		assert.Equal(t, model.LeadStatusNew, lead.Status)
	})

	t.Run("FirstEmailAutoAdvances", func(t *testing.T) {
		res, err := repo.Upsert(ctx, "t1", UpsertInput{
			FullName: "Carl White", Company: "Acme", Source: model.SourceCSVUpload,
		})
		require.NoError(t, err)

		_, err = repo.Upsert(ctx, "t1", UpsertInput{
			FullName: "Carl White", Company: "Acme", Source: model.SourceCSVUpload,
			Enrichment: enrich.Update{Email: "carl@acme.com"},
		})
		require.NoError(t, err)

		lead, err := s.GetLead(ctx, "t1", res.LeadID)
		require.NoError(t, err)
		assert.Equal(t, model.LeadStatusEnriched, lead.Status)
	})

	t.Run("UsedLeadNeverMovedByResighting", func(t *testing.T) {
		res, err := repo.Upsert(ctx, "t1", UpsertInput{
			FullName: "Dana Green", Company: "Acme", Source: model.SourceEvent,
			Enrichment: enrich.Update{Email: "dana@acme.com"},
		})
		require.NoError(t, err)
		require.NoError(t, s.UpdateLeadStatus(ctx, "t1", res.LeadID, model.LeadStatusUsed))

		_, err = repo.Upsert(ctx, "t1", UpsertInput{
			FullName: "Dana Green", Company: "Acme", Source: model.SourceEvent,
			Enrichment: enrich.Update{Email: "dana@acme.com"},
		})
		require.NoError(t, err)

		lead, err := s.GetLead(ctx, "t1", res.LeadID)
		require.NoError(t, err)
		assert.Equal(t, model.LeadStatusUsed, lead.Status)
		assert.Equal(t, 2, lead.TimesSeen)
	})
}

func TestUpsertTenantIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := NewRepository(s)

	a, err := repo.Upsert(ctx, "t1", UpsertInput{FullName: "Jane Smith", Company: "Acme", Source: model.SourceEvent})
	require.NoError(t, err)
	b, err := repo.Upsert(ctx, "t2", UpsertInput{FullName: "Jane Smith", Company: "Acme", Source: model.SourceEvent})
	require.NoError(t, err)

	assert.True(t, b.WasNew)
	assert.NotEqual(t, a.LeadID, b.LeadID)
	assert.NotEqual(t, a.CompanyID, b.CompanyID)
}

func TestUpsertRejectsBadInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := NewRepository(s)

	_, err := repo.Upsert(ctx, "", UpsertInput{FullName: "Jane Smith", Source: model.SourceEvent})
	assert.ErrorIs(t, err, store.ErrMissingTenant)

	_, err = repo.Upsert(ctx, "t1", UpsertInput{FullName: "", Source: model.SourceEvent})
	assert.ErrorIs(t, err, ErrSkippedRow)

	// A name that normalizes to nothing cannot produce a dedup key.
	_, err = repo.Upsert(ctx, "t1", UpsertInput{FullName: "Dr.", Source: model.SourceEvent})
	assert.ErrorIs(t, err, ErrSkippedRow)
}

func TestUpsertInvalidEmailDoesNotAdvance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := NewRepository(s)

	res, err := repo.Upsert(ctx, "t1", UpsertInput{
		FullName: "Jane Smith", Company: "Acme", Source: model.SourceCSVUpload,
		Enrichment: enrich.Update{Email: "not-an-email"},
	})
	require.NoError(t, err)
	assert.False(t, res.HasEmail)

	lead, err := s.GetLead(ctx, "t1", res.LeadID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusNoEmail, lead.Status)
}

func TestEditEnrichmentOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := NewRepository(s)

	res, err := repo.Upsert(ctx, "t1", UpsertInput{
		FullName: "Jane Smith", Company: "Acme", Source: model.SourceCSVUpload,
		Enrichment: enrich.Update{Email: "old@acme.com"},
	})
	require.NoError(t, err)

	require.NoError(t, repo.EditEnrichment(ctx, "t1", res.LeadID, enrich.Update{Email: "new@acme.com"}, "manager"))

	e, err := s.GetEnrichment(ctx, res.LeadID)
	require.NoError(t, err)
	assert.Equal(t, "new@acme.com", e.Email)
	assert.Equal(t, "manager", e.EnrichedBy)
}

func TestRejectLead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := NewRepository(s)

	res, err := repo.Upsert(ctx, "t1", UpsertInput{
		FullName: "Jane Smith", Company: "Acme", Source: model.SourceEvent,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Reject(ctx, "t1", res.LeadID, model.RejectWrongPersona, "too junior", "ana"))

	lead, err := s.GetLead(ctx, "t1", res.LeadID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusRejected, lead.Status)
}

func TestRejectUsedLeadRefused(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := NewRepository(s)

	res, err := repo.Upsert(ctx, "t1", UpsertInput{
		FullName: "Jane Smith", Company: "Acme", Source: model.SourceEvent,
	})
	require.NoError(t, err)
	require.NoError(t, s.UpdateLeadStatus(ctx, "t1", res.LeadID, model.LeadStatusUsed))

	err = repo.Reject(ctx, "t1", res.LeadID, model.RejectOther, "", "ana")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot reject")
}
