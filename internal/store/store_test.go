package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dashin-hq/inventory-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedLead(t *testing.T, s Store, tenantID, name, nameKey, companyID string) *model.Lead {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	l := &model.Lead{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		FullName:    name,
		NameKey:     nameKey,
		CompanyID:   companyID,
		Persona:     "Unknown",
		Status:      model.LeadStatusNew,
		SourceType:  model.SourceEvent,
		TimesSeen:   1,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
	require.NoError(t, s.CreateLead(context.Background(), l))
	return l
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CompanyRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		c := &model.Company{
			ID:        uuid.New().String(),
			TenantID:  "t1",
			Name:      "Acme GmbH",
			NameKey:   "acmegmbh",
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, s.CreateCompany(ctx, c))

		got, err := s.GetCompanyByKey(ctx, "t1", "acmegmbh")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, c.ID, got.ID)
		assert.Equal(t, "Acme GmbH", got.Name)

		byID, err := s.GetCompany(ctx, "t1", c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme GmbH", byID.Name)
	})

	t.Run("CompanyDuplicateKey", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first := &model.Company{ID: uuid.New().String(), TenantID: "t1", Name: "Acme", NameKey: "acme", CreatedAt: time.Now().UTC()}
		require.NoError(t, s.CreateCompany(ctx, first))

		dup := &model.Company{ID: uuid.New().String(), TenantID: "t1", Name: "ACME", NameKey: "acme", CreatedAt: time.Now().UTC()}
		err := s.CreateCompany(ctx, dup)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("CompanyKeyIsTenantScoped", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a := &model.Company{ID: uuid.New().String(), TenantID: "t1", Name: "Acme", NameKey: "acme", CreatedAt: time.Now().UTC()}
		b := &model.Company{ID: uuid.New().String(), TenantID: "t2", Name: "Acme", NameKey: "acme", CreatedAt: time.Now().UTC()}
		require.NoError(t, s.CreateCompany(ctx, a))
		require.NoError(t, s.CreateCompany(ctx, b))

		got, err := s.GetCompanyByKey(ctx, "t2", "acme")
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
	})

	t.Run("RenameCompany", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		c := &model.Company{ID: uuid.New().String(), TenantID: "t1", Name: "acme inc", NameKey: "acmeinc", CreatedAt: time.Now().UTC()}
		require.NoError(t, s.CreateCompany(ctx, c))
		require.NoError(t, s.RenameCompany(ctx, "t1", c.ID, "Acme Inc."))

		got, err := s.GetCompany(ctx, "t1", c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme Inc.", got.Name)

		err = s.RenameCompany(ctx, "t1", "missing", "x")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("MissingTenantRejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetCompanyByKey(ctx, "", "acme")
		assert.ErrorIs(t, err, ErrMissingTenant)

		_, err = s.GetLeadByKey(ctx, "", "key", "")
		assert.ErrorIs(t, err, ErrMissingTenant)

		err = s.CreateLead(ctx, &model.Lead{ID: uuid.New().String()})
		assert.ErrorIs(t, err, ErrMissingTenant)

		_, err = s.MappingKeys(ctx, "", model.MappingDomainWhitelist)
		assert.ErrorIs(t, err, ErrMissingTenant)
	})

	t.Run("LeadRoundTripAndDuplicate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		l := seedLead(t, s, "t1", "Jane Smith", "janesmithacme", "")

		got, err := s.GetLeadByKey(ctx, "t1", "janesmithacme", "")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, l.ID, got.ID)
		assert.Equal(t, 1, got.TimesSeen)

		dup := *l
		dup.ID = uuid.New().String()
		err = s.CreateLead(ctx, &dup)
		assert.ErrorIs(t, err, ErrDuplicate)

		miss, err := s.GetLeadByKey(ctx, "t1", "nobody", "")
		require.NoError(t, err)
		assert.Nil(t, miss)

		_, err = s.GetLead(ctx, "t1", "missing-id")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SameKeyDifferentCompanyAllowed", func(t *testing.T) {
		s := newStore(t)

		seedLead(t, s, "t1", "Jane Smith", "janesmith", "co-a")
		seedLead(t, s, "t1", "Jane Smith", "janesmith", "co-b")
	})

	t.Run("RecordSighting", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		l := seedLead(t, s, "t1", "Jane Smith", "janesmithacme", "")
		seenAt := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
		require.NoError(t, s.RecordSighting(ctx, l.ID, seenAt, model.LeadStatusEnriched))

		got, err := s.GetLead(ctx, "t1", l.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.TimesSeen)
		assert.Equal(t, model.LeadStatusEnriched, got.Status)
		assert.WithinDuration(t, seenAt, got.LastSeenAt, time.Second)
		assert.WithinDuration(t, l.FirstSeenAt, got.FirstSeenAt, time.Second)

		err = s.RecordSighting(ctx, "missing", seenAt, model.LeadStatusNew)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateLeadStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		l := seedLead(t, s, "t1", "Jane Smith", "janesmithacme", "")
		require.NoError(t, s.UpdateLeadStatus(ctx, "t1", l.ID, model.LeadStatusUsed))

		got, err := s.GetLead(ctx, "t1", l.ID)
		require.NoError(t, err)
		assert.Equal(t, model.LeadStatusUsed, got.Status)

		// Wrong tenant never updates another tenant's lead.
		err = s.UpdateLeadStatus(ctx, "t2", l.ID, model.LeadStatusArchived)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("AppearancesAccumulate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		l := seedLead(t, s, "t1", "Jane Smith", "janesmithacme", "")
		for i := 0; i < 3; i++ {
			require.NoError(t, s.AddAppearance(ctx, &model.LeadAppearance{
				ID:        uuid.New().String(),
				LeadID:    l.ID,
				EventName: "SaaS Summit",
				SessionID: "import-1",
				SeenAt:    time.Now().UTC(),
			}))
		}
		n, err := s.CountAppearances(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("EnrichmentRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		l := seedLead(t, s, "t1", "Jane Smith", "janesmithacme", "")

		miss, err := s.GetEnrichment(ctx, l.ID)
		require.NoError(t, err)
		assert.Nil(t, miss)

		e := &model.Enrichment{
			LeadID:       l.ID,
			Email:        "jane@acme.com",
			Country:      "Germany",
			EnrichedBy:   "ana",
			EnrichedAt:   time.Now().UTC().Truncate(time.Second),
			MinutesSpent: 2.5,
		}
		require.NoError(t, s.PutEnrichment(ctx, e))

		got, err := s.GetEnrichment(ctx, l.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "jane@acme.com", got.Email)
		assert.Equal(t, 2.5, got.MinutesSpent)

		e.Phone = "+49 30 1234"
		require.NoError(t, s.PutEnrichment(ctx, e))
		got, err = s.GetEnrichment(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, "+49 30 1234", got.Phone)
		assert.Equal(t, "jane@acme.com", got.Email)
	})

	t.Run("UsageIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		l := seedLead(t, s, "t1", "Jane Smith", "janesmithacme", "")

		first := &model.LeadUsage{ID: uuid.New().String(), LeadID: l.ID, ClientID: "client-a", CampaignID: "q3", UsedAt: time.Now().UTC()}
		inserted, err := s.InsertUsage(ctx, first)
		require.NoError(t, err)
		assert.True(t, inserted)

		again := &model.LeadUsage{ID: uuid.New().String(), LeadID: l.ID, ClientID: "client-a", CampaignID: "q3", UsedAt: time.Now().UTC()}
		inserted, err = s.InsertUsage(ctx, again)
		require.NoError(t, err)
		assert.False(t, inserted)

		// Same lead for a different client is a fresh row.
		other := &model.LeadUsage{ID: uuid.New().String(), LeadID: l.ID, ClientID: "client-b", CampaignID: "q3", UsedAt: time.Now().UTC()}
		inserted, err = s.InsertUsage(ctx, other)
		require.NoError(t, err)
		assert.True(t, inserted)

		used, err := s.UsedLeadIDs(ctx, "client-a", []string{l.ID, "unused"})
		require.NoError(t, err)
		assert.True(t, used[l.ID])
		assert.False(t, used["unused"])
	})

	t.Run("FlagInsertIfAbsent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		l := seedLead(t, s, "t1", "Jane Smith", "janesmithacme", "")

		f := &model.LeadFlag{
			ID:          uuid.New().String(),
			LeadID:      l.ID,
			TenantID:    "t1",
			Type:        model.FlagPersonalEmail,
			Severity:    model.SeverityWarning,
			Detail:      "personal email provider: gmail.com",
			AutoFlagged: true,
			FlaggedAt:   time.Now().UTC(),
		}
		inserted, err := s.InsertFlag(ctx, f)
		require.NoError(t, err)
		assert.True(t, inserted)

		dup := *f
		dup.ID = uuid.New().String()
		inserted, err = s.InsertFlag(ctx, &dup)
		require.NoError(t, err)
		assert.False(t, inserted)

		got, err := s.GetFlag(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, model.FlagPersonalEmail, got.Type)
		assert.False(t, got.Resolved)
	})

	t.Run("ResolveFlag", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		l := seedLead(t, s, "t1", "Jane Smith", "janesmithacme", "")
		f := &model.LeadFlag{
			ID: uuid.New().String(), LeadID: l.ID, TenantID: "t1",
			Type: model.FlagDomainMismatch, Severity: model.SeverityWarning,
			Detail: "email domain acme.io does not match company", FlaggedAt: time.Now().UTC(),
		}
		_, err := s.InsertFlag(ctx, f)
		require.NoError(t, err)

		at := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, s.MarkFlagResolved(ctx, f.ID, "manager", "verified manually", at))

		got, err := s.GetFlag(ctx, f.ID)
		require.NoError(t, err)
		assert.True(t, got.Resolved)
		assert.Equal(t, "manager", got.ResolvedBy)
		assert.Equal(t, "verified manually", got.ResolutionNote)
		assert.WithinDuration(t, at, got.ResolvedAt, time.Second)

		err = s.MarkFlagResolved(ctx, "missing", "x", "", at)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListUnresolvedFlags", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		co := &model.Company{ID: uuid.New().String(), TenantID: "t1", Name: "Acme", NameKey: "acme", CreatedAt: time.Now().UTC()}
		require.NoError(t, s.CreateCompany(ctx, co))
		l := seedLead(t, s, "t1", "Jane Smith", "janesmithacme", co.ID)
		require.NoError(t, s.PutEnrichment(ctx, &model.Enrichment{LeadID: l.ID, Email: "jane@gmail.com"}))

		warning := &model.LeadFlag{
			ID: uuid.New().String(), LeadID: l.ID, TenantID: "t1",
			Type: model.FlagPersonalEmail, Severity: model.SeverityWarning, FlaggedAt: time.Now().UTC(),
		}
		critical := &model.LeadFlag{
			ID: uuid.New().String(), LeadID: l.ID, TenantID: "t1",
			Type: model.FlagInvalidEmailFormat, Severity: model.SeverityCritical, FlaggedAt: time.Now().UTC(),
		}
		resolved := &model.LeadFlag{
			ID: uuid.New().String(), LeadID: l.ID, TenantID: "t1",
			Type: model.FlagDuplicate, Severity: model.SeverityWarning, FlaggedAt: time.Now().UTC(),
		}
		for _, f := range []*model.LeadFlag{warning, critical, resolved} {
			_, err := s.InsertFlag(ctx, f)
			require.NoError(t, err)
		}
		require.NoError(t, s.MarkFlagResolved(ctx, resolved.ID, "manager", "", time.Now().UTC()))

		entries, err := s.ListUnresolvedFlags(ctx, "t1", "")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		// "warning" sorts after "critical" lexically, DESC puts it first.
		assert.Equal(t, model.SeverityWarning, entries[0].Severity)
		assert.Equal(t, "Jane Smith", entries[0].LeadName)
		assert.Equal(t, "Acme", entries[0].CompanyName)
		assert.Equal(t, "jane@gmail.com", entries[0].Email)

		byLead, err := s.ListUnresolvedFlags(ctx, "t1", l.ID)
		require.NoError(t, err)
		assert.Len(t, byLead, 2)

		none, err := s.ListUnresolvedFlags(ctx, "t1", "other-lead")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("FlagSummary", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		l1 := seedLead(t, s, "t1", "Jane Smith", "janesmith", "")
		l2 := seedLead(t, s, "t1", "Bob Jones", "bobjones", "")

		for _, f := range []*model.LeadFlag{
			{ID: uuid.New().String(), LeadID: l1.ID, TenantID: "t1", Type: model.FlagPersonalEmail, Severity: model.SeverityWarning, FlaggedAt: time.Now().UTC()},
			{ID: uuid.New().String(), LeadID: l2.ID, TenantID: "t1", Type: model.FlagPersonalEmail, Severity: model.SeverityWarning, FlaggedAt: time.Now().UTC()},
			{ID: uuid.New().String(), LeadID: l1.ID, TenantID: "t1", Type: model.FlagInvalidEmailFormat, Severity: model.SeverityCritical, FlaggedAt: time.Now().UTC()},
		} {
			_, err := s.InsertFlag(ctx, f)
			require.NoError(t, err)
		}

		summary, err := s.FlagSummary(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, 3, summary.Total)
		assert.Equal(t, 2, summary.ByType[model.FlagPersonalEmail].Count)
		assert.Equal(t, model.SeverityCritical, summary.ByType[model.FlagInvalidEmailFormat].Severity)

		empty, err := s.FlagSummary(ctx, "t2")
		require.NoError(t, err)
		assert.Zero(t, empty.Total)
	})

	t.Run("MappingsTenantAndGlobal", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		global := &model.LearnedMapping{
			ID: uuid.New().String(), TenantID: "", Type: model.MappingDomainWhitelist,
			Key: "consultancy.io", Value: "whitelisted_by_manager", Confidence: 1.0, UsageCount: 1, CreatedAt: time.Now().UTC(),
		}
		scoped := &model.LearnedMapping{
			ID: uuid.New().String(), TenantID: "t1", Type: model.MappingDomainWhitelist,
			Key: "acme.io", Value: "whitelisted_by_manager", Confidence: 1.0, UsageCount: 1, CreatedAt: time.Now().UTC(),
		}
		for _, m := range []*model.LearnedMapping{global, scoped} {
			inserted, err := s.InsertMapping(ctx, m)
			require.NoError(t, err)
			assert.True(t, inserted)
		}

		// t1 sees its own mapping plus the global one.
		keys, err := s.MappingKeys(ctx, "t1", model.MappingDomainWhitelist)
		require.NoError(t, err)
		assert.True(t, keys["acme.io"])
		assert.True(t, keys["consultancy.io"])

		// t2 sees only the global one.
		keys, err = s.MappingKeys(ctx, "t2", model.MappingDomainWhitelist)
		require.NoError(t, err)
		assert.False(t, keys["acme.io"])
		assert.True(t, keys["consultancy.io"])

		got, err := s.LookupMapping(ctx, "t1", model.MappingDomainWhitelist, "acme.io")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "t1", got.TenantID)

		miss, err := s.LookupMapping(ctx, "t1", model.MappingDomainBlacklist, "acme.io")
		require.NoError(t, err)
		assert.Nil(t, miss)

		dup := *scoped
		dup.ID = uuid.New().String()
		inserted, err := s.InsertMapping(ctx, &dup)
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	t.Run("TenantMappingWinsOverGlobal", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, m := range []*model.LearnedMapping{
			{ID: uuid.New().String(), TenantID: "", Type: model.MappingDomainWhitelist, Key: "shared.io", Value: "global", Confidence: 1.0, UsageCount: 1, CreatedAt: time.Now().UTC()},
			{ID: uuid.New().String(), TenantID: "t1", Type: model.MappingDomainWhitelist, Key: "shared.io", Value: "tenant", Confidence: 1.0, UsageCount: 1, CreatedAt: time.Now().UTC()},
		} {
			_, err := s.InsertMapping(ctx, m)
			require.NoError(t, err)
		}

		got, err := s.LookupMapping(ctx, "t1", model.MappingDomainWhitelist, "shared.io")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "tenant", got.Value)
	})

	t.Run("LearningEvents", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddLearningEvent(ctx, &model.LearningEvent{
			ID: uuid.New().String(), TenantID: "t1",
			EventType: "flag_dismissed", EntityType: "lead", EntityID: "lead-1",
			OldValue: "personal_email", NewValue: "whitelisted:acme.io",
			TriggeredBy: "manager", CreatedAt: time.Now().UTC(),
		}))
	})

	t.Run("Rejections", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		l := seedLead(t, s, "t1", "Jane Smith", "janesmithacme", "")
		require.NoError(t, s.InsertRejection(ctx, &model.Rejection{
			ID: uuid.New().String(), LeadID: l.ID,
			Reason: model.RejectWrongPersona, Note: "too junior",
			RejectedBy: "ana", RejectedAt: time.Now().UTC(),
		}))
	})

	t.Run("ExportLeads", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		co := &model.Company{ID: uuid.New().String(), TenantID: "t1", Name: "Acme", NameKey: "acme", CreatedAt: time.Now().UTC()}
		require.NoError(t, s.CreateCompany(ctx, co))
		withEmail := seedLead(t, s, "t1", "Jane Smith", "janesmith", co.ID)
		noEmail := seedLead(t, s, "t1", "Bob Jones", "bobjones", "")
		require.NoError(t, s.PutEnrichment(ctx, &model.Enrichment{LeadID: withEmail.ID, Email: "jane@acme.com", Country: "Germany"}))
		_, err := s.InsertFlag(ctx, &model.LeadFlag{
			ID: uuid.New().String(), LeadID: withEmail.ID, TenantID: "t1",
			Type: model.FlagDomainMismatch, Severity: model.SeverityWarning, FlaggedAt: time.Now().UTC(),
		})
		require.NoError(t, err)

		records, err := s.ExportLeads(ctx, "t1", nil)
		require.NoError(t, err)
		require.Len(t, records, 2)

		// Sorted by name: Bob before Jane.
		assert.Equal(t, "Bob Jones", records[0].FullName)
		assert.False(t, records[0].HasEmail)
		assert.Empty(t, records[0].OpenFlags)

		assert.Equal(t, "Jane Smith", records[1].FullName)
		assert.Equal(t, "Acme", records[1].Company)
		assert.Equal(t, "jane@acme.com", records[1].Email)
		assert.True(t, records[1].HasEmail)
		assert.Equal(t, []string{"domain_mismatch"}, records[1].OpenFlags)

		subset, err := s.ExportLeads(ctx, "t1", []string{noEmail.ID})
		require.NoError(t, err)
		require.Len(t, subset, 1)
		assert.Equal(t, noEmail.ID, subset[0].LeadID)

		// Rejected leads drop out of the tenant-wide export but can
		// still be pulled by explicit id.
		require.NoError(t, s.UpdateLeadStatus(ctx, "t1", noEmail.ID, model.LeadStatusRejected))
		all, err := s.ExportLeads(ctx, "t1", nil)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, withEmail.ID, all[0].LeadID)

		explicit, err := s.ExportLeads(ctx, "t1", []string{noEmail.ID})
		require.NoError(t, err)
		require.Len(t, explicit, 1)
	})

	t.Run("ListLeadDetails", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		co := &model.Company{ID: uuid.New().String(), TenantID: "t1", Name: "Acme", NameKey: "acme", CreatedAt: time.Now().UTC()}
		require.NoError(t, s.CreateCompany(ctx, co))
		l := seedLead(t, s, "t1", "Jane Smith", "janesmith", co.ID)
		require.NoError(t, s.PutEnrichment(ctx, &model.Enrichment{LeadID: l.ID, Email: "jane@acme.com"}))
		seedLead(t, s, "t2", "Other Tenant", "othertenant", "")

		details, err := s.ListLeadDetails(ctx, "t1")
		require.NoError(t, err)
		require.Len(t, details, 1)
		assert.Equal(t, "jane@acme.com", details[0].Email)
		assert.Equal(t, "Acme", details[0].CompanyName)
	})

	t.Run("LeadNames", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		l := seedLead(t, s, "t1", "Jane Smith", "janesmith", "")
		names, err := s.LeadNames(ctx, "t1", []string{l.ID, "missing"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{l.ID: "Jane Smith"}, names)
	})
}
