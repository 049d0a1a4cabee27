package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashin-hq/inventory-cli/internal/flagging"
	"github.com/dashin-hq/inventory-cli/internal/model"
)

func TestImportCountsOutcomes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	importer := NewImporter(NewRepository(s), flagging.NewDetector(s))

	rows := []Row{
		{FullName: "Jane Smith", Company: "Acme", Email: "jane@acme.com"},
		{FullName: "Bob Jones", Company: "Globex"},
		{FullName: "jane smith", Company: "ACME", Email: "jane@acme.com"},
		{FullName: ""},
	}
	res, err := importer.Import(ctx, "t1", rows, ImportOptions{
		Source:    model.SourceCSVUpload,
		EventName: "Q3 upload",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.New)
	assert.Equal(t, 1, res.Merged)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Errored)
	assert.Equal(t, 2, res.WithEmail)
	assert.Equal(t, 1, res.NoEmail)
	assert.False(t, res.Cancelled)
}

func TestImportDetectsFlags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	importer := NewImporter(NewRepository(s), flagging.NewDetector(s))

	rows := []Row{
		{FullName: "Jane Smith", Company: "Acme", Email: "jane@gmail.com"},
		{FullName: "Bob Jones", Company: "Globex", Email: "bob@globex.com"},
	}
	res, err := importer.Import(ctx, "t1", rows, ImportOptions{
		Source:      model.SourceCSVUpload,
		DetectFlags: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Flagged)

	summary, err := s.FlagSummary(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ByType[model.FlagPersonalEmail].Count)
}

func TestImportReimportIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	importer := NewImporter(NewRepository(s), flagging.NewDetector(s))

	rows := []Row{{FullName: "Jane Smith", Company: "Acme", Email: "jane@acme.com"}}
	opts := ImportOptions{Source: model.SourceCSVUpload, DetectFlags: true}

	first, err := importer.Import(ctx, "t1", rows, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, first.New)

	second, err := importer.Import(ctx, "t1", rows, opts)
	require.NoError(t, err)
	assert.Zero(t, second.New)
	assert.Equal(t, 1, second.Merged)
	// Second pass raises the duplicate flag, once.
	assert.Equal(t, 1, second.Flagged)

	third, err := importer.Import(ctx, "t1", rows, opts)
	require.NoError(t, err)
	assert.Zero(t, third.Flagged)
}

func TestImportCancelStopsCleanly(t *testing.T) {
	s := newTestStore(t)
	importer := NewImporter(NewRepository(s), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := importer.Import(ctx, "t1", []Row{{FullName: "Jane Smith"}}, ImportOptions{Source: model.SourceCSVUpload})
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Zero(t, res.New)
}
