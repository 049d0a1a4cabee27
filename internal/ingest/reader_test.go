package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectColumns(t *testing.T) {
	cm := DetectColumns([]string{"Full Name", "ORGANIZATION", " email ", "Job Title", "LinkedIn URL", "Country"})
	assert.Equal(t, 0, cm.Name)
	assert.Equal(t, 1, cm.Company)
	assert.Equal(t, 2, cm.Email)
	assert.Equal(t, 3, cm.Title)
	assert.Equal(t, 4, cm.LinkedIn)
	assert.Equal(t, 5, cm.Country)
	assert.Equal(t, -1, cm.Phone)
	assert.True(t, cm.HasName())
}

func TestDetectColumnsNoName(t *testing.T) {
	cm := DetectColumns([]string{"company", "email"})
	assert.False(t, cm.HasName())
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Jane", Clean("  Jane  "))
	for _, junk := range []string{"nan", "NaN", "None", "N/A", "-", "—", "null", ""} {
		assert.Empty(t, Clean(junk), junk)
	}
}

func TestReadCSV(t *testing.T) {
	csvData := strings.Join([]string{
		"Name,Company,Email,Title",
		"Jane Smith,Acme GmbH,jane@acme.com,CTO",
		"Bob Jones,Globex,nan,VP Sales",
	}, "\n")

	rows, cm, err := ReadFile(context.Background(), "upload.csv", strings.NewReader(csvData))
	require.NoError(t, err)
	assert.True(t, cm.HasName())
	require.Len(t, rows, 2)

	assert.Equal(t, "Jane Smith", rows[0].FullName)
	assert.Equal(t, "Acme GmbH", rows[0].Company)
	assert.Equal(t, "jane@acme.com", rows[0].Email)
	assert.Equal(t, "CTO", rows[0].Title)

	// Junk cell values come through empty.
	assert.Empty(t, rows[1].Email)
	assert.Equal(t, "VP Sales", rows[1].Title)
}

func TestReadCSVShortRecord(t *testing.T) {
	csvData := "Name,Company,Email\nJane Smith,Acme"

	rows, _, err := ReadFile(context.Background(), "upload.csv", strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0].Company)
	assert.Empty(t, rows[0].Email)
}

func TestReadCSVNoNameColumn(t *testing.T) {
	_, _, err := ReadFile(context.Background(), "upload.csv", strings.NewReader("company,email\nAcme,a@b.com"))
	assert.ErrorIs(t, err, ErrNoNameColumn)
}

func TestReadCSVEmptyFile(t *testing.T) {
	_, _, err := ReadFile(context.Background(), "upload.csv", strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty file")
}

func TestReadCSVCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := ReadFile(ctx, "upload.csv", strings.NewReader("Name\nJane"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
