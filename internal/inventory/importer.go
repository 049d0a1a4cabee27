package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dashin-hq/inventory-cli/internal/enrich"
	"github.com/dashin-hq/inventory-cli/internal/flagging"
	"github.com/dashin-hq/inventory-cli/internal/model"
)

// Row is one semantically-resolved input record, ready to upsert.
type Row struct {
	FullName string
	Company  string
	Title    string
	Persona  string
	Email    string
	Phone    string
	LinkedIn string
	Country  string
	Industry string
}

// ImportOptions configure one batch run.
type ImportOptions struct {
	Source     model.SourceType
	EventName  string
	EventURL   string
	Category   string
	EnrichedBy string
	// DetectFlags runs the quality chain on every upserted lead.
	DetectFlags bool
}

// ImportResult sums up a batch. Row failures are isolated: one bad row
// never aborts the batch.
type ImportResult struct {
	New       int      `json:"new"`
	Merged    int      `json:"merged"`
	Skipped   int      `json:"skipped"`
	Errored   int      `json:"errored"`
	WithEmail int      `json:"with_email"`
	NoEmail   int      `json:"no_email"`
	Flagged   int      `json:"flagged"`
	Cancelled bool     `json:"cancelled"`
	Errors    []string `json:"errors,omitempty"`
}

// Importer drives batches of rows through the upsert protocol, one
// shared import session per batch.
type Importer struct {
	repo     *Repository
	detector *flagging.Detector
}

// NewImporter creates an Importer. detector may be nil when flag
// detection is never requested.
func NewImporter(repo *Repository, detector *flagging.Detector) *Importer {
	return &Importer{repo: repo, detector: detector}
}

// Import upserts every row. Rows are committed one at a time, so a
// cancel between rows keeps everything already written and stops
// cleanly.
func (im *Importer) Import(ctx context.Context, tenantID string, rows []Row, opts ImportOptions) (*ImportResult, error) {
	sessionID := fmt.Sprintf("import-%d", time.Now().UnixNano())
	res := &ImportResult{}

	var lists flagging.Lists
	if opts.DetectFlags && im.detector != nil {
		var err error
		lists, err = im.detector.LoadLists(ctx, tenantID)
		if err != nil {
			return nil, err
		}
	}

	for i, row := range rows {
		if ctx.Err() != nil {
			res.Cancelled = true
			zap.L().Info("import cancelled",
				zap.Int("processed", i),
				zap.Int("total", len(rows)))
			break
		}

		out, err := im.repo.Upsert(ctx, tenantID, UpsertInput{
			FullName: row.FullName,
			Company:  row.Company,
			Title:    row.Title,
			Persona:  row.Persona,
			Source:   opts.Source,
			Enrichment: enrich.Update{
				Email:       row.Email,
				Phone:       row.Phone,
				LinkedInURL: row.LinkedIn,
				Country:     row.Country,
				Industry:    row.Industry,
			},
			EnrichedBy: opts.EnrichedBy,
			Appearance: Appearance{
				EventName: opts.EventName,
				EventURL:  opts.EventURL,
				Category:  opts.Category,
				SessionID: sessionID,
			},
		})
		if errors.Is(err, ErrSkippedRow) {
			res.Skipped++
			continue
		}
		if err != nil {
			res.Errored++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d (%s): %v", i+1, row.FullName, err))
			zap.L().Warn("row upsert failed",
				zap.Int("row", i+1),
				zap.String("name", row.FullName),
				zap.Error(err))
			continue
		}

		if out.WasNew {
			res.New++
		} else {
			res.Merged++
		}
		if out.HasEmail {
			res.WithEmail++
		} else {
			res.NoEmail++
		}

		if opts.DetectFlags && im.detector != nil {
			lead, lerr := im.repo.store.GetLead(ctx, tenantID, out.LeadID)
			if lerr != nil {
				zap.L().Warn("flag detection skipped, lead reload failed",
					zap.String("lead_id", out.LeadID),
					zap.Error(lerr))
				continue
			}
			flags := im.detector.Detect(ctx, lead, row.Email, row.Company, lists)
			res.Flagged += len(flags)
		}
	}
	return res, nil
}
