// Package importer creates records from a record file, skipping entries the
// ledger already knows about.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/notion-records/internal/logger"
	"github.com/samvad-hq/notion-records/pkg/notion"
	"github.com/samvad-hq/notion-records/pkg/publishers"
	"github.com/samvad-hq/notion-records/pkg/recordfile"
)

// Result summarizes one import run.
type Result struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
	Failed  int      `json:"failed"`
}

// Service imports record files one entry at a time.
type Service struct {
	creator   RecordCreator
	publisher EventPublisher
	ledger    Ledger
	log       logger.Logger
}

// NewService wires an importer. publisher and ledger may be nil.
func NewService(creator RecordCreator, publisher EventPublisher, ledger Ledger, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{
		creator:   creator,
		publisher: publisher,
		ledger:    ledger,
		log:       log,
	}
}

// Run imports entries sequentially. Failures of single entries are collected
// and returned joined; the remaining entries are still processed. A cancelled
// context stops the run.
func (s *Service) Run(ctx context.Context, entries []recordfile.Entry) (Result, error) {
	var res Result
	if s == nil || s.creator == nil {
		return res, fmt.Errorf("importer service is not initialized")
	}
	if len(entries) == 0 {
		return res, fmt.Errorf("no records to import")
	}

	var errs []error
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		pageID, created, err := s.importEntry(ctx, entry)
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("records[%d]: %w", i, err))
			s.log.ErrorObj("record import failed", "import_error", map[string]any{
				"index": i,
				"key":   entry.Key,
				"error": err.Error(),
			})
			continue
		}
		if created {
			res.Created = append(res.Created, pageID)
		} else {
			res.Skipped = append(res.Skipped, pageID)
		}
	}

	s.log.InfoObj("record import completed", "import_result", map[string]any{
		"database_id": s.creator.DatabaseID(),
		"created":     len(res.Created),
		"skipped":     len(res.Skipped),
		"failed":      res.Failed,
	})
	return res, errors.Join(errs...)
}

func (s *Service) importEntry(ctx context.Context, entry recordfile.Entry) (string, bool, error) {
	key, err := entry.DedupKey()
	if err != nil {
		return "", false, err
	}

	if s.ledger != nil {
		pageID, ok, err := s.ledger.Lookup(key)
		if err != nil {
			// Lookup failures fall through to a create.
			s.log.WarnObj("import ledger lookup failed", "import_ledger_error", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
		} else if ok {
			s.log.DebugObj("record already imported", "import_skip", map[string]any{
				"key":     key,
				"page_id": pageID,
			})
			return pageID, false, nil
		}
	}

	created, err := s.creator.Create(ctx, notion.Record(entry.Properties))
	if err != nil {
		return "", false, err
	}
	pageID, _ := created["id"].(string)

	if s.ledger != nil {
		if err := s.ledger.Remember(key, pageID); err != nil {
			s.log.WarnObj("import ledger write failed", "import_ledger_error", map[string]any{
				"key":     key,
				"page_id": pageID,
				"error":   err.Error(),
			})
		}
	}

	if s.publisher != nil {
		evt := publishers.NewEvent(publishers.ActionCreated, s.creator.DatabaseID(), created)
		if _, err := s.publisher.Publish(ctx, evt); err != nil {
			s.log.WarnObj("record event publish failed", "publish_error", map[string]any{
				"event_id": evt.ID,
				"page_id":  pageID,
				"error":    err.Error(),
			})
		}
	}

	return pageID, true, nil
}
