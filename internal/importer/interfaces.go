package importer

import (
	"context"

	"github.com/samvad-hq/notion-records/pkg/notion"
	"github.com/samvad-hq/notion-records/pkg/publishers"
)

// RecordCreator creates records in the remote database.
type RecordCreator interface {
	DatabaseID() string
	Create(ctx context.Context, fields notion.Record) (notion.Record, error)
}

// EventPublisher publishes change events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Ledger remembers which entries were already imported.
type Ledger interface {
	Lookup(key string) (pageID string, ok bool, err error)
	Remember(key, pageID string) error
}
