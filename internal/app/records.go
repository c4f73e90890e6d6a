package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/notion-records/internal/config"
	"github.com/samvad-hq/notion-records/internal/importer"
	"github.com/samvad-hq/notion-records/internal/logger"
	"github.com/samvad-hq/notion-records/internal/storage"
	"github.com/samvad-hq/notion-records/pkg/httpclient"
	"github.com/samvad-hq/notion-records/pkg/notion"
	"github.com/samvad-hq/notion-records/pkg/publishers"
	"github.com/samvad-hq/notion-records/pkg/recordfile"
)

// RecordClient is the remote surface the runtime drives.
type RecordClient interface {
	DatabaseID() string
	FetchAll(ctx context.Context, pageSize int) ([]notion.Record, error)
	FetchPage(ctx context.Context, pageSize int, cursor string) (notion.Page, error)
	Create(ctx context.Context, fields notion.Record) (notion.Record, error)
	Update(ctx context.Context, id string, fields notion.Record) (notion.Record, error)
	SoftDelete(ctx context.Context, id string) (notion.Record, error)
}

// Records is the runtime behind the CLI. It wires the notion client with the
// import ledger and the change-event publishers.
type Records struct {
	cfg      *config.Config
	client   RecordClient
	fanout   *publishers.Fanout
	store    storage.Store
	importer *importer.Service
	log      logger.Logger
}

// NewRecords builds the runtime from config.
func NewRecords(ctx context.Context, cfg *config.Config, log logger.Logger) (*Records, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := notion.New(cfg.NotionToken, cfg.NotionDatabaseID,
		notion.WithBaseURL(cfg.NotionBaseURL),
		notion.WithVersion(cfg.NotionVersion),
		notion.WithMaxPages(cfg.MaxPages),
		notion.WithHTTPClient(httpclient.NewRestyClient(cfg.HTTPTimeout)),
		notion.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("init notion client: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		TTL:             cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.DebugObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"ttl_seconds":              int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return newRecords(cfg, client, fanout, store, log), nil
}

func newRecords(cfg *config.Config, client RecordClient, fanout *publishers.Fanout, store storage.Store, log logger.Logger) *Records {
	return &Records{
		cfg:      cfg,
		client:   client,
		fanout:   fanout,
		store:    store,
		importer: importer.NewService(client, fanout, store, log),
		log:      log,
	}
}

// buildFanout loads the publishers file; no file means no change events.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.DebugObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// List returns every record of the database.
func (r *Records) List(ctx context.Context, pageSize int) ([]notion.Record, error) {
	return r.client.FetchAll(ctx, r.pageSize(pageSize))
}

// ListPage returns one page of records starting at cursor.
func (r *Records) ListPage(ctx context.Context, pageSize int, cursor string) (notion.Page, error) {
	return r.client.FetchPage(ctx, r.pageSize(pageSize), cursor)
}

// Create adds a record and announces it.
func (r *Records) Create(ctx context.Context, fields notion.Record) (notion.Record, error) {
	created, err := r.client.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, publishers.ActionCreated, created)
	return created, nil
}

// Update merges fields into record id and announces the change.
func (r *Records) Update(ctx context.Context, id string, fields notion.Record) (notion.Record, error) {
	updated, err := r.client.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, publishers.ActionUpdated, updated)
	return updated, nil
}

// Archive soft-deletes record id and announces it.
func (r *Records) Archive(ctx context.Context, id string) (notion.Record, error) {
	archived, err := r.client.SoftDelete(ctx, id)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, publishers.ActionArchived, archived)
	return archived, nil
}

// Import creates the records of a record file that were not imported before.
func (r *Records) Import(ctx context.Context, path string) (importer.Result, error) {
	entries, err := recordfile.Load(path)
	if err != nil {
		return importer.Result{}, fmt.Errorf("load records file: %w", err)
	}
	return r.importer.Run(ctx, entries)
}

// Close releases the ledger and publisher connections.
func (r *Records) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if err := r.fanout.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publishers: %w", err))
	}
	return errors.Join(errs...)
}

func (r *Records) pageSize(n int) int {
	if n > 0 {
		return n
	}
	return r.cfg.PageSize
}

// publish fans the event out. Delivery failures are logged and never fail
// the mutation.
func (r *Records) publish(ctx context.Context, action publishers.Action, record notion.Record) {
	if r.fanout.Size() == 0 {
		return
	}
	evt := publishers.NewEvent(action, r.client.DatabaseID(), record)
	delivered, err := r.fanout.Publish(ctx, evt)
	if err != nil {
		r.log.ErrorObj("record event publish failed", "publish_error", map[string]any{
			"event_id":  evt.ID,
			"action":    string(action),
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	r.log.DebugObj("record event published", "publish_result", map[string]any{
		"event_id":  evt.ID,
		"action":    string(action),
		"delivered": delivered,
	})
}
