package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/samvad-hq/notion-records/pkg/notion"
	"github.com/samvad-hq/notion-records/pkg/publishers"
	"github.com/samvad-hq/notion-records/pkg/recordfile"
)

// fakeCreator hands out sequential page ids and can fail on a given title.
type fakeCreator struct {
	mu      sync.Mutex
	created []notion.Record
	failOn  string
}

func (f *fakeCreator) DatabaseID() string { return "db-1" }

func (f *fakeCreator) Create(_ context.Context, fields notion.Record) (notion.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fields["title"] == f.failOn {
		return nil, errors.New("boom")
	}
	f.created = append(f.created, fields)
	return notion.Record{"id": fmt.Sprintf("page-%d", len(f.created)), "properties": map[string]any(fields)}, nil
}

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	events []publishers.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.events = append(f.events, evt)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

// fakeLedger tracks keys in memory.
type fakeLedger struct {
	entries map[string]string
	failErr error
}

func (f *fakeLedger) Lookup(key string) (string, bool, error) {
	if f.failErr != nil {
		return "", false, f.failErr
	}
	id, ok := f.entries[key]
	return id, ok, nil
}

func (f *fakeLedger) Remember(key, pageID string) error {
	if f.entries == nil {
		f.entries = make(map[string]string)
	}
	f.entries[key] = pageID
	return nil
}

func entry(key, title string) recordfile.Entry {
	return recordfile.Entry{Key: key, Properties: map[string]any{"title": title}}
}

func TestServiceImportsFreshEntriesOnly(t *testing.T) {
	creator := &fakeCreator{}
	pub := &fakePublisher{}
	ledger := &fakeLedger{entries: map[string]string{"old": "page-old"}}

	svc := NewService(creator, pub, ledger, nil)
	res, err := svc.Run(context.Background(), []recordfile.Entry{entry("old", "Old"), entry("new", "New")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Created) != 1 || res.Created[0] != "page-1" {
		t.Fatalf("unexpected created %v", res.Created)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "page-old" {
		t.Fatalf("unexpected skipped %v", res.Skipped)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.Action != publishers.ActionCreated || evt.RecordID != "page-1" || evt.DatabaseID != "db-1" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if ledger.entries["new"] != "page-1" {
		t.Fatalf("Remember not called for new entry: %v", ledger.entries)
	}
}

func TestServiceCollectsEntryFailures(t *testing.T) {
	creator := &fakeCreator{failOn: "Bad"}
	svc := NewService(creator, nil, nil, nil)

	res, err := svc.Run(context.Background(), []recordfile.Entry{entry("a", "Bad"), entry("b", "Good")})
	if err == nil || !strings.Contains(err.Error(), "records[0]") {
		t.Fatalf("expected error naming records[0], got %v", err)
	}
	if res.Failed != 1 || len(res.Created) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestServiceIgnoresPublishAndLedgerFailures(t *testing.T) {
	creator := &fakeCreator{}
	pub := &fakePublisher{err: errors.New("sink down")}
	ledger := &fakeLedger{failErr: errors.New("ledger locked")}

	res, err := NewService(creator, pub, ledger, nil).Run(context.Background(), []recordfile.Entry{entry("", "A")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Created) != 1 || len(creator.created) != 1 {
		t.Fatalf("expected record to be created despite side failures, got %+v", res)
	}
}

func TestServiceStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	creator := &fakeCreator{}
	_, err := NewService(creator, nil, nil, nil).Run(ctx, []recordfile.Entry{entry("a", "A")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(creator.created) != 0 {
		t.Fatalf("no records should be created after cancel")
	}
}

func TestServiceRejectsEmptyInput(t *testing.T) {
	if _, err := NewService(&fakeCreator{}, nil, nil, nil).Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error when entries list empty")
	}
}
