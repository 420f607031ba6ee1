package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

// RemoteResolver loads datasets over HTTP. Transient failures are retried
// inside the HTTP client; the resolver itself emits at most once and emits
// nothing when a source cannot be loaded.
type RemoteResolver struct {
	client  *resty.Client
	sources map[string]string // table name -> URL

	mu      sync.Mutex
	lastErr error
}

// NewRemoteResolver builds a resolver for the given name -> URL sources.
func NewRemoteResolver(sources map[string]string) *RemoteResolver {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 3
	retry.RetryWaitMin = 200 * time.Millisecond
	retry.RetryWaitMax = 2 * time.Second
	retry.Logger = nil

	return &RemoteResolver{
		client:  resty.NewWithClient(retry.StandardClient()),
		sources: sources,
	}
}

// Resolve fetches every source and emits one bundle on success.
func (r *RemoteResolver) Resolve(ctx context.Context) <-chan *Bundle {
	out := make(chan *Bundle, 1)
	go func() {
		defer close(out)
		bundle, err := r.fetchAll(ctx)
		if err != nil {
			r.mu.Lock()
			r.lastErr = err
			r.mu.Unlock()
			return
		}
		select {
		case out <- bundle:
		case <-ctx.Done():
		}
	}()
	return out
}

// Err returns the last fetch error, if any. Surfaced through session
// diagnostics; the lifecycle never sees it.
func (r *RemoteResolver) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *RemoteResolver) fetchAll(ctx context.Context) (*Bundle, error) {
	tables := make([]*Table, 0, len(r.sources))
	for name, url := range r.sources {
		table, err := r.fetchOne(ctx, name, url)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", name, err)
		}
		tables = append(tables, table)
	}
	return NewBundle(tables...)
}

func (r *RemoteResolver) fetchOne(ctx context.Context, name, url string) (*Table, error) {
	resp, err := r.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %s", resp.Status())
	}
	return decodeTable(name, resp.Body())
}

// decodeTable sniffs the payload type and decodes JSON or CSV into a table.
func decodeTable(name string, payload []byte) (*Table, error) {
	kind := mimetype.Detect(payload)
	switch {
	case kind.Is("application/json"):
		var doc struct {
			Columns []string `json:"columns"`
			Rows    [][]any  `json:"rows"`
		}
		if err := sonic.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return NewTable(name, doc.Columns, doc.Rows)
	case kind.Is("text/csv"), kind.Is("text/plain"):
		return decodeCSV(name, payload)
	default:
		return nil, fmt.Errorf("unsupported content type %s", kind.String())
	}
}

func decodeCSV(name string, payload []byte) (*Table, error) {
	records, err := csv.NewReader(strings.NewReader(string(payload))).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv payload has no header row")
	}
	columns := records[0]
	rows := make([][]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]any, len(record))
		for i, field := range record {
			row[i] = coerceField(field)
		}
		rows = append(rows, row)
	}
	return NewTable(name, columns, rows)
}

// coerceField converts numeric-looking CSV fields so filters can compare
// them numerically.
func coerceField(field string) any {
	if v, err := strconv.ParseFloat(field, 64); err == nil {
		return v
	}
	return field
}
