// Package search indexes document text for full-text queries. Meilisearch
// serves queries when configured and healthy; Postgres full-text search is
// the fallback so search never disappears entirely.
package search

import (
	"context"
	"sort"
	"strings"
	"sync"

	id "lexdraft/pkg/domain"
)

// Record is the data indexed per document. Body is the latest ledger
// content, not the uploaded binary.
type Record struct {
	DocumentID id.DocumentID `json:"document_id"`
	TenantID   id.TenantID   `json:"tenant_id"`
	Title      string        `json:"title"`
	Body       string        `json:"body"`
}

// Hit is a single search result.
type Hit struct {
	DocumentID id.DocumentID `json:"document_id"`
	Title      string        `json:"title"`
	Snippet    string        `json:"snippet"`
}

// Index can upsert, delete, and query document records. Queries are always
// tenant-filtered; there is no cross-tenant search.
type Index interface {
	Upsert(ctx context.Context, record Record) error
	Delete(ctx context.Context, documentID id.DocumentID) error
	Search(ctx context.Context, tenantID id.TenantID, text string, limit int) ([]Hit, error)
}

// Composite writes to both backends and queries Meilisearch while it is
// healthy. With no Meilisearch configured it degrades to Postgres alone.
type Composite struct {
	meili    *Meili
	fallback Index
}

func NewComposite(meili *Meili, fallback Index) *Composite {
	return &Composite{meili: meili, fallback: fallback}
}

func (c *Composite) Upsert(ctx context.Context, record Record) error {
	if err := c.fallback.Upsert(ctx, record); err != nil {
		return err
	}
	if c.meili != nil && c.meili.Healthy() {
		return c.meili.Upsert(ctx, record)
	}
	return nil
}

func (c *Composite) Delete(ctx context.Context, documentID id.DocumentID) error {
	if err := c.fallback.Delete(ctx, documentID); err != nil {
		return err
	}
	if c.meili != nil && c.meili.Healthy() {
		return c.meili.Delete(ctx, documentID)
	}
	return nil
}

func (c *Composite) Search(ctx context.Context, tenantID id.TenantID, text string, limit int) ([]Hit, error) {
	if c.meili != nil && c.meili.Healthy() {
		hits, err := c.meili.Search(ctx, tenantID, text, limit)
		if err == nil {
			return hits, nil
		}
	}
	return c.fallback.Search(ctx, tenantID, text, limit)
}

// MemoryIndex is a substring-matching index for unit tests.
type MemoryIndex struct {
	mu      sync.RWMutex
	records map[id.DocumentID]Record
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{records: make(map[id.DocumentID]Record)}
}

func (m *MemoryIndex) Upsert(_ context.Context, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.DocumentID] = record
	return nil
}

func (m *MemoryIndex) Delete(_ context.Context, documentID id.DocumentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, documentID)
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, tenantID id.TenantID, text string, limit int) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	needle := strings.ToLower(strings.TrimSpace(text))
	var hits []Hit
	for _, record := range m.records {
		if record.TenantID != tenantID {
			continue
		}
		if needle == "" {
			continue
		}
		if strings.Contains(strings.ToLower(record.Title), needle) || strings.Contains(strings.ToLower(record.Body), needle) {
			hits = append(hits, Hit{
				DocumentID: record.DocumentID,
				Title:      record.Title,
				Snippet:    snippet(record.Body, needle),
			})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Title < hits[j].Title })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func snippet(body, needle string) string {
	idx := strings.Index(strings.ToLower(body), needle)
	if idx < 0 {
		return truncate(body, 120)
	}
	start := idx - 40
	if start < 0 {
		start = 0
	}
	return truncate(body[start:], 120)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
