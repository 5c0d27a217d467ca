package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	id "lexdraft/pkg/domain"
)

const documentsIndex = "lexdraft_documents"

type meiliRecord struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// Meili implements Index via Meilisearch. A background loop tracks health
// so the composite can route queries away while it is down.
type Meili struct {
	client  meili.ServiceManager
	logger  *slog.Logger
	healthy atomic.Bool
	done    chan struct{}
}

func NewMeili(url, apiKey string, logger *slog.Logger) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))
	m := &Meili{
		client: client,
		logger: logger,
		done:   make(chan struct{}),
	}
	if _, err := client.Health(); err != nil {
		logger.Warn("meilisearch unavailable", "url", url, "error", err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}
	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        documentsIndex,
		PrimaryKey: "id",
	}); err != nil {
		m.logger.Debug("create search index", "error", err)
	}
	index := m.client.Index(documentsIndex)
	filterable := []interface{}{"tenant_id"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.logger.Warn("update filterable attributes", "error", err)
	}
	searchable := []string{"title", "body"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.logger.Warn("update searchable attributes", "error", err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.logger.Info("meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

func (m *Meili) Upsert(_ context.Context, record Record) error {
	doc := meiliRecord{
		ID:       record.DocumentID.String(),
		TenantID: record.TenantID.String(),
		Title:    record.Title,
		Body:     record.Body,
	}
	if _, err := m.client.Index(documentsIndex).AddDocuments([]meiliRecord{doc}, nil); err != nil {
		return fmt.Errorf("meilisearch index document: %w", err)
	}
	return nil
}

func (m *Meili) Delete(_ context.Context, documentID id.DocumentID) error {
	if _, err := m.client.Index(documentsIndex).DeleteDocument(documentID.String(), nil); err != nil {
		return fmt.Errorf("meilisearch delete document: %w", err)
	}
	return nil
}

func (m *Meili) Search(_ context.Context, tenantID id.TenantID, text string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	resp, err := m.client.Index(documentsIndex).Search(text, &meili.SearchRequest{
		Limit:                 int64(limit),
		Filter:                fmt.Sprintf("tenant_id = %q", tenantID.String()),
		AttributesToCrop:      []string{"body"},
		CropLength:            30,
		AttributesToHighlight: []string{"title", "body"},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	hits := make([]Hit, 0, len(resp.Hits))
	for _, raw := range resp.Hits {
		hit, err := decodeHit(raw)
		if err != nil {
			continue
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func decodeHit(raw meili.Hit) (Hit, error) {
	var rec struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Formatted struct {
			Body string `json:"body"`
		} `json:"_formatted"`
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return Hit{}, err
	}
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Hit{}, err
	}
	documentID, err := id.ParseDocumentID(rec.ID)
	if err != nil {
		return Hit{}, err
	}
	return Hit{DocumentID: documentID, Title: rec.Title, Snippet: rec.Formatted.Body}, nil
}
