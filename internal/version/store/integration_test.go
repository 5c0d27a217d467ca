//go:build integration

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexdraft/internal/version/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/testutil/containers"
)

const ledgerSchema = `
	CREATE TABLE tenants (
	    id         UUID PRIMARY KEY,
	    name       TEXT NOT NULL,
	    status     TEXT NOT NULL,
	    created_at TIMESTAMPTZ NOT NULL,
	    updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE documents (
	    id                UUID PRIMARY KEY,
	    tenant_id         UUID NOT NULL REFERENCES tenants (id),
	    title             TEXT NOT NULL,
	    original_filename TEXT NOT NULL,
	    content_type      TEXT NOT NULL,
	    size_bytes        BIGINT NOT NULL,
	    page_count        INT NOT NULL DEFAULT 0,
	    status            TEXT NOT NULL,
	    created_by        UUID NOT NULL,
	    blob_key          TEXT NOT NULL,
	    created_at        TIMESTAMPTZ NOT NULL,
	    updated_at        TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE versions (
	    id             UUID PRIMARY KEY,
	    document_id    UUID NOT NULL REFERENCES documents (id),
	    number         INT NOT NULL,
	    author_id      UUID NOT NULL,
	    change_summary TEXT NOT NULL DEFAULT '',
	    content        TEXT NOT NULL,
	    content_sha256 TEXT NOT NULL,
	    source         TEXT NOT NULL,
	    created_at     TIMESTAMPTZ NOT NULL,
	    UNIQUE (document_id, number)
	);
`

func seedDocument(t *testing.T, pg *containers.PostgresContainer) id.DocumentID {
	t.Helper()
	ctx := context.Background()

	tenantID := id.NewTenantID()
	documentID := id.NewDocumentID()
	now := time.Now().UTC()

	_, err := pg.DB.ExecContext(ctx,
		`INSERT INTO tenants (id, name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
		uuid.UUID(tenantID), "Acme Legal", "active", now,
	)
	require.NoError(t, err)

	_, err = pg.DB.ExecContext(ctx,
		`INSERT INTO documents (id, tenant_id, title, original_filename, content_type, size_bytes, status, created_by, blob_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		uuid.UUID(documentID), uuid.UUID(tenantID), "MSA", "msa.txt", "text/plain", 42,
		"draft", uuid.UUID(id.NewUserID()), "blobs/msa", now,
	)
	require.NoError(t, err)

	return documentID
}

// Concurrent appends race for the next version number. The unique index
// rejects duplicates and losers retry, so committed entries must carry
// numbers that are unique and contiguous from one.
func TestAppendNumbersStayContiguousUnderRace(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	_, err := pg.DB.ExecContext(ctx, ledgerSchema)
	require.NoError(t, err)

	documentID := seedDocument(t, pg)
	store := NewPostgresStore(pg.DB)
	authorID := id.NewUserID()

	const writers = 4
	versions := make([]*models.Version, writers)
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			version, err := models.NewVersion(documentID, authorID, fmt.Sprintf("draft %d", i), "concurrent edit", models.SourceManual, time.Now())
			if err != nil {
				errs[i] = err
				return
			}
			versions[i] = version
			errs[i] = store.Append(ctx, version)
		}(i)
	}
	wg.Wait()

	// A writer that loses the race twice in a row surfaces the conflict;
	// everything that committed must still form an unbroken sequence.
	var numbers []int
	for i := 0; i < writers; i++ {
		if errs[i] == nil {
			numbers = append(numbers, versions[i].Number)
		}
	}
	require.NotEmpty(t, numbers)
	sort.Ints(numbers)
	for i, number := range numbers {
		assert.Equal(t, i+1, number)
	}

	listed, err := store.ListByDocument(ctx, documentID)
	require.NoError(t, err)
	assert.Len(t, listed, len(numbers))

	latest, err := store.FindLatest(ctx, documentID)
	require.NoError(t, err)
	assert.Equal(t, numbers[len(numbers)-1], latest.Number)
}
