package docstore_test

import (
	"fmt"
	"testing"

	"github.com/GeddesWorks/quotes/internal/app/docstore"
	"github.com/GeddesWorks/quotes/internal/app/docstore/memstore"
	"github.com/GeddesWorks/quotes/internal/testutil"
)

func TestListAll_DrainsMultiplePages(t *testing.T) {
	store := memstore.New()
	ctx := testutil.TestContext(t)

	// Two and a half pages plus documents the filter must exclude.
	total := docstore.PageSize*2 + 37
	for i := 0; i < total; i++ {
		fields := map[string]any{"group_id": "g1", "n": i}
		if err := store.Create(ctx, "quotes", fmt.Sprintf("q%04d", i), fields, nil); err != nil {
			t.Fatalf("seed doc %d: %v", i, err)
		}
	}
	if err := store.Create(ctx, "quotes", "other", map[string]any{"group_id": "g2"}, nil); err != nil {
		t.Fatalf("seed other-group doc: %v", err)
	}

	docs, err := docstore.ListAll(ctx, store, "quotes", []docstore.Filter{
		docstore.Eq("group_id", "g1"),
	})
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(docs) != total {
		t.Errorf("drained %d documents, want %d", len(docs), total)
	}
	for _, d := range docs {
		if d.Fields["group_id"] != "g1" {
			t.Fatalf("filter leaked document %s from another group", d.ID)
		}
	}
}

func TestListAll_ExactPageBoundary(t *testing.T) {
	store := memstore.New()
	ctx := testutil.TestContext(t)

	for i := 0; i < docstore.PageSize; i++ {
		if err := store.Create(ctx, "quotes", fmt.Sprintf("q%04d", i), map[string]any{"group_id": "g1"}, nil); err != nil {
			t.Fatalf("seed doc %d: %v", i, err)
		}
	}

	docs, err := docstore.ListAll(ctx, store, "quotes", []docstore.Filter{
		docstore.Eq("group_id", "g1"),
	})
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(docs) != docstore.PageSize {
		t.Errorf("drained %d documents, want %d", len(docs), docstore.PageSize)
	}
}

func TestListAll_Empty(t *testing.T) {
	store := memstore.New()
	ctx := testutil.TestContext(t)

	docs, err := docstore.ListAll(ctx, store, "quotes", nil)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("empty collection returned %d documents", len(docs))
	}
}
