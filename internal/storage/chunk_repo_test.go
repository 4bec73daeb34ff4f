package storage

import (
	"context"
	"errors"
	"testing"
)

func createTestDocument(t *testing.T, repo *DocumentRepo, source string) *DocumentRecord {
	t.Helper()
	doc := &DocumentRecord{Source: source, Title: "Loan features", Hash: "hash", Pages: 2}
	if err := repo.Upsert(context.Background(), doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	return doc
}

func TestChunkRepo_InsertAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	doc := createTestDocument(t, NewDocumentRepo(db), "docs/loan.pdf")
	repo := NewChunkRepo(db)

	chunk := &ChunkRecord{
		ID:         "c1",
		DocumentID: doc.ID,
		ChunkIndex: 0,
		PageNumber: 2,
		Text:       "ผู้กู้ต้องมีสัญชาติไทย",
	}
	if err := repo.Insert(ctx, chunk); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if *got != *chunk {
		t.Errorf("GetByID() = %+v, want %+v", got, chunk)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestChunkRepo_ListAndDeleteByDocument(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	docs := NewDocumentRepo(db)
	docA := createTestDocument(t, docs, "a.pdf")
	docB := createTestDocument(t, docs, "b.pdf")
	repo := NewChunkRepo(db)

	// Inserted out of order to check chunk_index ordering
	for _, c := range []ChunkRecord{
		{ID: "a2", DocumentID: docA.ID, ChunkIndex: 2, PageNumber: 1, Text: "two"},
		{ID: "a0", DocumentID: docA.ID, ChunkIndex: 0, PageNumber: 1, Text: "zero"},
		{ID: "a1", DocumentID: docA.ID, ChunkIndex: 1, PageNumber: 1, Text: "one"},
		{ID: "b0", DocumentID: docB.ID, ChunkIndex: 0, PageNumber: 1, Text: "other"},
	} {
		c := c
		if err := repo.Insert(ctx, &c); err != nil {
			t.Fatalf("Insert(%s) error = %v", c.ID, err)
		}
	}

	ids, err := repo.ListIDsByDocument(ctx, docA.ID)
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	want := []string{"a0", "a1", "a2"}
	if len(ids) != len(want) {
		t.Fatalf("ListIDsByDocument() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ListIDsByDocument()[%d] = %s, want %s", i, ids[i], want[i])
		}
	}

	if err := repo.DeleteByDocument(ctx, docA.ID); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}
	ids, err = repo.ListIDsByDocument(ctx, docA.ID)
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	if ids == nil || len(ids) != 0 {
		t.Errorf("ListIDsByDocument() after delete = %#v, want empty slice", ids)
	}

	n, err := repo.CountAll(ctx)
	if err != nil {
		t.Fatalf("CountAll() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountAll() = %d, want 1", n)
	}
}

func TestChunkRepo_CascadeOnDocumentDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	docs := NewDocumentRepo(db)
	doc := createTestDocument(t, docs, "loan.pdf")
	repo := NewChunkRepo(db)

	if err := repo.Insert(ctx, &ChunkRecord{ID: "c1", DocumentID: doc.ID, Text: "x"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := docs.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := repo.GetByID(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("chunk survived document delete, err = %v", err)
	}
}

func TestChunkRepo_InsertUnknownDocument(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepo(db)

	err := repo.Insert(context.Background(), &ChunkRecord{ID: "c1", DocumentID: "nope", Text: "x"})
	if err == nil {
		t.Error("Insert() with unknown document should fail on the foreign key")
	}
}
