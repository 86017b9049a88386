package audiofile

import (
	"context"
	"errors"
	"testing"

	"github.com/eleven-am/transcript-demo/internal/shared"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(setupTestDB(t))
	if err := store.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return store
}

func TestStore_Migrate(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	if err := store.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	var tables []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table'").Scan(&tables)
	found := false
	for _, table := range tables {
		if table == "audio_files" {
			found = true
			break
		}
	}
	if !found {
		t.Error("audio_files table should exist after migration")
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	f := &AudioFile{Name: "clip.mp3", URL: "/v1/files/x/content", Source: SourceUpload}
	if err := store.Create(ctx, f); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if f.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := store.GetByID(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Name != "clip.mp3" || got.Source != SourceUpload {
		t.Errorf("unexpected file: %+v", got)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SeedSamples(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.SeedSamples(ctx, DefaultSamples); err != nil {
		t.Fatalf("SeedSamples error: %v", err)
	}

	renamed := []Sample{{ID: "sample-1", Name: "Intro", URL: "https://example.com/intro.mp3"}}
	if err := store.SeedSamples(ctx, renamed); err != nil {
		t.Fatalf("second SeedSamples error: %v", err)
	}

	files, err := store.List(ctx, SourceSample)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(files) != len(DefaultSamples) {
		t.Fatalf("expected %d samples, got %d", len(DefaultSamples), len(files))
	}

	first, err := store.GetByID(ctx, "sample-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if first.Name != "Intro" || first.URL != "https://example.com/intro.mp3" {
		t.Errorf("expected upserted sample, got %+v", first)
	}
}

func TestStore_SeedSamples_Empty(t *testing.T) {
	store := setupTestStore(t)
	if err := store.SeedSamples(context.Background(), nil); err != nil {
		t.Errorf("expected nil error for empty seed, got %v", err)
	}
}

func TestStore_ListBySource(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_ = store.SeedSamples(ctx, DefaultSamples[:2])
	_ = store.Create(ctx, &AudioFile{ID: "upload-a", Name: "a.wav", URL: "/a", Source: SourceUpload})

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 files, got %d", len(all))
	}

	uploads, _ := store.List(ctx, SourceUpload)
	if len(uploads) != 1 || uploads[0].ID != "upload-a" {
		t.Errorf("unexpected uploads: %+v", uploads)
	}
}

func TestStore_First(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.First(ctx, SourceSample); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound on empty catalog, got %v", err)
	}

	_ = store.SeedSamples(ctx, DefaultSamples)
	f, err := store.First(ctx, SourceSample)
	if err != nil {
		t.Fatalf("First error: %v", err)
	}
	if f.ID != "sample-1" {
		t.Errorf("expected sample-1, got %s", f.ID)
	}
}

func TestStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_ = store.Create(ctx, &AudioFile{ID: "upload-b", Name: "b.ogg", URL: "/b", Source: SourceUpload})

	if err := store.Delete(ctx, "upload-b"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := store.Delete(ctx, "upload-b"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSource_Valid(t *testing.T) {
	tests := []struct {
		source Source
		want   bool
	}{
		{SourceSample, true},
		{SourceUpload, true},
		{SourceRemote, true},
		{"", false},
		{"ftp", false},
	}
	for _, tt := range tests {
		if got := tt.source.Valid(); got != tt.want {
			t.Errorf("Source(%q).Valid() = %v, want %v", tt.source, got, tt.want)
		}
	}
}
