package sqlite_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"feedpress/internal/domain/entity"
	"feedpress/internal/infra/adapter/persistence/sqlite"
)

func entryRow(entries ...*entity.Entry) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "feed_id", "key", "title", "url", "author", "summary",
		"content", "ai_summary", "published_at", "updated_at", "read", "created_at",
	})
	for _, entry := range entries {
		rows.AddRow(
			entry.ID, entry.FeedID, entry.Key, entry.Title, entry.URL,
			entry.Author, entry.Summary, entry.Content, entry.AISummary,
			entry.PublishedAt, entry.UpdatedAt, entry.Read, entry.CreatedAt,
		)
	}
	return rows
}

func sampleEntry(id int64) *entity.Entry {
	published := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return &entity.Entry{
		ID:          id,
		FeedID:      1,
		Key:         entity.EntryKey("https://go.dev/blog/post", "A Post", published),
		Title:       "A Post",
		URL:         "https://go.dev/blog/post",
		Author:      "The Go Team",
		Summary:     "An announcement.",
		PublishedAt: published,
		CreatedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestEntryRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	want := sampleEntry(5)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs(int64(5)).
		WillReturnRows(entryRow(want))

	repo := sqlite.NewEntryRepo(db)
	got, err := repo.Get(context.Background(), 5)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Get mismatch (-want +got):\n%s", diff)
	}
}

func TestEntryRepo_ListSince(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	cutoff := time.Date(2025, 5, 25, 0, 0, 0, 0, time.UTC)
	want := sampleEntry(5)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE published_at >= ?")).
		WithArgs(cutoff, 100).
		WillReturnRows(entryRow(want))

	repo := sqlite.NewEntryRepo(db)
	got, err := repo.ListSince(context.Background(), cutoff, 100)
	if err != nil {
		t.Fatalf("ListSince err=%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
}

func TestEntryRepo_ExistsByKeyBatch(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	keys := []string{"k1", "k2", "k3"}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT key FROM entries WHERE feed_id = ? AND key IN (?, ?, ?)")).
		WithArgs(int64(1), "k1", "k2", "k3").
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("k1").AddRow("k3"))

	repo := sqlite.NewEntryRepo(db)
	got, err := repo.ExistsByKeyBatch(context.Background(), 1, keys)
	if err != nil {
		t.Fatalf("ExistsByKeyBatch err=%v", err)
	}

	want := map[string]bool{"k1": true, "k3": true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExistsByKeyBatch mismatch (-want +got):\n%s", diff)
	}
}

func TestEntryRepo_ExistsByKeyBatch_EmptyKeys(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	repo := sqlite.NewEntryRepo(db)
	got, err := repo.ExistsByKeyBatch(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("ExistsByKeyBatch err=%v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}

func TestEntryRepo_InsertNew(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	first := sampleEntry(0)
	second := sampleEntry(0)
	second.Title = "Another Post"
	second.URL = "https://go.dev/blog/another"
	second.Key = entity.EntryKey(second.URL, second.Title, second.PublishedAt)

	mock.ExpectBegin()
	prepared := mock.ExpectPrepare(regexp.QuoteMeta("INSERT OR IGNORE INTO entries"))
	prepared.ExpectExec().
		WillReturnResult(sqlmock.NewResult(10, 1))
	// second entry already stored: OR IGNORE reports zero rows affected
	prepared.ExpectExec().
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	repo := sqlite.NewEntryRepo(db)
	inserted, err := repo.InsertNew(context.Background(), 1, []*entity.Entry{first, second})
	if err != nil {
		t.Fatalf("InsertNew err=%v", err)
	}
	if inserted != 1 {
		t.Errorf("inserted = %d, want 1", inserted)
	}
	if first.ID != 10 {
		t.Errorf("first.ID = %d, want 10", first.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestEntryRepo_InsertNew_Empty(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	repo := sqlite.NewEntryRepo(db)
	inserted, err := repo.InsertNew(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("InsertNew err=%v", err)
	}
	if inserted != 0 {
		t.Errorf("inserted = %d, want 0", inserted)
	}
}

func TestEntryRepo_SetAISummary(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE entries SET ai_summary")).
		WithArgs("a concise summary", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := sqlite.NewEntryRepo(db)
	if err := repo.SetAISummary(context.Background(), 5, "a concise summary"); err != nil {
		t.Fatalf("SetAISummary err=%v", err)
	}
}

func TestEntryRepo_MarkRead_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE entries SET read")).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := sqlite.NewEntryRepo(db)
	err := repo.MarkRead(context.Background(), 99)
	if !entity.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
