package digest_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"feedpress/internal/domain/entity"
	"feedpress/internal/repository"
	"feedpress/internal/usecase/digest"
	"feedpress/internal/usecase/update"
)

type stubFeedRepo struct {
	feeds []*entity.Feed
}

func (r *stubFeedRepo) Get(_ context.Context, _ int64) (*entity.Feed, error) {
	return nil, entity.ErrNotFound
}

func (r *stubFeedRepo) GetByURL(_ context.Context, _ string) (*entity.Feed, error) {
	return nil, entity.ErrNotFound
}

func (r *stubFeedRepo) List(_ context.Context) ([]*entity.Feed, error)       { return r.feeds, nil }
func (r *stubFeedRepo) ListActive(_ context.Context) ([]*entity.Feed, error) { return r.feeds, nil }
func (r *stubFeedRepo) Create(_ context.Context, _ *entity.Feed) error       { return nil }
func (r *stubFeedRepo) Update(_ context.Context, _ *entity.Feed) error       { return nil }
func (r *stubFeedRepo) Delete(_ context.Context, _ int64) error              { return nil }

func (r *stubFeedRepo) UpsertMetadata(_ context.Context, _ int64, _ repository.FeedMetadata) error {
	return nil
}

func (r *stubFeedRepo) RecordError(_ context.Context, _ int64, _ string, _ time.Time) error {
	return nil
}

type stubEntryRepo struct {
	entries   []*entity.Entry
	listErr   error
	gotCutoff time.Time
}

func (r *stubEntryRepo) Get(_ context.Context, _ int64) (*entity.Entry, error) {
	return nil, entity.ErrNotFound
}

func (r *stubEntryRepo) ListByFeed(_ context.Context, _ int64, _ int) ([]*entity.Entry, error) {
	return nil, nil
}

func (r *stubEntryRepo) ListSince(_ context.Context, cutoff time.Time, _ int) ([]*entity.Entry, error) {
	r.gotCutoff = cutoff
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.entries, nil
}

func (r *stubEntryRepo) ExistsByKeyBatch(_ context.Context, _ int64, _ []string) (map[string]bool, error) {
	return nil, nil
}

func (r *stubEntryRepo) InsertNew(_ context.Context, _ int64, _ []*entity.Entry) (int64, error) {
	return 0, nil
}

func (r *stubEntryRepo) SetAISummary(_ context.Context, _ int64, _ string) error { return nil }
func (r *stubEntryRepo) MarkRead(_ context.Context, _ int64) error               { return nil }

func testData() (*stubFeedRepo, *stubEntryRepo) {
	published := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	feeds := &stubFeedRepo{feeds: []*entity.Feed{
		{ID: 1, Name: "Alpha Blog", FeedURL: "https://alpha.example.com/feed.xml"},
		{ID: 2, Name: "Beta News", FeedURL: "https://beta.example.com/rss"},
	}}
	entries := &stubEntryRepo{entries: []*entity.Entry{
		{
			ID: 10, FeedID: 2, Title: "Beta headline", URL: "https://beta.example.com/1",
			Summary: "Feed-provided teaser.", PublishedAt: published,
		},
		{
			ID: 11, FeedID: 1, Title: "Alpha deep dive", URL: "https://alpha.example.com/1",
			Summary: "Teaser.", AISummary: "A two-sentence machine summary.", PublishedAt: published,
		},
	}}
	return feeds, entries
}

func TestParseFormat(t *testing.T) {
	if _, err := digest.ParseFormat("markdown"); err != nil {
		t.Fatalf("markdown: %v", err)
	}
	if _, err := digest.ParseFormat("TEXT"); err != nil {
		t.Fatalf("TEXT should parse case-insensitively: %v", err)
	}
	if _, err := digest.ParseFormat("pdf"); !errors.Is(err, digest.ErrUnknownFormat) {
		t.Fatalf("pdf: got %v, want ErrUnknownFormat", err)
	}
}

func TestGenerate_MarkdownGroupsByFeed(t *testing.T) {
	feeds, entries := testData()
	svc := digest.NewService(feeds, entries)

	out, err := svc.Generate(context.Background(), 7, digest.FormatMarkdown)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	alpha := strings.Index(out, "## Alpha Blog")
	beta := strings.Index(out, "## Beta News")
	if alpha == -1 || beta == -1 {
		t.Fatalf("missing feed sections:\n%s", out)
	}
	if alpha > beta {
		t.Fatal("sections are not sorted by feed name")
	}
	if !strings.Contains(out, "A two-sentence machine summary.") {
		t.Fatal("AI summary not preferred over feed summary")
	}
	if !strings.Contains(out, "Feed-provided teaser.") {
		t.Fatal("feed summary fallback missing")
	}
	if !strings.Contains(out, "[Alpha deep dive](https://alpha.example.com/1)") {
		t.Fatalf("entry link missing:\n%s", out)
	}
}

func TestGenerate_TextFormat(t *testing.T) {
	feeds, entries := testData()
	svc := digest.NewService(feeds, entries)

	out, err := svc.Generate(context.Background(), 3, digest.FormatText)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(out, "##") || strings.Contains(out, "](") {
		t.Fatalf("text format contains markdown syntax:\n%s", out)
	}
	if !strings.Contains(out, "* Beta headline (https://beta.example.com/1)") {
		t.Fatalf("entry line missing:\n%s", out)
	}
}

func TestGenerate_CutoffCoversRequestedDays(t *testing.T) {
	feeds, entries := testData()
	svc := digest.NewService(feeds, entries)

	before := time.Now()
	if _, err := svc.Generate(context.Background(), 7, digest.FormatText); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := before.AddDate(0, 0, -7)
	if diff := entries.gotCutoff.Sub(want); diff < 0 || diff > time.Minute {
		t.Fatalf("cutoff = %v, want about %v", entries.gotCutoff, want)
	}
}

func TestGenerate_EmptyPeriod(t *testing.T) {
	svc := digest.NewService(&stubFeedRepo{}, &stubEntryRepo{})

	out, err := svc.Generate(context.Background(), 1, digest.FormatMarkdown)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, "No new entries.") {
		t.Fatalf("empty digest missing placeholder:\n%s", out)
	}
}

func TestGenerate_InvalidInputs(t *testing.T) {
	feeds, entries := testData()
	svc := digest.NewService(feeds, entries)

	if _, err := svc.Generate(context.Background(), 0, digest.FormatText); err == nil {
		t.Fatal("expected error for zero days")
	}
	if _, err := svc.Generate(context.Background(), 7, digest.Format("pdf")); !errors.Is(err, digest.ErrUnknownFormat) {
		t.Fatalf("got %v, want ErrUnknownFormat", err)
	}
}

func TestGenerate_StorageFailure(t *testing.T) {
	entries := &stubEntryRepo{listErr: errors.New("database is locked")}
	svc := digest.NewService(&stubFeedRepo{}, entries)

	_, err := svc.Generate(context.Background(), 7, digest.FormatText)
	var storageErr *update.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("got %v, want *StorageError", err)
	}
}
