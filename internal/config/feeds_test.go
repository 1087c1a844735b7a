package config_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"feedpress/internal/config"
	"feedpress/internal/domain/entity"
	"feedpress/internal/repository"
)

const sampleYAML = `feeds:
  - name: Alpha Blog
    url: https://alpha.example.com/feed.xml
    site_url: https://alpha.example.com
    schedule: "0 0 */6 * * *"
    extract_content: true
    summarize: true
  - name: Beta News
    url: https://beta.example.com/rss
    active: false
`

func writeFeedsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write feeds file: %v", err)
	}
	return path
}

func TestLoadFeedsFile(t *testing.T) {
	file, err := config.LoadFeedsFile(writeFeedsFile(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadFeedsFile: %v", err)
	}
	if len(file.Feeds) != 2 {
		t.Fatalf("got %d feeds, want 2", len(file.Feeds))
	}

	alpha := file.Feeds[0]
	if alpha.Name != "Alpha Blog" || alpha.Schedule != "0 0 */6 * * *" || !alpha.ExtractContent {
		t.Fatalf("alpha parsed wrong: %+v", alpha)
	}
	if alpha.Active != nil {
		t.Fatal("omitted active should stay nil (defaults to true)")
	}
	if beta := file.Feeds[1]; beta.Active == nil || *beta.Active {
		t.Fatalf("beta active = %v, want explicit false", beta.Active)
	}
}

func TestLoadFeedsFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "feeds:\n  - url: https://a.example.com/feed\n",
			wantErr: "name is required",
		},
		{
			name:    "bad url",
			content: "feeds:\n  - name: A\n    url: not-a-url\n",
			wantErr: "url",
		},
		{
			name: "duplicate url",
			content: "feeds:\n" +
				"  - name: A\n    url: https://a.example.com/feed\n" +
				"  - name: B\n    url: https://a.example.com/feed\n",
			wantErr: "already declared",
		},
		{
			name:    "bad schedule",
			content: "feeds:\n  - name: A\n    url: https://a.example.com/feed\n    schedule: \"99 * * * * *\"\n",
			wantErr: "invalid cron spec",
		},
		{
			name:    "not yaml",
			content: "{{{",
			wantErr: "parse feeds file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadFeedsFile(writeFeedsFile(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFeedsFile_Missing(t *testing.T) {
	if _, err := config.LoadFeedsFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// reconcileRepo records Create/Update calls and serves stored feeds by URL.
type reconcileRepo struct {
	byURL   map[string]*entity.Feed
	nextID  int64
	created []string
	updated []string
	getErr  error
}

func newReconcileRepo(stored ...*entity.Feed) *reconcileRepo {
	r := &reconcileRepo{byURL: make(map[string]*entity.Feed)}
	for _, f := range stored {
		r.byURL[f.FeedURL] = f
		if f.ID > r.nextID {
			r.nextID = f.ID
		}
	}
	return r
}

func (r *reconcileRepo) Get(_ context.Context, _ int64) (*entity.Feed, error) {
	return nil, entity.ErrNotFound
}

func (r *reconcileRepo) GetByURL(_ context.Context, url string) (*entity.Feed, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	if f, ok := r.byURL[url]; ok {
		return f, nil
	}
	return nil, entity.ErrNotFound
}

func (r *reconcileRepo) List(_ context.Context) ([]*entity.Feed, error)       { return nil, nil }
func (r *reconcileRepo) ListActive(_ context.Context) ([]*entity.Feed, error) { return nil, nil }

func (r *reconcileRepo) Create(_ context.Context, feed *entity.Feed) error {
	r.nextID++
	feed.ID = r.nextID
	r.byURL[feed.FeedURL] = feed
	r.created = append(r.created, feed.FeedURL)
	return nil
}

func (r *reconcileRepo) Update(_ context.Context, feed *entity.Feed) error {
	r.byURL[feed.FeedURL] = feed
	r.updated = append(r.updated, feed.FeedURL)
	return nil
}

func (r *reconcileRepo) Delete(_ context.Context, _ int64) error { return nil }

func (r *reconcileRepo) UpsertMetadata(_ context.Context, _ int64, _ repository.FeedMetadata) error {
	return nil
}

func (r *reconcileRepo) RecordError(_ context.Context, _ int64, _ string, _ time.Time) error {
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestReconcile_CreatesNewFeeds(t *testing.T) {
	file, err := config.LoadFeedsFile(writeFeedsFile(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadFeedsFile: %v", err)
	}
	repo := newReconcileRepo()

	feeds, err := config.Reconcile(context.Background(), repo, file, discardLogger())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(feeds) != 2 || len(repo.created) != 2 {
		t.Fatalf("created %d feeds, returned %d, want 2/2", len(repo.created), len(feeds))
	}
	for _, f := range feeds {
		if f.ID == 0 {
			t.Fatalf("feed %q has no id after reconcile", f.Name)
		}
	}
	if !feeds[0].Active {
		t.Fatal("feed with omitted active should default to true")
	}
	if feeds[1].Active {
		t.Fatal("feed declared inactive should stay inactive")
	}
}

func TestReconcile_UpdatesChangedFeeds(t *testing.T) {
	stored := &entity.Feed{
		ID:      3,
		Name:    "Old Name",
		FeedURL: "https://alpha.example.com/feed.xml",
		Active:  true,
	}
	repo := newReconcileRepo(stored)
	file, err := config.LoadFeedsFile(writeFeedsFile(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadFeedsFile: %v", err)
	}

	feeds, err := config.Reconcile(context.Background(), repo, file, discardLogger())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(repo.updated) != 1 || repo.updated[0] != stored.FeedURL {
		t.Fatalf("updated = %v, want the renamed feed", repo.updated)
	}
	if feeds[0].ID != 3 || feeds[0].Name != "Alpha Blog" {
		t.Fatalf("reconciled feed = %+v, want id 3 with new name", feeds[0])
	}
}

func TestReconcile_LeavesUnchangedFeedsAlone(t *testing.T) {
	file, err := config.LoadFeedsFile(writeFeedsFile(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadFeedsFile: %v", err)
	}
	repo := newReconcileRepo()
	if _, err := config.Reconcile(context.Background(), repo, file, discardLogger()); err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}
	repo.created = nil

	if _, err := config.Reconcile(context.Background(), repo, file, discardLogger()); err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if len(repo.created) != 0 || len(repo.updated) != 0 {
		t.Fatalf("second reconcile wrote (created %v, updated %v), want no writes",
			repo.created, repo.updated)
	}
}

func TestReconcile_LookupFailure(t *testing.T) {
	file, err := config.LoadFeedsFile(writeFeedsFile(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadFeedsFile: %v", err)
	}
	repo := newReconcileRepo()
	repo.getErr = errors.New("database is locked")

	if _, err := config.Reconcile(context.Background(), repo, file, discardLogger()); err == nil {
		t.Fatal("expected error when lookup fails")
	}
}
