// Package config loads the declarative feed list (feeds.yaml) and
// reconciles it into the database at startup. The file is the source
// of truth for subscriptions; the database additionally carries the
// bookkeeping the pipeline writes.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"feedpress/internal/domain/entity"
	pkgconfig "feedpress/internal/pkg/config"
	"feedpress/internal/repository"
)

// FeedSpec is one subscription as declared in feeds.yaml.
type FeedSpec struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	SiteURL     string `yaml:"site_url"`
	Description string `yaml:"description"`

	// Schedule is an optional 6-field cron expression. Empty means the
	// daemon default applies.
	Schedule string `yaml:"schedule"`

	ExtractContent bool `yaml:"extract_content"`
	Summarize      bool `yaml:"summarize"`

	// Active defaults to true when omitted.
	Active *bool `yaml:"active"`
}

// FeedsFile is the parsed feeds.yaml document.
type FeedsFile struct {
	Feeds []FeedSpec `yaml:"feeds"`
}

// LoadFeedsFile reads and validates a feeds.yaml document. A file that
// parses but declares an invalid feed is rejected as a whole so a typo
// cannot silently drop subscriptions.
func LoadFeedsFile(path string) (*FeedsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	var file FeedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse feeds file %s: %w", path, err)
	}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("feeds file %s: %w", path, err)
	}
	return &file, nil
}

// Validate checks every declared feed and rejects duplicate URLs.
func (f *FeedsFile) Validate() error {
	seen := make(map[string]string, len(f.Feeds))
	for i, spec := range f.Feeds {
		if spec.Name == "" {
			return fmt.Errorf("feed %d: name is required", i)
		}
		if err := entity.ValidateURL(spec.URL); err != nil {
			return fmt.Errorf("feed %q: %w", spec.Name, err)
		}
		if prev, dup := seen[spec.URL]; dup {
			return fmt.Errorf("feed %q: url already declared by %q", spec.Name, prev)
		}
		seen[spec.URL] = spec.Name
		if spec.Schedule != "" {
			if err := pkgconfig.ValidateCronSpec(spec.Schedule); err != nil {
				return fmt.Errorf("feed %q: %w", spec.Name, err)
			}
		}
	}
	return nil
}

// entity converts a FeedSpec to a Feed, without bookkeeping fields.
func (s FeedSpec) entity() *entity.Feed {
	active := true
	if s.Active != nil {
		active = *s.Active
	}
	return &entity.Feed{
		Name:           s.Name,
		FeedURL:        s.URL,
		SiteURL:        s.SiteURL,
		Description:    s.Description,
		Schedule:       s.Schedule,
		ExtractContent: s.ExtractContent,
		Summarize:      s.Summarize,
		Active:         active,
	}
}

// Reconcile upserts the declared feeds into the repository, keyed by
// feed URL, and returns the stored feeds with their database ids.
// Feeds present in the database but absent from the file are left
// untouched; removal is an operator decision, not a sync side effect.
func Reconcile(ctx context.Context, repo repository.FeedRepository, file *FeedsFile, logger *slog.Logger) ([]*entity.Feed, error) {
	feeds := make([]*entity.Feed, 0, len(file.Feeds))
	for _, spec := range file.Feeds {
		want := spec.entity()

		stored, err := repo.GetByURL(ctx, spec.URL)
		switch {
		case entity.IsNotFound(err):
			if err := repo.Create(ctx, want); err != nil {
				return nil, fmt.Errorf("create feed %q: %w", spec.Name, err)
			}
			logger.Info("feed added from config",
				slog.Int64("feed_id", want.ID),
				slog.String("feed_name", want.Name),
				slog.String("feed_url", want.FeedURL))
			feeds = append(feeds, want)

		case err != nil:
			return nil, fmt.Errorf("look up feed %q: %w", spec.Name, err)

		default:
			if specDiffers(stored, want) {
				want.ID = stored.ID
				if err := repo.Update(ctx, want); err != nil {
					return nil, fmt.Errorf("update feed %q: %w", spec.Name, err)
				}
				logger.Info("feed updated from config",
					slog.Int64("feed_id", want.ID),
					slog.String("feed_name", want.Name))
				feeds = append(feeds, want)
			} else {
				feeds = append(feeds, stored)
			}
		}
	}
	return feeds, nil
}

func specDiffers(stored, want *entity.Feed) bool {
	return stored.Name != want.Name ||
		stored.SiteURL != want.SiteURL ||
		stored.Description != want.Description ||
		stored.Schedule != want.Schedule ||
		stored.ExtractContent != want.ExtractContent ||
		stored.Summarize != want.Summarize ||
		stored.Active != want.Active
}
