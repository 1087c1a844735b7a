// Package digest renders a periodic roundup of recently published entries,
// grouped by feed. It reads what the update pipeline has already stored;
// it never fetches.
package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"feedpress/internal/repository"
	"feedpress/internal/usecase/update"
)

// Format selects the digest output rendering.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// maxEntries caps one digest so a backlogged database cannot produce an
// unbounded document.
const maxEntries = 500

// ErrUnknownFormat is returned for formats other than markdown and text.
var ErrUnknownFormat = fmt.Errorf("unknown digest format")

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatMarkdown:
		return FormatMarkdown, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Service generates digests from stored entries.
type Service struct {
	FeedRepo  repository.FeedRepository
	EntryRepo repository.EntryRepository
}

// NewService creates a digest Service.
func NewService(feedRepo repository.FeedRepository, entryRepo repository.EntryRepository) *Service {
	return &Service{FeedRepo: feedRepo, EntryRepo: entryRepo}
}

type feedSection struct {
	name    string
	entries []entryLine
}

type entryLine struct {
	title     string
	url       string
	summary   string
	published time.Time
}

// Generate renders a digest of entries published in the last days days.
// Entries carrying an AI summary use it; others fall back to the
// feed-provided summary.
func (s *Service) Generate(ctx context.Context, days int, format Format) (string, error) {
	if days < 1 {
		return "", fmt.Errorf("digest period must be at least 1 day, got %d", days)
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	entries, err := s.EntryRepo.ListSince(ctx, cutoff, maxEntries)
	if err != nil {
		return "", &update.StorageError{Op: "list entries for digest", Err: err}
	}

	feeds, err := s.FeedRepo.List(ctx)
	if err != nil {
		return "", &update.StorageError{Op: "list feeds for digest", Err: err}
	}
	feedNames := make(map[int64]string, len(feeds))
	for _, f := range feeds {
		feedNames[f.ID] = f.Name
	}

	byFeed := make(map[string]*feedSection)
	for _, e := range entries {
		name := feedNames[e.FeedID]
		if name == "" {
			name = fmt.Sprintf("Feed %d", e.FeedID)
		}
		section, ok := byFeed[name]
		if !ok {
			section = &feedSection{name: name}
			byFeed[name] = section
		}
		summary := e.AISummary
		if summary == "" {
			summary = e.Summary
		}
		section.entries = append(section.entries, entryLine{
			title:     e.Title,
			url:       e.URL,
			summary:   summary,
			published: e.PublishedAt,
		})
	}

	sections := make([]*feedSection, 0, len(byFeed))
	for _, section := range byFeed {
		sections = append(sections, section)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].name < sections[j].name })

	switch format {
	case FormatMarkdown:
		return renderMarkdown(sections, days, time.Now()), nil
	case FormatText:
		return renderText(sections, days, time.Now()), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func renderMarkdown(sections []*feedSection, days int, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Digest: last %d day(s)\n\n", days)
	fmt.Fprintf(&b, "Generated %s\n", now.UTC().Format(time.RFC3339))

	if len(sections) == 0 {
		b.WriteString("\nNo new entries.\n")
		return b.String()
	}

	for _, section := range sections {
		fmt.Fprintf(&b, "\n## %s\n\n", section.name)
		for _, e := range section.entries {
			fmt.Fprintf(&b, "- [%s](%s) — %s\n", e.title, e.url, e.published.Format("2006-01-02"))
			if e.summary != "" {
				fmt.Fprintf(&b, "  %s\n", e.summary)
			}
		}
	}
	return b.String()
}

func renderText(sections []*feedSection, days int, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Digest: last %d day(s)\n", days)
	fmt.Fprintf(&b, "Generated %s\n", now.UTC().Format(time.RFC3339))

	if len(sections) == 0 {
		b.WriteString("\nNo new entries.\n")
		return b.String()
	}

	for _, section := range sections {
		fmt.Fprintf(&b, "\n%s\n%s\n", section.name, strings.Repeat("=", len(section.name)))
		for _, e := range section.entries {
			fmt.Fprintf(&b, "* %s (%s)\n", e.title, e.url)
			if e.summary != "" {
				fmt.Fprintf(&b, "  %s\n", e.summary)
			}
		}
	}
	return b.String()
}
