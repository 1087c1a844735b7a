package entity_test

import (
	"errors"
	"strings"
	"testing"

	"feedpress/internal/domain/entity"
)

func TestFeedValidate(t *testing.T) {
	tests := []struct {
		name    string
		feed    entity.Feed
		wantErr bool
	}{
		{
			name: "valid feed",
			feed: entity.Feed{Name: "Example", FeedURL: "https://example.com/feed.xml", Active: true},
		},
		{
			name: "valid feed with site url",
			feed: entity.Feed{Name: "Example", FeedURL: "https://example.com/feed.xml", SiteURL: "https://example.com"},
		},
		{
			name:    "missing name",
			feed:    entity.Feed{FeedURL: "https://example.com/feed.xml"},
			wantErr: true,
		},
		{
			name:    "missing feed url",
			feed:    entity.Feed{Name: "Example"},
			wantErr: true,
		},
		{
			name:    "non-http scheme",
			feed:    entity.Feed{Name: "Example", FeedURL: "ftp://example.com/feed.xml"},
			wantErr: true,
		},
		{
			name:    "invalid site url",
			feed:    entity.Feed{Name: "Example", FeedURL: "https://example.com/feed.xml", SiteURL: "not a url"},
			wantErr: true,
		},
		{
			name:    "oversized url",
			feed:    entity.Feed{Name: "Example", FeedURL: "https://example.com/" + strings.Repeat("a", 3000)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.feed.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFeedValidateReturnsValidationError(t *testing.T) {
	feed := entity.Feed{FeedURL: "https://example.com/feed.xml"}
	err := feed.Validate()

	var vErr *entity.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if vErr.Field != "name" {
		t.Errorf("Field = %q, want %q", vErr.Field, "name")
	}
}
