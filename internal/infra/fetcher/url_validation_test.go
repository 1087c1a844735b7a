package fetcher

import (
	"errors"
	"net"
	"testing"

	"feedpress/internal/usecase/update"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"valid https", "https://example.com/article", nil},
		{"valid http", "http://example.com/article", nil},
		{"file scheme", "file:///etc/passwd", update.ErrInvalidURL},
		{"ftp scheme", "ftp://example.com", update.ErrInvalidURL},
		{"empty hostname", "https://", update.ErrInvalidURL},
		{"localhost", "http://localhost/admin", update.ErrPrivateIP},
		{"loopback ip", "http://127.0.0.1/admin", update.ErrPrivateIP},
		{"private ip", "http://192.168.1.1/router", update.ErrPrivateIP},
		{"private ten", "http://10.0.0.1/internal", update.ErrPrivateIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateURL(tt.url, true)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validateURL(%q) = %v, want nil", tt.url, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateURL(%q) = %v, want %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL_PrivateIPCheckDisabled(t *testing.T) {
	if err := validateURL("http://127.0.0.1/page", false); err != nil {
		t.Errorf("expected nil with private IP check disabled, got %v", err)
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"192.168.0.1", true},
		{"169.254.1.1", true},
		{"::1", true},
		{"fe80::1", true},
		{"fc00::1", true},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"2606:4700::1111", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := isPrivateIP(net.ParseIP(tt.ip)); got != tt.want {
				t.Errorf("isPrivateIP(%s) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}
