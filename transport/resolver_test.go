package transport

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		target string
		token  string
	}{
		{
			name:   "plain",
			url:    "https://example.com/auth?token=ab12",
			target: "https://example.com/auth?token=ab12",
			token:  "ab12",
		},
		{
			name:   "relay",
			url:    "slash://example.com/auth/path?token=cd34&relay=https://relay.example.net/",
			target: "https://relay.example.net/auth/path",
			token:  "cd34",
		},
		{
			name:   "relay without token",
			url:    "https://example.com/v1?relay=http://127.0.0.1:8080",
			target: "http://127.0.0.1:8080/v1",
		},
	}

	var r Resolver
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ep, err := r.Resolve(tc.url)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if ep.Target != tc.target {
				t.Fatalf("target = %q, want %q", ep.Target, tc.target)
			}
			if ep.Token != tc.token {
				t.Fatalf("token = %q, want %q", ep.Token, tc.token)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want error
	}{
		{name: "no host", url: "/just/a/path", want: ErrInvalidURL},
		{name: "unparseable", url: "http://[::1", want: ErrInvalidURL},
		{name: "bad scheme", url: "ftp://example.com/x", want: ErrUnsupportedScheme},
		{name: "bad relay scheme", url: "https://example.com/x?relay=ftp://relay", want: ErrUnsupportedScheme},
		{name: "relay without host", url: "https://example.com/x?relay=nohost", want: ErrInvalidURL},
	}

	var r Resolver
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := r.Resolve(tc.url); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
