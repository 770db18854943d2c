package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	secretFile := filepath.Join(dir, "key")
	if err := os.WriteFile(secretFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write empty secret: %v", err)
	}

	t.Setenv("PAWMATCH_TEST_SECRET", " from-env ")

	tests := []struct {
		name      string
		src       Source
		expect    string
		expectErr string
	}{
		{name: "file wins over value", src: Source{Name: "key", File: secretFile, Value: "inline"}, expect: "from-file"},
		{name: "inline value", src: Source{Value: " inline "}, expect: "inline"},
		{name: "env fallback", src: Source{Env: "PAWMATCH_TEST_SECRET"}, expect: "from-env"},
		{name: "empty file", src: Source{Name: "key", File: emptyFile}, expectErr: "is empty"},
		{name: "missing file", src: Source{Name: "key", File: filepath.Join(dir, "nope")}, expectErr: "reading key"},
		{name: "unset env", src: Source{Name: "key", Env: "PAWMATCH_TEST_UNSET"}, expectErr: "set PAWMATCH_TEST_UNSET"},
		{name: "nothing configured", src: Source{}, expectErr: "secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.expectErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.expectErr) {
					t.Fatalf("expected error containing %q, got %v", tt.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestOptional(t *testing.T) {
	got, err := Optional(Source{Name: "key", Env: "PAWMATCH_TEST_UNSET"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty secret, got %q", got)
	}

	if _, err := Optional(Source{Name: "key", File: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatalf("expected error for unreadable file")
	}
}
