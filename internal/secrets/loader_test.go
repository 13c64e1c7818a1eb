package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}

	return path
}

func TestLoadFileWinsOverEnvAndValue(t *testing.T) {
	t.Setenv("CV_RECOMMENDER_TEST_TOKEN", "from-env")

	got, err := Load(Source{
		Name:  "backend token",
		Value: "from-value",
		Env:   "CV_RECOMMENDER_TEST_TOKEN",
		File:  writeSecret(t, "  from-file\n"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "from-file" {
		t.Fatalf("expected the trimmed file content, got %q", got)
	}
}

func TestLoadFallsBackToEnvThenValue(t *testing.T) {
	t.Setenv("CV_RECOMMENDER_TEST_TOKEN", "  from-env  ")

	got, err := Load(Source{Name: "backend token", Env: "CV_RECOMMENDER_TEST_TOKEN", Value: "from-value"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-env" {
		t.Fatalf("expected the env value, got %q", got)
	}

	t.Setenv("CV_RECOMMENDER_TEST_TOKEN", "")

	got, err = Load(Source{Name: "backend token", Env: "CV_RECOMMENDER_TEST_TOKEN", Value: " from-value "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-value" {
		t.Fatalf("expected the inline value, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    Source
		expect string
	}{
		{
			name:   "missing file",
			src:    Source{Name: "backend token", File: filepath.Join(t.TempDir(), "missing")},
			expect: "reading backend token from file",
		},
		{
			name:   "empty file",
			src:    Source{Name: "backend token", File: writeSecret(t, "   \n")},
			expect: "is empty",
		},
		{
			name:   "nothing configured",
			src:    Source{Name: "gemini api key"},
			expect: "gemini api key is not configured",
		},
		{
			name:   "default name",
			src:    Source{},
			expect: "secret is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.src); err == nil || !strings.Contains(err.Error(), tt.expect) {
				t.Fatalf("expected %q in the error, got %v", tt.expect, err)
			}
		})
	}
}
