//go:build integration

package integration_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir string // HOME, holds .gemstrap/config.yaml
	WorkDir string // working directory the gem is created in
}

// setupTestEnv isolates HOME, the GEMSTRAP_* settings and git identity, and
// changes into a fresh working directory. Everything is restored after the
// test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir: t.TempDir(),
		WorkDir: t.TempDir(),
	}

	t.Setenv("HOME", env.HomeDir)
	t.Setenv("NO_COLOR", "1")
	t.Setenv("GIT_AUTHOR_NAME", "Gemstrap Test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.test")
	t.Setenv("GIT_COMMITTER_NAME", "Gemstrap Test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.test")
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "GEMSTRAP_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	t.Chdir(env.WorkDir)

	return env
}

// requireTools skips the test unless every named program is on PATH.
func requireTools(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not on PATH", name)
		}
	}
}

// templateServer serves the shared RuboCop and EditorConfig files and points
// the settings at it.
func templateServer(t *testing.T) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/rubocop.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("AllCops:\n  Exclude:\n    - 'vendor/**/*'\nStyle/StringLiterals:\n  EnforcedStyle: double_quotes\n"))
	})
	mux.HandleFunc("/editorconfig", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("root = true\n\n[*]\nindent_style = space\nindent_size = 2\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Setenv("GEMSTRAP_RUBOCOP_URL", srv.URL+"/rubocop.yml")
	t.Setenv("GEMSTRAP_EDITORCONFIG_URL", srv.URL+"/editorconfig")
}

// gitLog returns the commit subjects of the repository at dir, newest first.
func gitLog(t *testing.T, dir string) []string {
	t.Helper()
	cmd := exec.Command("git", "log", "--format=%s")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git log in %s: %v", dir, err)
	}
	return strings.Split(strings.TrimSpace(string(out)), "\n")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}

// assertFileLacks fails if the file contains substr.
func assertFileLacks(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if strings.Contains(string(data), substr) {
		t.Errorf("file %s still contains %q", path, substr)
	}
}
