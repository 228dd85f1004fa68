package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/matsen/artman/internal/article"
	"github.com/matsen/artman/internal/extract/fixture"
)

var (
	artmanBinary     string
	artmanBinaryOnce sync.Once
	artmanBinaryErr  error
)

// getBinary builds the artman binary once and returns its path.
func getBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping CLI test in short mode")
	}
	artmanBinaryOnce.Do(func() {
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			artmanBinaryErr = os.ErrInvalid
			return
		}
		moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))

		tmpDir, err := os.MkdirTemp("", "artman-test-*")
		if err != nil {
			artmanBinaryErr = err
			return
		}
		artmanBinary = filepath.Join(tmpDir, "artman")

		cmd := exec.Command("go", "build", "-o", artmanBinary, "./cmd/artman")
		cmd.Dir = moduleRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			artmanBinaryErr = &buildError{output: string(output), err: err}
		}
	})
	if artmanBinaryErr != nil {
		t.Fatalf("failed to build artman: %v", artmanBinaryErr)
	}
	return artmanBinary
}

type buildError struct {
	output string
	err    error
}

func (e *buildError) Error() string {
	return e.err.Error() + ": " + e.output
}

// cliEnv is an isolated home for one test: its own config, database and uploads.
type cliEnv struct {
	dir   string
	extra []string
}

func newCLIEnv(t *testing.T) *cliEnv {
	return &cliEnv{dir: t.TempDir()}
}

// environ strips variables that would point the CLI at real services.
func (e *cliEnv) environ() []string {
	var env []string
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if key == "OPENAI_API_KEY" || key == "MONGODB_URI" || key == "PORT" ||
			strings.HasPrefix(key, "ARTMAN_") || strings.HasPrefix(key, "XDG_") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env,
		"XDG_CONFIG_HOME="+filepath.Join(e.dir, "config"),
		"XDG_DATA_HOME="+filepath.Join(e.dir, "data"),
		"ARTMAN_LOG_LEVEL=error",
	)
	return append(env, e.extra...)
}

// run executes artman and returns stdout and the exit code.
func (e *cliEnv) run(t *testing.T, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(getBinary(t), args...)
	cmd.Dir = e.dir
	cmd.Env = e.environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return stdout.String(), 0
	case errors.As(err, &exitErr):
		return stdout.String(), exitErr.ExitCode()
	default:
		t.Fatalf("running artman %v: %v\nstderr: %s", args, err, stderr.String())
		return "", -1
	}
}

// mustRun executes artman and fails the test on a non-zero exit.
func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, code := e.run(t, args...)
	if code != 0 {
		t.Fatalf("artman %v exited %d: %s", args, code, out)
	}
	return out
}

func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, out)
	}
	return v
}

func TestCLI_AddListGetDelete(t *testing.T) {
	env := newCLIEnv(t)

	a := decodeJSON[article.Article](t, env.mustRun(t, "add",
		"--title", "Deep Learning",
		"--author", "Yann LeCun, Yoshua Bengio",
		"--summary", "Nets.",
		"--doi", "10.1038/nature14539"))
	if a.ID == "" || a.Summary != "Nets." {
		t.Fatalf("add = %+v", a)
	}
	env.mustRun(t, "add", "--title", "Shallow Parsing")

	all := decodeJSON[[]article.Article](t, env.mustRun(t, "list"))
	if len(all) != 2 {
		t.Fatalf("list returned %d articles", len(all))
	}

	found := decodeJSON[[]article.Article](t, env.mustRun(t, "list", "DEEP"))
	if len(found) != 1 || found[0].ID != a.ID {
		t.Errorf("list DEEP = %+v", found)
	}

	got := decodeJSON[article.Article](t, env.mustRun(t, "get", a.ID))
	if got.Title != "Deep Learning" {
		t.Errorf("get = %+v", got)
	}

	bib := env.mustRun(t, "export", "--bibtex", "--search", "deep")
	if !strings.Contains(bib, "@article{LeCun-") || !strings.Contains(bib, "author = {LeCun, Yann and Bengio, Yoshua}") {
		t.Errorf("bibtex export:\n%s", bib)
	}

	del := decodeJSON[DeleteResponse](t, env.mustRun(t, "delete", a.ID))
	if del.ID != a.ID || del.FileRemoved {
		t.Errorf("delete = %+v", del)
	}

	if _, code := env.run(t, "get", a.ID); code != ExitNotFound {
		t.Errorf("get after delete exit = %d, want %d", code, ExitNotFound)
	}
	if _, code := env.run(t, "delete", a.ID); code != ExitNotFound {
		t.Errorf("second delete exit = %d, want %d", code, ExitNotFound)
	}
}

func TestCLI_AddWithFile(t *testing.T) {
	env := newCLIEnv(t)

	docx := fixture.DOCX("Cells divide.", "Proteins fold.")
	path := filepath.Join(env.dir, "biology.docx")
	if err := os.WriteFile(path, docx, 0644); err != nil {
		t.Fatal(err)
	}

	extracted := decodeJSON[map[string]any](t, env.mustRun(t, "extract", path))
	if extracted["outcome"] != "local" || extracted["format"] != "docx" {
		t.Errorf("extract = %v", extracted)
	}

	a := decodeJSON[article.Article](t, env.mustRun(t, "add", "--title", "Biology", "--file", path))
	if !a.HasFile() || !strings.Contains(a.Summary, "Proteins fold.") {
		t.Fatalf("add = %+v", a)
	}

	outDir := filepath.Join(env.dir, "out")
	if err := os.Mkdir(outDir, 0755); err != nil {
		t.Fatal(err)
	}
	env.mustRun(t, "download", a.FileRef(), outDir)

	data, err := os.ReadFile(filepath.Join(outDir, "biology.docx"))
	if err != nil {
		t.Fatalf("downloaded file: %v", err)
	}
	if !bytes.Equal(data, docx) {
		t.Error("downloaded bytes differ from upload")
	}

	del := decodeJSON[DeleteResponse](t, env.mustRun(t, "delete", a.ID))
	if !del.FileRemoved {
		t.Errorf("delete = %+v, want file removed", del)
	}
}

func TestCLI_ExitCodes(t *testing.T) {
	env := newCLIEnv(t)

	out, code := env.run(t, "add", "--summary", "no title")
	if code != ExitDataError {
		t.Errorf("add without title exit = %d, want %d", code, ExitDataError)
	}
	if e := decodeJSON[ErrorResponse](t, out); !strings.Contains(e.Error, "title") {
		t.Errorf("error = %q", e.Error)
	}

	if _, code := env.run(t, "get", "does-not-exist"); code != ExitNotFound {
		t.Errorf("get unknown exit = %d, want %d", code, ExitNotFound)
	}

	env.extra = []string{"ARTMAN_STORE_DRIVER=redis"}
	if _, code := env.run(t, "list"); code != ExitConfigError {
		t.Errorf("bad driver exit = %d, want %d", code, ExitConfigError)
	}
}

func TestCLI_SnapshotRestore(t *testing.T) {
	env := newCLIEnv(t)
	a := decodeJSON[article.Article](t, env.mustRun(t, "add", "--title", "Keep me", "--notes", "important"))

	snap := filepath.Join(env.dir, "snap.jsonl")
	status := decodeJSON[StatusResponse](t, env.mustRun(t, "snapshot", "--path", snap))
	if status.Count != 1 || status.Path != snap {
		t.Errorf("snapshot = %+v", status)
	}

	// Restoring into the same, non-empty store is refused.
	if _, code := env.run(t, "restore", snap); code != ExitDataError {
		t.Errorf("restore into non-empty store exit = %d, want %d", code, ExitDataError)
	}

	env.extra = []string{"ARTMAN_STORE_DSN=" + filepath.Join(env.dir, "fresh.db")}
	restored := decodeJSON[StatusResponse](t, env.mustRun(t, "restore", snap))
	if restored.Count != 1 {
		t.Errorf("restore = %+v", restored)
	}

	got := decodeJSON[article.Article](t, env.mustRun(t, "get", a.ID))
	if got.Notes != "important" || !got.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("restored article = %+v, want %+v", got, a)
	}
}

func TestCLI_Config(t *testing.T) {
	env := newCLIEnv(t)

	cfg := decodeJSON[map[string]any](t, env.mustRun(t, "config"))
	store, ok := cfg["store"].(map[string]any)
	if !ok || store["driver"] != "sqlite" {
		t.Errorf("config store = %v", cfg["store"])
	}

	path := decodeJSON[StatusResponse](t, env.mustRun(t, "config", "path")).Path
	if want := filepath.Join(env.dir, "config", "artman", "config.yml"); path != want {
		t.Errorf("config path = %q, want %q", path, want)
	}

	env.mustRun(t, "config", "init")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config init did not write %s: %v", path, err)
	}
	if _, code := env.run(t, "config", "init"); code != ExitConfigError {
		t.Errorf("second init exit = %d, want %d", code, ExitConfigError)
	}
	env.mustRun(t, "config", "init", "--force")
}
