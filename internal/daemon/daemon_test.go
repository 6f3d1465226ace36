package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mahyarmirrashed/dotignore/internal/config"
	"github.com/mahyarmirrashed/dotignore/internal/excluder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/fsnotify.v1"
)

const testIgnoreFile = ".testignore"

type recorder struct {
	messages []string
	sleeps   []time.Duration
}

func newTestHandler(t *testing.T, root string, cfg *config.Config) (*handler, *recorder) {
	t.Helper()
	ex, err := excluder.New(root, cfg.IgnoreFile, cfg.Exclude)
	require.NoError(t, err)

	rec := &recorder{}
	h := newHandler(root, cfg, ex)
	h.sleep = func(d time.Duration) { rec.sleeps = append(rec.sleeps, d) }
	h.notify = func(enabled bool, title, message string) {
		if enabled {
			rec.messages = append(rec.messages, message)
		}
	}
	return h, rec
}

func testConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Root = root
	cfg.IgnoreFile = testIgnoreFile
	cfg.Notifications = true
	return cfg
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestHandle_ReportsKeptFiles(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, testIgnoreFile), "*.log\n!important.log\nnode_modules/\n")

	h, rec := newTestHandler(t, root, testConfig(root))

	assert.True(t, h.handle(fsnotify.Event{Name: filepath.Join(root, "main.go"), Op: fsnotify.Create}))
	assert.True(t, h.handle(fsnotify.Event{Name: filepath.Join(root, "important.log"), Op: fsnotify.Create}))
	assert.False(t, h.handle(fsnotify.Event{Name: filepath.Join(root, "debug.log"), Op: fsnotify.Create}))
	assert.False(t, h.handle(fsnotify.Event{Name: filepath.Join(root, "node_modules", "x.js"), Op: fsnotify.Create}))

	assert.Equal(t, []string{"Created main.go", "Created important.log"}, rec.messages)
}

func TestHandle_IgnoresNonCreateEvents(t *testing.T) {
	root := t.TempDir()
	h, rec := newTestHandler(t, root, testConfig(root))

	for _, op := range []fsnotify.Op{fsnotify.Write, fsnotify.Remove, fsnotify.Rename, fsnotify.Chmod} {
		assert.False(t, h.handle(fsnotify.Event{Name: filepath.Join(root, "main.go"), Op: op}))
	}
	assert.Empty(t, rec.messages)
}

func TestHandle_IgnoresEventsOutsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "repo")
	require.NoError(t, os.MkdirAll(root, 0755))
	write(t, filepath.Join(parent, testIgnoreFile), "*.log\n")

	h, rec := newTestHandler(t, root, testConfig(root))
	assert.Equal(t, filepath.Join(parent, testIgnoreFile), h.ignorePath)

	assert.False(t, h.handle(fsnotify.Event{Name: filepath.Join(parent, "other.txt"), Op: fsnotify.Create}))
	assert.True(t, h.handle(fsnotify.Event{Name: filepath.Join(root, "main.go"), Op: fsnotify.Create}))
	assert.Equal(t, []string{"Created repo/main.go"}, rec.messages)
}

func TestHandle_Delay(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	cfg.Delay = 250 * time.Millisecond

	h, rec := newTestHandler(t, root, cfg)
	h.handle(fsnotify.Event{Name: filepath.Join(root, "main.go"), Op: fsnotify.Create})

	assert.Equal(t, []time.Duration{250 * time.Millisecond}, rec.sleeps)
}

func TestHandle_ReloadsRules(t *testing.T) {
	root := t.TempDir()
	ignorePath := filepath.Join(root, testIgnoreFile)

	h, rec := newTestHandler(t, root, testConfig(root))
	assert.Equal(t, ignorePath, h.ignorePath, "tracks the file it would read once created")
	assert.True(t, h.handle(fsnotify.Event{Name: filepath.Join(root, "a.tmp"), Op: fsnotify.Create}))

	write(t, ignorePath, "*.tmp\n")
	assert.False(t, h.handle(fsnotify.Event{Name: ignorePath, Op: fsnotify.Create}))
	assert.Equal(t, ignorePath, h.ex.IgnoreFile())
	assert.False(t, h.handle(fsnotify.Event{Name: filepath.Join(root, "b.tmp"), Op: fsnotify.Create}))

	assert.Equal(t, []string{"Created a.tmp"}, rec.messages)
}

func TestHandle_ReloadFailureKeepsRules(t *testing.T) {
	root := t.TempDir()
	ignorePath := filepath.Join(root, testIgnoreFile)
	write(t, ignorePath, "*.tmp\n")

	h, _ := newTestHandler(t, root, testConfig(root))
	previous := h.ex

	write(t, ignorePath, "[broken\n")
	h.handle(fsnotify.Event{Name: ignorePath, Op: fsnotify.Write})

	assert.Same(t, previous, h.ex)
	assert.False(t, h.handle(fsnotify.Event{Name: filepath.Join(root, "b.tmp"), Op: fsnotify.Create}))
}

func TestHandle_ExcludePatterns(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	cfg.Exclude = []string{"*.swp"}

	h, rec := newTestHandler(t, root, cfg)
	assert.False(t, h.handle(fsnotify.Event{Name: filepath.Join(root, "main.go.swp"), Op: fsnotify.Create}))
	assert.Empty(t, rec.messages)
}

func TestInitialScan(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, testIgnoreFile), "node_modules/\n*.log\n")
	write(t, filepath.Join(root, "main.go"), "")
	write(t, filepath.Join(root, "src", "lib.go"), "")
	write(t, filepath.Join(root, "src", "debug.log"), "")
	write(t, filepath.Join(root, "node_modules", "a", "index.js"), "")
	write(t, filepath.Join(root, "node_modules", "b.js"), "")

	ex, err := excluder.New(root, testIgnoreFile, nil)
	require.NoError(t, err)

	kept, ignored, err := initialScan(root, ex)
	require.NoError(t, err)
	assert.Equal(t, 3, kept, "main.go, src/lib.go and the ignore file")
	assert.Equal(t, 1, ignored, "node_modules is skipped as a whole")
}

func TestIsWithin(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "srv", "repo")

	assert.True(t, isWithin(root, root))
	assert.True(t, isWithin(root, filepath.Join(root, "a", "b")))
	assert.True(t, isWithin(root, filepath.Join(root, "..repo")))
	assert.False(t, isWithin(root, filepath.Dir(root)))
	assert.False(t, isWithin(root, filepath.Join(filepath.Dir(root), "other")))
}
