package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/farmergreg/rfsnotify"
	"github.com/mahyarmirrashed/dotignore/internal/config"
	"github.com/mahyarmirrashed/dotignore/internal/excluder"
	"github.com/mahyarmirrashed/dotignore/internal/utils"
	log "github.com/sirupsen/logrus"
	"gopkg.in/fsnotify.v1"
)

// RunDaemon watches cfg.Root and reports files created there that the ignore
// rules keep; it blocks until stopped or context cancellation.
func RunDaemon(ctx context.Context, cfg *config.Config) error {
	dir, err := filepath.Abs(utils.ExpandTilde(cfg.Root))
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}

	ex, err := excluder.New(dir, cfg.IgnoreFile, cfg.Exclude)
	if err != nil {
		return err
	}

	watcher, err := rfsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.AddRecursive(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	h := newHandler(dir, cfg, ex)
	log.Infof("Watching %s with %d rules anchored at %s", dir, ex.RuleCount(), ex.Base())

	// Rules found above the root would otherwise never trigger a reload.
	if ignoreDir := filepath.Dir(h.ignorePath); !isWithin(dir, ignoreDir) {
		if err := watcher.Add(ignoreDir); err != nil {
			log.Warnf("Unable to watch %s for rule changes: %v", ignoreDir, err)
		}
	}

	// Signal handling for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	// Initial scan
	log.Info("Starting initial scan...")
	kept, ignored, err := initialScan(dir, h.ex)
	if err != nil {
		return fmt.Errorf("initial scan failed: %w", err)
	}
	log.Infof("Initial scan complete: %d kept, %d ignored.", kept, ignored)

	// Main event handler loop
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			h.handle(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("error:", err)
		case sig := <-signals:
			log.Infof("Received signal: %s, shutting down...", sig)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type handler struct {
	root       string
	cfg        *config.Config
	ex         *excluder.Excluder
	ignorePath string

	sleep  func(time.Duration)
	notify func(enabled bool, title, message string)
}

func newHandler(root string, cfg *config.Config, ex *excluder.Excluder) *handler {
	h := &handler{
		root:   root,
		cfg:    cfg,
		sleep:  time.Sleep,
		notify: utils.SendNotification,
	}
	h.setExcluder(ex)
	return h
}

func (h *handler) setExcluder(ex *excluder.Excluder) {
	h.ex = ex
	h.ignorePath = ex.IgnoreFile()
	if h.ignorePath == "" {
		h.ignorePath = filepath.Join(h.root, h.cfg.IgnoreFile)
	}
}

// handle processes one watcher event and returns true if a created file was
// reported.
func (h *handler) handle(event fsnotify.Event) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil {
		name = event.Name
	}

	if name == h.ignorePath {
		h.reload()
		return false
	}

	if event.Op&fsnotify.Create == 0 || !isWithin(h.root, name) {
		return false
	}

	// Delay addresses an issue with Windows File Explorer
	if h.cfg.Delay > 0 {
		h.sleep(h.cfg.Delay)
	}

	return h.processFile(name)
}

// processFile logs and announces path unless the rules ignore it.
func (h *handler) processFile(path string) bool {
	if rule, ok := h.ex.Explain(path); ok && !rule.Negated {
		log.Debugf("Ignored: %s (%s:%d: %s)", filepath.ToSlash(path), h.ignoreName(), rule.Line, rule)
		return false
	}

	rel, ok := h.ex.Rel(path)
	if !ok {
		rel = filepath.ToSlash(path)
	}
	out := fmt.Sprintf("Created %s", rel)
	log.Info(out)
	h.notify(h.cfg.Notifications, "dotignore", out)
	return true
}

// reload rebuilds the rules; on failure the previous rules stay in effect.
func (h *handler) reload() {
	ex, err := excluder.New(h.root, h.cfg.IgnoreFile, h.cfg.Exclude)
	if err != nil {
		log.Warnf("Keeping previous rules: %v", err)
		return
	}
	h.setExcluder(ex)
	log.Infof("Reloaded %d rules from %s", ex.RuleCount(), h.ignoreName())
}

func (h *handler) ignoreName() string {
	if p := h.ex.IgnoreFile(); p != "" {
		return p
	}
	return "exclude patterns"
}

// initialScan walks root and counts files kept and ignored by ex. Ignored
// directories are not descended into.
func initialScan(root string, ex *excluder.Excluder) (kept, ignored int, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		if ex.IsExcluded(path) {
			log.Debugf("Ignored: %s", filepath.ToSlash(path))
			if d.IsDir() {
				return filepath.SkipDir
			}
			ignored++
			return nil
		}

		if !d.IsDir() {
			kept++
		}
		return nil
	})
	return kept, ignored, err
}

func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
