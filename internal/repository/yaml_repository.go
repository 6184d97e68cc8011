package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bassista/go_wind/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// BackupSuffix is appended to the spots file path for the copy taken before each save.
const BackupSuffix = ".bak"

// CacheStore defines the interface for cache operations needed by the watcher callback.
type CacheStore interface {
	Snapshot() (Document, error)
	Replace(doc Document) error
}

// YAMLRepository handles disk persistence and watching of the spots file.
type YAMLRepository struct {
	path      string
	dir       string
	base      string
	validator *validator.Validate
	mu        sync.Mutex

	// root is the node tree of the last file read or written; saves merge into it.
	root *yaml.Node
}

// NewYAMLRepository creates a repository for the given YAML file path.
func NewYAMLRepository(path string) (Repository, error) {
	if path == "" {
		return nil, errors.New("spots file path is required")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "" || dir == "." {
		dir = "."
	}

	return &YAMLRepository{path: path, dir: dir, base: base, validator: NewValidator()}, nil
}

// Load reads the YAML file, parses and validates it.
func (r *YAMLRepository) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUnlocked()
}

func (r *YAMLRepository) loadUnlocked() (*Document, error) {
	root, err := readNode(r.path)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode spots file: %w", err)
	}

	doc.ApplyDefaults()

	if err := r.validator.Struct(&doc); err != nil {
		return nil, fmt.Errorf("validate spots file: %w", err)
	}
	for _, s := range doc.Spots {
		if s.Invalid != "" {
			logger.WithSpot("yaml-repo", s.Name).Warnf("spot skipped: %s", s.Invalid)
		}
	}

	r.root = root
	return &doc, nil
}

func readNode(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spots file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse spots file: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.New("parse spots file: file is empty")
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse spots file: line %d: top level must be a mapping", root.Content[0].Line)
	}
	return &root, nil
}

// Save backs up the current file to <path>.bak and writes the document
// atomically, keeping the layout of the existing file where it can.
func (r *YAMLRepository) Save(ctx context.Context, doc *Document) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.validator.Struct(doc); err != nil {
		return fmt.Errorf("validate before save: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveUnlocked(doc)
}

func (r *YAMLRepository) saveUnlocked(doc *Document) error {
	var fresh yaml.Node
	if err := fresh.Encode(doc); err != nil {
		return fmt.Errorf("encode spots: %w", err)
	}

	root := r.root
	if root == nil {
		if existing, err := readNode(r.path); err == nil {
			root = existing
		}
	}
	if root == nil {
		root = &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{&fresh}}
	} else {
		keep := make(map[string]bool)
		for _, name := range doc.Spots.Invalid() {
			keep[name] = true
		}
		mergeDocument(root.Content[0], &fresh, keep)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	err := enc.Encode(root)
	if err == nil {
		err = enc.Close()
	}
	if err != nil {
		r.root = nil
		return fmt.Errorf("marshal spots: %w", err)
	}

	if err := r.backupUnlocked(); err != nil {
		r.root = nil
		return err
	}

	if err := writeAtomic(r.dir, r.base, r.path, buf.Bytes()); err != nil {
		// the merged tree no longer matches the file; re-read it next time
		r.root = nil
		return err
	}

	r.root = root
	logger.WithComponent("yaml-repo").Debugf("saved %d spots to %s", len(doc.Spots), r.path)
	return nil
}

// backupUnlocked copies the current file to the .bak sibling, overwriting it.
func (r *YAMLRepository) backupUnlocked() error {
	current, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read spots file for backup: %w", err)
	}
	if err := writeAtomic(r.dir, r.base+BackupSuffix, r.path+BackupSuffix, current); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

func writeAtomic(dir, base, target string, payload []byte) error {
	tmpFile, err := os.CreateTemp(dir, base+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), target); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(target), err)
	}
	return nil
}

// StartWatcher reloads the store when the spots file is edited by hand.
// It watches the parent directory (not the file) so atomic replace sequences
// (temp+rename) are still observed. Events are filtered by basename and
// debounced. Cancel ctx to stop the goroutine and close the watcher.
func (r *YAMLRepository) StartWatcher(ctx context.Context, cacheStore CacheStore) error {
	onChange := r.MakeWatcherCallback(cacheStore)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		schedule := func() {
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, onChange)
		}

		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != r.base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					schedule()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithComponent("yaml-repo").Warnf("watcher error: %v", err)
			}
		}
	}()

	return nil
}

// MakeWatcherCallback returns a callback that replaces the store content with
// the file content when they differ. Our own saves produce equal documents and
// are skipped.
func (r *YAMLRepository) MakeWatcherCallback(cacheStore CacheStore) func() {
	return func() {
		diskDoc, err := r.Load(context.Background())
		if err != nil {
			logger.WithComponent("yaml-repo").Warnf("watch reload failed, keeping current spots: %v", err)
			return
		}

		// an unavailable store always takes the fixed file
		snapshot, err := cacheStore.Snapshot()
		if err == nil && AreDocumentsEqual(&snapshot, diskDoc) {
			return
		}

		if err := cacheStore.Replace(*diskDoc); err != nil {
			logger.WithComponent("yaml-repo").Errorf("watch reload: %v", err)
			return
		}
		logger.WithComponent("yaml-repo").Infof("spots reloaded from %s (%d spots)", r.path, len(diskDoc.Spots))
	}
}
