package assets

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"asset-cache/internal/filesystem"
	"asset-cache/internal/logging"
	"asset-cache/internal/media"
)

var extensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif"}

// Dir serves bundled images from a directory. A name resolves to the first
// existing file among name, name.png, name.jpg, name.jpeg, name.webp and
// name.gif. Decoded images are kept, and misses are remembered.
type Dir struct {
	root  string
	retry filesystem.RetryConfig

	mu     sync.RWMutex
	images map[string]image.Image
	misses map[string]bool
}

// NewDir returns a bundle rooted at root. The directory need not exist.
func NewDir(root string) *Dir {
	return &Dir{
		root:   root,
		retry:  filesystem.DefaultRetryConfig(),
		images: make(map[string]image.Image),
		misses: make(map[string]bool),
	}
}

// validName rejects names that could escape the root.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// Lookup implements placeholder.Bundle.
func (d *Dir) Lookup(name string) (image.Image, bool) {
	if !validName(name) {
		return nil, false
	}

	d.mu.RLock()
	img, ok := d.images[name]
	missed := d.misses[name]
	d.mu.RUnlock()
	if ok {
		return img, true
	}
	if missed {
		return nil, false
	}

	img, ok = d.load(name)

	d.mu.Lock()
	if ok {
		d.images[name] = img
	} else {
		d.misses[name] = true
	}
	d.mu.Unlock()
	return img, ok
}

func (d *Dir) load(name string) (image.Image, bool) {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range extensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, c := range candidates {
		path := filepath.Join(d.root, c)
		data, err := filesystem.ReadFileWithRetry(path, d.retry)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logging.Warn("Assets: failed to read %s: %v", path, err)
			}
			continue
		}
		img, err := media.Decode(data)
		if err != nil {
			logging.Warn("Assets: %s is not a decodable image: %v", path, err)
			continue
		}
		logging.Debug("Assets: loaded %s", path)
		return img, true
	}
	return nil, false
}

// Forget drops remembered hits and misses, so files added since are found.
func (d *Dir) Forget() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.images = make(map[string]image.Image)
	d.misses = make(map[string]bool)
}

// Map is an in-memory bundle.
type Map map[string]image.Image

// Lookup implements placeholder.Bundle.
func (m Map) Lookup(name string) (image.Image, bool) {
	img, ok := m[name]
	return img, ok
}

// Bundle is the lookup interface shared by the bundle types.
type Bundle interface {
	Lookup(name string) (image.Image, bool)
}

// Chain consults each bundle in order.
type Chain []Bundle

// Lookup implements placeholder.Bundle.
func (c Chain) Lookup(name string) (image.Image, bool) {
	for _, b := range c {
		if b == nil {
			continue
		}
		if img, ok := b.Lookup(name); ok {
			return img, true
		}
	}
	return nil, false
}
