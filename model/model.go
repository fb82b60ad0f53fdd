// Package model catalogs the whisper.cpp ggml model files available on disk.
package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrNotFound      = errors.New("model not found")
	ErrNotDownloaded = errors.New("model not downloaded")
)

const DefaultName = "base"

// downloadBase is where setup scripts fetch ggml models from.
const downloadBase = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

type Descriptor struct {
	Name       string
	Label      string
	File       string
	Path       string
	Size       string
	Bytes      int64
	Downloaded bool
}

func (d Descriptor) URL() string {
	return downloadBase + d.File
}

type preset struct {
	name, label, file, size string
}

var presets = []preset{
	{"large-v3", "Large V3 (Best Quality)", "ggml-large-v3.bin", "~3GB"},
	{"medium", "Medium (Balanced)", "ggml-medium.bin", "~1.5GB"},
	{"base", "Base (Fast)", "ggml-base.bin", "~142MB"},
	{"tiny", "Tiny (Fastest)", "ggml-tiny.bin", "~75MB"},
}

// Catalog maps model names to descriptors. Built-in presets always appear;
// any other ggml-*.bin file in the directory is added after them.
type Catalog struct {
	dir    string
	models []Descriptor
}

func Load(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir}
	if err := c.Refresh(); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh re-reads the models directory. A missing directory is not an
// error; every model is then reported as not downloaded.
func (c *Catalog) Refresh() error {
	models := make([]Descriptor, 0, len(presets))
	seen := make(map[string]bool)
	for _, p := range presets {
		d := Descriptor{
			Name:  p.name,
			Label: p.label,
			File:  p.file,
			Path:  filepath.Join(c.dir, p.file),
			Size:  p.size,
		}
		stat(&d)
		models = append(models, d)
		seen[p.file] = true
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading models dir: %w", err)
	}
	var extra []Descriptor
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || seen[name] || !strings.HasPrefix(name, "ggml-") || !strings.HasSuffix(name, ".bin") {
			continue
		}
		short := strings.TrimSuffix(strings.TrimPrefix(name, "ggml-"), ".bin")
		d := Descriptor{
			Name:  short,
			Label: short,
			File:  name,
			Path:  filepath.Join(c.dir, name),
		}
		stat(&d)
		d.Size = humanSize(d.Bytes)
		extra = append(extra, d)
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Name < extra[j].Name })
	c.models = append(models, extra...)
	return nil
}

func stat(d *Descriptor) {
	fi, err := os.Stat(d.Path)
	if err != nil || fi.IsDir() || fi.Size() == 0 {
		return
	}
	d.Downloaded = true
	d.Bytes = fi.Size()
}

func (c *Catalog) Dir() string { return c.dir }

// All returns descriptors in display order.
func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, len(c.models))
	copy(out, c.models)
	return out
}

// Find resolves a short name, label or file name.
func (c *Catalog) Find(name string) (Descriptor, error) {
	key := strings.TrimSpace(name)
	for _, d := range c.models {
		if strings.EqualFold(d.Name, key) || d.Label == key || d.File == key {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Lookup is Find restricted to models present on disk.
func (c *Catalog) Lookup(name string) (Descriptor, error) {
	d, err := c.Find(name)
	if err != nil {
		return d, err
	}
	if !d.Downloaded {
		return d, fmt.Errorf("%w: %s (expected %s)", ErrNotDownloaded, d.Name, d.Path)
	}
	return d, nil
}

// Downloaded returns the models present on disk.
func (c *Catalog) Downloaded() []Descriptor {
	var out []Descriptor
	for _, d := range c.models {
		if d.Downloaded {
			out = append(out, d)
		}
	}
	return out
}

// FindDir locates the models directory the way whisper.cpp checkouts lay it
// out: <base>/whisper.cpp/models, then the models dir next to the binary's
// build tree, falling back to <base>/models.
func FindDir(base, binary string) string {
	candidates := []string{filepath.Join(base, "whisper.cpp", "models")}
	if binary != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(binary), "..", "..", "models"))
	}
	for _, dir := range candidates {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return filepath.Clean(dir)
		}
	}
	return filepath.Join(base, "models")
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fGB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%dMB", n>>20)
	case n > 0:
		return fmt.Sprintf("%dKB", max(n>>10, 1))
	}
	return ""
}
