package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeModel(t *testing.T, dir, file string, size int) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, file), make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCatalogPresetsAndExtras(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "ggml-base.bin", 2048)
	writeModel(t, dir, "ggml-small.en.bin", 4096)
	writeModel(t, dir, "notes.txt", 10)

	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	all := c.All()
	if len(all) != 5 {
		t.Fatalf("got %d models, want 4 presets + 1 extra", len(all))
	}
	if all[0].Name != "large-v3" || all[4].Name != "small.en" {
		t.Errorf("unexpected order: first=%s last=%s", all[0].Name, all[4].Name)
	}

	base, err := c.Lookup("base")
	if err != nil {
		t.Fatal(err)
	}
	if !base.Downloaded || base.Bytes != 2048 || base.Label != "Base (Fast)" {
		t.Errorf("base descriptor = %+v", base)
	}
	if got := c.Downloaded(); len(got) != 2 {
		t.Errorf("downloaded = %d, want 2", len(got))
	}
}

func TestLookupErrors(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Lookup("huge"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown model err = %v, want ErrNotFound", err)
	}
	if _, err := c.Lookup("tiny"); !errors.Is(err, ErrNotDownloaded) {
		t.Errorf("missing file err = %v, want ErrNotDownloaded", err)
	}
}

func TestFindByLabelAndFile(t *testing.T) {
	c, _ := Load(t.TempDir())
	for _, key := range []string{"Medium (Balanced)", "ggml-medium.bin", "MEDIUM"} {
		d, err := c.Find(key)
		if err != nil {
			t.Fatalf("Find(%q): %v", key, err)
		}
		if d.Name != "medium" {
			t.Errorf("Find(%q) = %s, want medium", key, d.Name)
		}
	}
}

func TestRefreshPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	c, _ := Load(dir)
	if _, err := c.Lookup("tiny"); err == nil {
		t.Fatal("tiny should not be downloaded yet")
	}
	writeModel(t, dir, "ggml-tiny.bin", 100)
	if err := c.Refresh(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Lookup("tiny"); err != nil {
		t.Errorf("after refresh: %v", err)
	}
}

func TestEmptyFileNotDownloaded(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "ggml-base.bin", 0)
	c, _ := Load(dir)
	if _, err := c.Lookup("base"); !errors.Is(err, ErrNotDownloaded) {
		t.Errorf("empty file err = %v, want ErrNotDownloaded", err)
	}
}

func TestFindDir(t *testing.T) {
	base := t.TempDir()
	if got, want := FindDir(base, ""), filepath.Join(base, "models"); got != want {
		t.Errorf("fallback = %q, want %q", got, want)
	}

	bin := filepath.Join(base, "opt", "whisper.cpp", "build", "bin", "whisper-cli")
	beside := filepath.Join(base, "opt", "whisper.cpp", "models")
	os.MkdirAll(beside, 0755)
	if got := FindDir(base, bin); got != beside {
		t.Errorf("beside binary = %q, want %q", got, beside)
	}

	primary := filepath.Join(base, "whisper.cpp", "models")
	os.MkdirAll(primary, 0755)
	if got := FindDir(base, bin); got != primary {
		t.Errorf("primary = %q, want %q", got, primary)
	}
}

func TestURL(t *testing.T) {
	c, _ := Load(t.TempDir())
	d, _ := c.Find("base")
	if d.URL() != "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin" {
		t.Errorf("URL = %s", d.URL())
	}
}
