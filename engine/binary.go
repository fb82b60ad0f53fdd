package engine

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "whisper-cli.exe"
	}
	return "whisper-cli"
}

// FindBinary looks for whisper-cli in a whisper.cpp build tree under base,
// then on PATH.
func FindBinary(base string) (string, error) {
	name := binaryName()
	root := filepath.Join(base, "whisper.cpp", "build")
	candidates := []string{filepath.Join(root, "bin", name)}
	if runtime.GOOS == "windows" {
		candidates = []string{
			filepath.Join(root, "bin", "Release", name),
			filepath.Join(root, "bin", name),
			filepath.Join(root, "Release", name),
		}
	}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return c, nil
		}
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w (looked in %s and PATH)", ErrEngineMissing, filepath.Join(root, "bin"))
}
