package log

import (
	"os"
	"path/filepath"
	"runtime"
)

// EnvPath overrides the default log directory when -logpath is not given.
const EnvPath = "VOICECLIP_LOG_PATH"

// ResolveDir picks the log directory: the flag value, then $VOICECLIP_LOG_PATH,
// then the platform default. Relative paths are made absolute.
func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		return filepath.Abs(flagPath)
	}
	if p := os.Getenv(EnvPath); p != "" {
		return filepath.Abs(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return defaultDir(runtime.GOOS, home, os.Getenv), nil
}

func defaultDir(goos, home string, getenv func(string) string) string {
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Logs", "voiceclip")
	case "windows":
		base := getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(base, "voiceclip", "logs")
	}
	base := getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "voiceclip", "logs")
}
