package util

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LocalBinEnvPath returns $HOME/.local/bin/.env, or "" when home is unknown.
func LocalBinEnvPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".local", "bin", ".env")
}

// LoadDotEnv loads ./.env and then $HOME/.local/bin/.env. Variables that are
// already set are never overwritten, so the working directory file wins over
// the fallback and the real environment wins over both. Missing files are
// skipped; it returns the files that were loaded.
func LoadDotEnv() ([]string, error) {
	var loaded []string
	for _, path := range []string{".env", LocalBinEnvPath()} {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}
