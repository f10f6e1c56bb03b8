package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultAppName = "memebot"

var (
	// ConfiguredAppName names the per-user data directories. Set it with SetAppName.
	ConfiguredAppName string

	// ApplicationCachesPath is recomputed by SetAppName.
	ApplicationCachesPath = GetApplicationCachesPath()
)

// AppVersion is the version reported in the startup banner.
var AppVersion string

// SetAppVersion sets the version reported in the startup banner.
func SetAppVersion(v string) {
	AppVersion = v
}

// SetAppName sets the application name and recomputes base paths.
func SetAppName(name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	ConfiguredAppName = sanitizeName(name)
	ApplicationCachesPath = GetApplicationCachesPath()
}

// EffectiveAppName returns the configured name or the default.
func EffectiveAppName() string {
	if n := strings.TrimSpace(ConfiguredAppName); n != "" {
		return n
	}
	return defaultAppName
}

// GetApplicationCachesPath returns the base path for cache files:
//   - Linux/Unix:  ~/.cache/<AppName>
//   - macOS:       ~/Library/Caches/<AppName>
//   - Windows:     %APPDATA%/<AppName>/Cache
func GetApplicationCachesPath() string {
	app := EffectiveAppName()
	if dir := strings.TrimSpace(platformCacheDir(app)); dir != "" {
		return dir
	}
	return filepath.Join(".", "cache", app)
}

// GetUsageDBPath returns the SQLite path for the template usage tally.
// Layout: <CachesBase>/usage/usage.db
func GetUsageDBPath() string {
	return filepath.Join(ApplicationCachesPath, "usage", "usage.db")
}

// GetLogFilePath returns the path to the main log file:
//   - Linux/Unix:  ~/.log/<AppName>/memebot.log
//   - macOS:       ~/Library/Logs/<AppName>/memebot.log
//   - Windows:     %APPDATA%/<AppName>/Logs/memebot.log
func GetLogFilePath() string {
	app := EffectiveAppName()
	base := strings.TrimSpace(platformLogDir(app))
	if base == "" {
		base = filepath.Join(".", "logs", app)
	}
	return filepath.Join(base, defaultAppName+".log")
}

// EnsureParentDir creates the directory holding path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

func sanitizeName(s string) string {
	out := strings.TrimSpace(s)
	out = strings.ReplaceAll(out, "/", "-")
	out = strings.ReplaceAll(out, string(filepath.Separator), "-")
	if out == "" {
		return defaultAppName
	}
	return out
}
