package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"patchstack.dev/patchstack/internal/store"
)

const (
	// FileName is the name of the config file inside the patchstack directory
	FileName = "config.yaml"

	envPrefix = "PATCHSTACK"
)

// Color modes accepted by the color setting
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the settings patchstack reads at startup
type Config struct {
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int

	LockTimeout time.Duration

	// PushDefaultCount is how many patches push applies without arguments
	PushDefaultCount int

	Color string
}

// Path returns the config file location for a git directory
func Path(gitDir string) string {
	return filepath.Join(gitDir, store.DirName, FileName)
}

// Load reads the config of the repository whose git directory is gitDir.
// A missing file yields the defaults; environment variables override both.
func Load(gitDir string) (*Config, error) {
	v := newViper()
	if gitDir != "" {
		path := Path(gitDir)
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}
	return fromViper(v)
}

// WriteDefault writes a config file holding the defaults unless one exists
func WriteDefault(gitDir string) error {
	path := Path(gitDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("lock.timeout", store.DefaultLockTimeout.String())
	v.Set("push.default_count", 1)
	v.Set("color", ColorAuto)
	err := v.SafeWriteConfigAs(path)
	var exists viper.ConfigFileAlreadyExistsError
	if errors.As(err, &exists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// IsInitialized checks if patchstack has been initialized for branch
func IsInitialized(gitDir, branch string) bool {
	return store.NewFileStore(gitDir).IsInitialized(branch)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.file", defaultLogFile())
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("lock.timeout", store.DefaultLockTimeout)
	v.SetDefault("push.default_count", 1)
	v.SetDefault("color", ColorAuto)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		LogFile:          expandHome(v.GetString("log.file")),
		LogMaxSize:       v.GetInt("log.max_size"),
		LogMaxBackups:    v.GetInt("log.max_backups"),
		LogMaxAge:        v.GetInt("log.max_age"),
		LockTimeout:      v.GetDuration("lock.timeout"),
		PushDefaultCount: v.GetInt("push.default_count"),
		Color:            strings.ToLower(strings.TrimSpace(v.GetString("color"))),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting holds a usable value
func (c *Config) Validate() error {
	var problems []string
	if c.LogMaxSize < 0 || c.LogMaxBackups < 0 || c.LogMaxAge < 0 {
		problems = append(problems, "log.max_size, log.max_backups and log.max_age must not be negative")
	}
	if c.LockTimeout < 0 {
		problems = append(problems, "lock.timeout must not be negative")
	}
	if c.PushDefaultCount < 1 {
		problems = append(problems, fmt.Sprintf("push.default_count must be at least 1, got %d", c.PushDefaultCount))
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		problems = append(problems, fmt.Sprintf("color: %q is invalid (valid values: auto, always, never)", c.Color))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func defaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "patchstack", "logs", "patchstack.log")
	}
	return filepath.Join(home, ".patchstack", "logs", "patchstack.log")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
