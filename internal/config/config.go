// Package config resolves notesmirror settings from defaults, an optional
// YAML file, .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultScript selects the AppleScript built into the binary.
	DefaultScript      = ""
	DefaultInterpreter = "osascript"
	DefaultWorkers     = 4
)

// Config holds the settings shared by all commands.
type Config struct {
	Script      string `yaml:"script"`
	Interpreter string `yaml:"interpreter"`
	Workers     int    `yaml:"workers"`
	Extract     bool   `yaml:"extract"`
	Verbose     bool   `yaml:"verbose"`

	// File is the config file that was read, empty if none was found.
	File string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Script:      DefaultScript,
		Interpreter: DefaultInterpreter,
		Workers:     DefaultWorkers,
		Extract:     true,
	}
}

// Dir returns the notesmirror configuration directory.
//
// Resolution:
//   - $XDG_CONFIG_HOME/notesmirror if set
//   - %AppData%/notesmirror on Windows
//   - ~/.config/notesmirror otherwise
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "notesmirror")
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "notesmirror")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "notesmirror")
}

// FilePath returns the config file location: $NOTESMIRROR_CONFIG if set,
// else config.yaml under Dir.
func FilePath() string {
	if p := os.Getenv("NOTESMIRROR_CONFIG"); p != "" {
		return p
	}
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// LoadEnvFiles loads .env.local then .env from the working directory.
// Variables that are already set are never overridden.
func LoadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

// Load builds a Config from defaults, the config file and the environment,
// in increasing order of precedence. A missing config file is not an error.
func Load() (Config, error) {
	cfg := Default()

	if path := FilePath(); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.File = path
	return nil
}

func (c *Config) mergeEnv() error {
	if v := os.Getenv("NOTESMIRROR_SCRIPT"); v != "" {
		c.Script = v
	}
	if v := os.Getenv("NOTESMIRROR_INTERPRETER"); v != "" {
		c.Interpreter = v
	}
	if v := os.Getenv("NOTESMIRROR_WORKERS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid NOTESMIRROR_WORKERS %q: %w", v, err)
		}
		c.Workers = n
	}
	if v := os.Getenv("NOTESMIRROR_EXTRACT"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid NOTESMIRROR_EXTRACT %q: %w", v, err)
		}
		c.Extract = b
	}
	if v := os.Getenv("NOTESMIRROR_VERBOSE"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid NOTESMIRROR_VERBOSE %q: %w", v, err)
		}
		c.Verbose = b
	}
	return nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Script != "" && strings.TrimSpace(c.Script) == "" {
		errs = append(errs, errors.New("script path must not be blank"))
	}
	if strings.TrimSpace(c.Interpreter) == "" {
		errs = append(errs, errors.New("interpreter must not be empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	return errors.Join(errs...)
}
