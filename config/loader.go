package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "roadgraph.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/roadgraph"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
	// EnvFile is read from the working directory before the process environment
	EnvFile = ".env"
	// EnvPrefix prefixes every environment variable the loader reads
	EnvPrefix = "ROADGRAPH_"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger    *slog.Logger
	workDir   string
	homeDir   string
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger, lookupEnv: os.LookupEnv}
	if cwd, err := os.Getwd(); err == nil {
		l.workDir = cwd
	}
	if home, err := os.UserHomeDir(); err == nil {
		l.homeDir = home
	}
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/roadgraph/config.yaml)
// 3. Project config (roadgraph.yaml in current or parent directories), or
// explicitPath when it is not empty
// 4. .env file in the current directory
// 5. ROADGRAPH_* environment variables
func (l *Loader) Load(explicitPath string) (*Config, error) {
	config, err := l.LoadUnvalidated(explicitPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadUnvalidated merges the same layers as Load but leaves validation to the
// caller, so later overrides such as CLI flags can still correct a bad value.
// Values that cannot be parsed at all are still reported.
func (l *Loader) LoadUnvalidated(explicitPath string) (*Config, error) {
	config := DefaultConfig()

	userConfigPath := l.userConfigPath()
	if userConfigPath != "" {
		if userConfig, err := readLayer(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	if explicitPath != "" {
		explicitConfig, err := readLayer(explicitPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config", slog.String("path", explicitPath))
		config.Merge(explicitConfig)
	} else if projectConfigPath := l.findProjectConfig(); projectConfigPath != "" {
		if projectConfig, err := readLayer(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	envConfig, err := l.envLayer()
	if err != nil {
		return nil, err
	}
	config.Merge(envConfig)

	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()
	if userConfigPath == "" {
		return errors.New("no home directory for user config")
	}

	if _, err := os.Stat(userConfigPath); err == nil {
		return nil
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	if l.homeDir == "" {
		return ""
	}
	return filepath.Join(l.homeDir, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for roadgraph.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	if l.workDir == "" {
		return ""
	}

	dir := l.workDir
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// envLayer builds a config layer from the .env file and the process
// environment. Process variables win over the file.
func (l *Loader) envLayer() (*Config, error) {
	fileEnv := map[string]string{}
	if l.workDir != "" {
		path := filepath.Join(l.workDir, EnvFile)
		values, err := godotenv.Read(path)
		switch {
		case err == nil:
			l.logger.Debug("Loaded env file", slog.String("path", path))
			fileEnv = values
		case !errors.Is(err, os.ErrNotExist):
			l.logger.Warn("Failed to read env file", slog.String("path", path), slog.String("error", err.Error()))
		}
	}

	get := func(name string) string {
		key := EnvPrefix + name
		if v, ok := l.lookupEnv(key); ok {
			return v
		}
		return fileEnv[key]
	}

	layer := &Config{
		Input:  get("INPUT"),
		Output: get("OUTPUT"),
		Format: get("FORMAT"),
		Policy: PolicyConfig{
			MissingData:  get("MISSING_DATA"),
			DanglingRefs: get("DANGLING_REFS"),
		},
		Metrics: MetricsConfig{Textfile: get("METRICS_TEXTFILE")},
		NATS: NATSConfig{
			URL:     get("NATS_URL"),
			Subject: get("NATS_SUBJECT"),
		},
	}

	if v := get("LINK_UPSTREAM"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %sLINK_UPSTREAM: %w", ErrInvalidConfig, EnvPrefix, err)
		}
		layer.LinkUpstream = b
	}
	if v := get("WATCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %sWATCH: %w", ErrInvalidConfig, EnvPrefix, err)
		}
		layer.Watch.Enabled = b
	}
	if v := get("WATCH_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %sWATCH_DEBOUNCE: %w", ErrInvalidConfig, EnvPrefix, err)
		}
		layer.Watch.Debounce = d
	}

	return layer, nil
}
