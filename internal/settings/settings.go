package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"rodigy/internal/history"
	"rodigy/internal/storage"
)

var ErrInvalidSettings = errors.New("invalid settings")

const FileName = "rodigy.yaml"

// Settings is resolved in layers: defaults, then the settings file, then
// environment variables, then command-line flags.
type Settings struct {
	Store      string `yaml:"store" validate:"required,oneof=memory file sqlite"`
	DataDir    string `yaml:"data_dir" validate:"required"`
	DBPath     string `yaml:"db_path"`
	LogLevel   string `yaml:"log_level" validate:"required,oneof=debug info warn error"`
	HistoryTTL string `yaml:"history_ttl" validate:"required,ttl"`
}

// Overrides holds values supplied on the command line. Empty fields are unset.
type Overrides struct {
	ConfigPath string
	Store      string
	DataDir    string
	DBPath     string
	LogLevel   string
	HistoryTTL string
}

func Defaults() Settings {
	return Settings{
		Store:      storage.DefaultStoreKind(),
		DataDir:    defaultDataDir(),
		LogLevel:   "warn",
		HistoryTTL: history.DefaultTTL.String(),
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "rodigy")
	}
	return ".rodigy"
}

// Load resolves settings. getenv is normally os.Getenv.
func Load(flags Overrides, getenv func(string) string) (Settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	s := Defaults()

	dataDir := firstNonEmpty(flags.DataDir, getenv("RODIGY_DATA_DIR"), s.DataDir)
	path := firstNonEmpty(flags.ConfigPath, getenv("RODIGY_CONFIG"))
	explicit := path != ""
	if !explicit {
		path = filepath.Join(dataDir, FileName)
	}
	if err := s.mergeFile(path, explicit); err != nil {
		return Settings{}, err
	}

	s.apply(Overrides{
		Store:      getenv("RODIGY_STORE"),
		DataDir:    getenv("RODIGY_DATA_DIR"),
		DBPath:     getenv("RODIGY_DB_PATH"),
		LogLevel:   getenv("RODIGY_LOG_LEVEL"),
		HistoryTTL: getenv("RODIGY_HISTORY_TTL"),
	})
	s.apply(flags)
	s.LogLevel = strings.ToLower(s.LogLevel)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read settings %s: %w", path, err)
	}
	var file Settings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSettings, path, err)
	}
	s.apply(Overrides{
		Store:      file.Store,
		DataDir:    file.DataDir,
		DBPath:     file.DBPath,
		LogLevel:   file.LogLevel,
		HistoryTTL: file.HistoryTTL,
	})
	return nil
}

func (s *Settings) apply(o Overrides) {
	s.Store = firstNonEmpty(o.Store, s.Store)
	s.DataDir = firstNonEmpty(o.DataDir, s.DataDir)
	s.DBPath = firstNonEmpty(o.DBPath, s.DBPath)
	s.LogLevel = firstNonEmpty(o.LogLevel, s.LogLevel)
	s.HistoryTTL = firstNonEmpty(o.HistoryTTL, s.HistoryTTL)
}

func (s Settings) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("ttl", validTTL); err != nil {
		return err
	}
	if err := v.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

func validTTL(fl validator.FieldLevel) bool {
	_, err := history.ParseTTL(fl.Field().String())
	return err == nil
}

// TTL is the default retention window. Settings are validated on load so
// the parse cannot fail for a loaded value.
func (s Settings) TTL() history.TTL {
	ttl, err := history.ParseTTL(s.HistoryTTL)
	if err != nil {
		return history.DefaultTTL
	}
	return ttl
}

func (s Settings) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return level
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
