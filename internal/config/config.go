package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"courier/internal/domain"
	"courier/internal/eventbus"
)

const (
	FileName  = "config.toml"
	EnvPrefix = "COURIER_"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Duration is a time.Duration that reads and writes as "300ms", "5s", ...
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the application configuration
type Config struct {
	Version int             `toml:"version"`
	Upload  UploadSettings  `toml:"upload" envPrefix:"UPLOAD_"`
	Storage StorageSettings `toml:"storage" envPrefix:"STORAGE_"`
	Search  SearchSettings  `toml:"search" envPrefix:"SEARCH_"`
	Recent  RecentSettings  `toml:"recent" envPrefix:"RECENT_"`
	Log     LogSettings     `toml:"log" envPrefix:"LOG_"`
}

// UploadSettings configure the upload queue
type UploadSettings struct {
	MaxFiles          int      `toml:"max_files" env:"MAX_FILES"`
	MaxFileSize       string   `toml:"max_file_size" env:"MAX_FILE_SIZE"` // e.g. "25 MB"
	AllowedCategories []string `toml:"allowed_categories" env:"ALLOWED_CATEGORIES" envSeparator:","`
	AutoUpload        bool     `toml:"auto_upload" env:"AUTO_UPLOAD"`
	MaxConcurrent     int      `toml:"max_concurrent" env:"MAX_CONCURRENT"`
	ChannelID         string   `toml:"channel_id" env:"CHANNEL_ID"`
	ServerID          string   `toml:"server_id" env:"SERVER_ID"`
	Description       string   `toml:"description" env:"DESCRIPTION"`
}

// MaxFileSizeBytes parses MaxFileSize; zero means unlimited
func (u UploadSettings) MaxFileSizeBytes() (int64, error) {
	if strings.TrimSpace(u.MaxFileSize) == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(u.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: upload.max_file_size %q: %v", ErrInvalidConfig, u.MaxFileSize, err)
	}
	return int64(n), nil
}

// StorageSettings select and configure the upload backend
type StorageSettings struct {
	Provider      string `toml:"provider" env:"PROVIDER"` // local, s3 or minio
	Endpoint      string `toml:"endpoint" env:"ENDPOINT"`
	Region        string `toml:"region" env:"REGION"`
	Bucket        string `toml:"bucket" env:"BUCKET"`
	Prefix        string `toml:"prefix" env:"PREFIX"`
	AccessKey     string `toml:"access_key" env:"ACCESS_KEY"`
	SecretKey     string `toml:"secret_key" env:"SECRET_KEY"`
	UseSSL        bool   `toml:"use_ssl" env:"USE_SSL"`
	PathStyle     bool   `toml:"path_style" env:"PATH_STYLE"`
	PublicBaseURL string `toml:"public_base_url" env:"PUBLIC_BASE_URL"`
	LocalDir      string `toml:"local_dir" env:"LOCAL_DIR"`
	RetryCount    uint   `toml:"retry_count" env:"RETRY_COUNT"`
}

// SearchSettings select and configure the search backend
type SearchSettings struct {
	Provider            string   `toml:"provider" env:"PROVIDER"` // local or http
	APIBaseURL          string   `toml:"api_base_url" env:"API_BASE_URL"`
	APIToken            string   `toml:"api_token" env:"API_TOKEN"`
	Timeout             Duration `toml:"timeout" env:"TIMEOUT"`
	Debounce            Duration `toml:"debounce" env:"DEBOUNCE"`
	MinSuggestLength    int      `toml:"min_suggest_length" env:"MIN_SUGGEST_LENGTH"`
	PageSize            int      `toml:"page_size" env:"PAGE_SIZE"`
	RecentLimit         int      `toml:"recent_limit" env:"RECENT_LIMIT"`
	SuggestionCacheSize int      `toml:"suggestion_cache_size" env:"SUGGESTION_CACHE_SIZE"`
	SuggestionCacheTTL  Duration `toml:"suggestion_cache_ttl" env:"SUGGESTION_CACHE_TTL"`
	Dataset             string   `toml:"dataset" env:"DATASET"`
}

// RecentSettings select where recent queries are persisted
type RecentSettings struct {
	Backend string `toml:"backend" env:"BACKEND"` // sqlite, file or memory
	Path    string `toml:"path" env:"PATH"`
}

// LogSettings configure the log file
type LogSettings struct {
	Level      string `toml:"level" env:"LEVEL"`
	File       string `toml:"file" env:"FILE"`
	MaxSizeMB  int    `toml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `toml:"max_backups" env:"MAX_BACKUPS"`
}

// ConfigService handles configuration management
type ConfigService interface {
	EnsureFile() (bool, error)
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
	Dir() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	fs       afero.Fs
	dir      string
	filePath string
	environ  []string
	envFiles []string
}

// Option customises the config service
type Option func(*configService)

// WithBus publishes ConfigLoaded/ConfigSaved events on bus
func WithBus(bus eventbus.EventBus) Option {
	return func(cs *configService) { cs.bus = bus }
}

// WithFs replaces the filesystem the service reads and writes
func WithFs(fs afero.Fs) Option {
	return func(cs *configService) { cs.fs = fs }
}

// WithDir overrides the configuration directory
func WithDir(dir string) Option {
	return func(cs *configService) {
		cs.dir = dir
		cs.filePath = filepath.Join(dir, FileName)
	}
}

// WithFile points the service at an explicit config file; relative paths
// in it resolve against the file's directory
func WithFile(path string) Option {
	return func(cs *configService) {
		cs.dir = filepath.Dir(path)
		cs.filePath = path
	}
}

// WithEnviron replaces the process environment used for overrides
func WithEnviron(environ []string) Option {
	return func(cs *configService) { cs.environ = append([]string{}, environ...) }
}

// WithEnvFiles sets the dotenv files read before the environment
func WithEnvFiles(files ...string) Option {
	return func(cs *configService) { cs.envFiles = files }
}

// NewConfigService creates a new config service rooted in the user
// configuration directory
func NewConfigService(opts ...Option) ConfigService {
	cs := &configService{
		fs:       afero.NewOsFs(),
		envFiles: []string{".env"},
	}
	WithDir(DefaultDir())(cs)
	for _, opt := range opts {
		opt(cs)
	}
	if cs.environ == nil {
		cs.environ = os.Environ()
	}
	return cs
}

// DefaultDir returns the directory holding config, logs and the recent db
func DefaultDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "courier")
}

func (cs *configService) Path() string { return cs.filePath }
func (cs *configService) Dir() string  { return cs.dir }

// EnsureFile writes the default configuration when no config file exists
// yet, so the first run leaves an editable file behind. It reports
// whether a file was created.
func (cs *configService) EnsureFile() (bool, error) {
	exists, err := afero.Exists(cs.fs, cs.filePath)
	if err != nil {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}
	if exists {
		return false, nil
	}
	if err := cs.Save(DefaultConfig()); err != nil {
		return false, err
	}
	return true, nil
}

// Load reads the config file if present, applies dotenv and environment
// overrides and fills relative paths
func (cs *configService) Load() (*Config, error) {
	cfg := DefaultConfig()

	exists, err := afero.Exists(cs.fs, cs.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if exists {
		if cfg, err = cs.LoadFromPath(cs.filePath); err != nil {
			return nil, err
		}
	}

	if err := cs.applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.ResolvePaths(cs.dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cs.bus != nil {
		cs.bus.Publish(domain.ConfigLoadedEvent{Path: cs.filePath})
	}
	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}

	if cs.bus != nil {
		cs.bus.Publish(domain.ConfigSavedEvent{Path: cs.filePath})
	}
	return nil
}

// LoadFromPath loads configuration from a specific path. Keys absent
// from the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := afero.ReadFile(cs.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	if err := cs.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(config); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(cs.fs, path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyEnv overlays dotenv values and then the process environment
func (cs *configService) applyEnv(cfg *Config) error {
	environment := make(map[string]string)

	for _, name := range cs.envFiles {
		data, err := afero.ReadFile(cs.fs, name)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}
			continue
		}
		values, err := godotenv.UnmarshalBytes(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
		for k, v := range values {
			environment[k] = v
		}
	}

	for _, kv := range cs.environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environment[k] = v
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environment,
	}); err != nil {
		return fmt.Errorf("failed to apply environment: %w", err)
	}
	return nil
}

// ResolvePaths makes file locations absolute relative to dir
func (c *Config) ResolvePaths(dir string) {
	resolve := func(p *string, def string) {
		if *p == "" {
			*p = def
		}
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	resolve(&c.Recent.Path, "recent.db")
	resolve(&c.Log.File, "courier.log")
	resolve(&c.Storage.LocalDir, "uploads")
}

// Validate rejects settings no component can work with
func (c *Config) Validate() error {
	var errs []error

	if c.Upload.MaxFiles < 0 {
		errs = append(errs, fmt.Errorf("upload.max_files must not be negative"))
	}
	if c.Upload.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("upload.max_concurrent must not be negative"))
	}
	if _, err := c.Upload.MaxFileSizeBytes(); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains([]string{"local", "s3", "minio"}, c.Storage.Provider) {
		errs = append(errs, fmt.Errorf("storage.provider %q is not one of local, s3, minio", c.Storage.Provider))
	}
	if (c.Storage.Provider == "s3" || c.Storage.Provider == "minio") && c.Storage.Bucket == "" {
		errs = append(errs, fmt.Errorf("storage.bucket is required for %s", c.Storage.Provider))
	}
	if c.Storage.Provider == "minio" && c.Storage.Endpoint == "" {
		errs = append(errs, fmt.Errorf("storage.endpoint is required for minio"))
	}
	if !slices.Contains([]string{"local", "http"}, c.Search.Provider) {
		errs = append(errs, fmt.Errorf("search.provider %q is not one of local, http", c.Search.Provider))
	}
	if c.Search.Provider == "http" && c.Search.APIBaseURL == "" {
		errs = append(errs, fmt.Errorf("search.api_base_url is required for http"))
	}
	if c.Search.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("search.page_size must be positive"))
	}
	if !slices.Contains([]string{"sqlite", "file", "memory"}, c.Recent.Backend) {
		errs = append(errs, fmt.Errorf("recent.backend %q is not one of sqlite, file, memory", c.Recent.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Upload: UploadSettings{
			MaxFiles:          10,
			MaxFileSize:       "25 MB",
			AllowedCategories: []string{"image", "video", "audio", "document"},
			AutoUpload:        false,
			MaxConcurrent:     3,
		},
		Storage: StorageSettings{
			Provider:   "local",
			Region:     "us-east-1",
			UseSSL:     true,
			RetryCount: 3,
		},
		Search: SearchSettings{
			Provider:            "local",
			Timeout:             Duration(10 * time.Second),
			Debounce:            Duration(300 * time.Millisecond),
			MinSuggestLength:    2,
			PageSize:            20,
			RecentLimit:         10,
			SuggestionCacheSize: 128,
			SuggestionCacheTTL:  Duration(time.Minute),
		},
		Recent: RecentSettings{
			Backend: "sqlite",
		},
		Log: LogSettings{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}
