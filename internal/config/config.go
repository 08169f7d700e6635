package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for droom.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Folder     string           `toml:"folder"` // active folder prefix, persisted by `droom folder set`
	Store      StoreConfig      `toml:"store"`
	Identity   IdentityConfig   `toml:"identity"`
	Upload     UploadConfig     `toml:"upload"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// StoreConfig represents configuration for the object store backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "s3", "filesystem", or "memory"

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"` // MinIO and other S3-compatible stores
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSStoreRoot string `toml:"fs_store_root,omitempty"`
}

// IdentityConfig represents configuration for the identity token provider.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type IdentityConfig struct {
	Type string `toml:"type"` // "static" or "jwt"

	// Static-specific fields (only used when Type == "static")
	Token string `toml:"token,omitempty"`

	// JWT-specific fields (only used when Type == "jwt")
	JWT       string `toml:"jwt,omitempty"`
	JWTSecret string `toml:"jwt_secret,omitempty"`
}

// UploadConfig holds upload orchestration settings.
type UploadConfig struct {
	Concurrency int   `toml:"concurrency"` // max files in flight; defaults to 4 when unset
	LingerMs    int64 `toml:"linger_ms"`   // how long finished tasks stay visible
}

// FilesystemConfig holds local file collection settings.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore"`
}

// NewConfig creates a new Config with the provided values and sensible
// defaults: a filesystem store under the base dir and a static identity.
func NewConfig(token, baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Store: StoreConfig{
			Type:        "filesystem",
			FSStoreRoot: filepath.Join(baseDir, "store"),
		},
		Identity: IdentityConfig{
			Type:  "static",
			Token: token,
		},
		Upload: UploadConfig{
			Concurrency: 4,
			LingerMs:    3000,
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// Save writes cfg to the specified path, replacing any existing file. Used
// to persist settings changed at runtime, such as the active folder.
func Save(path string, cfg *Config) error {
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}
