package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultHTTPAddress   = ":8899"
	DefaultDataDir       = "./farmer-data"
	DefaultLogLevel      = "info"
	DefaultPassphraseEnv = "FARMER_ADMIN_PASSPHRASE"
	DefaultServiceName   = "farmerd"
)

type Config struct {
	DataDir     string `toml:"DataDir"`
	HTTPAddress string `toml:"HTTPAddress"`
	// ProgramID overrides the deployed program address (base58).
	ProgramID   string `toml:"ProgramID,omitempty"`
	Environment string `toml:"Environment,omitempty"`
	LogLevel    string `toml:"LogLevel"`
	LogFile     string `toml:"LogFile,omitempty"`

	Rent      Rent           `toml:"Rent"`
	Telemetry Telemetry      `toml:"Telemetry"`
	Genesis   []GenesisAlloc `toml:"Genesis,omitempty"`
	Bootstrap *Bootstrap     `toml:"Bootstrap,omitempty"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults(path string) {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = DefaultDataDir
	}
	if strings.TrimSpace(c.HTTPAddress) == "" {
		c.HTTPAddress = DefaultHTTPAddress
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
	if b := c.Bootstrap; b != nil {
		if b.PassphraseEnv == "" {
			b.PassphraseEnv = DefaultPassphraseEnv
		}
		if b.AdminKeystore == "" {
			b.AdminKeystore = defaultKeystorePath(path)
		}
		if b.AllowedPaymentTokens == nil {
			b.AllowedPaymentTokens = []string{}
		}
	}
}

// createDefault creates and saves a default configuration file. The default
// carries no bootstrap section, so the node starts read-only.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir:     DefaultDataDir,
		HTTPAddress: DefaultHTTPAddress,
		LogLevel:    DefaultLogLevel,
		Telemetry:   Telemetry{ServiceName: DefaultServiceName},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "admin.keystore")
}
