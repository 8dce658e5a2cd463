package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	envAPIURL = "LAZYTEAM_API_URL"
	envDBPath = "LAZYTEAM_DB"
	envPort   = "LAZYTEAM_PORT"
)

type Config struct {
	APIURL         string `json:"api_url" yaml:"api_url"`
	DBPath         string `json:"db_path" yaml:"db_path"`
	LogPath        string `json:"log_path" yaml:"log_path"`
	ServerEnabled  bool   `json:"server_enabled" yaml:"server_enabled"`
	ServerPort     int    `json:"server_port" yaml:"server_port"`
	RequestTimeout int    `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
}

func Default() Config {
	return Config{ServerPort: 8080, RequestTimeout: 10}
}

func (c Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazyteam", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv loads envFile (when present) into the process environment and
// overlays the LAZYTEAM_* variables onto cfg. Variables already set in the
// environment win over the file.
func ApplyEnv(cfg Config, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if value := strings.TrimSpace(os.Getenv(envAPIURL)); value != "" {
		cfg.APIURL = value
	}
	if value := strings.TrimSpace(os.Getenv(envDBPath)); value != "" {
		cfg.DBPath = value
	}
	if value := strings.TrimSpace(os.Getenv(envPort)); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return cfg, fmt.Errorf("parse %s: %w", envPort, err)
		}
		cfg.ServerPort = port
	}
	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
