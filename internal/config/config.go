package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Archive ArchiveConfig
	Sandbox SandboxConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type ArchiveConfig struct {
	Root string
}

type SandboxConfig struct {
	Interpreter string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port: 4777,
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Archive: ArchiveConfig{
			Root: filepath.Join(dataDir, "archive"),
		},
		Sandbox: SandboxConfig{
			Interpreter: "python3",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "sanctum-data"
		}
	}
	return filepath.Join(dir, "sanctum")
}

// Load reads configuration from the config file backend and environment
// variables.
//
// The backend is a JSON file at $XDG_CONFIG_HOME/sanctum/config.json.
// Environment variables (SANCTUM_*) override backend values.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}
