package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type MetadataConfig struct {
	Backend    string `yaml:"backend"`
	SqlitePath string `yaml:"sqlite_path"`
	PoolSize   int    `yaml:"pool_size"`
}

type BlobStoreConfig struct {
	Backend     string `yaml:"backend"`
	BaseDir     string `yaml:"base_dir"`
	Compress    bool   `yaml:"compress"`
	Endpoint    string `yaml:"endpoint"`
	StorageZone string `yaml:"storage_zone"`
	AccessKey   string `yaml:"access_key"`
}

type SweepConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	Limit           int `yaml:"limit"`
}

type Config struct {
	ListenAddress string          `yaml:"listen_address"`
	LogDir        string          `yaml:"log_dir"`
	Metadata      MetadataConfig  `yaml:"metadata"`
	BlobStore     BlobStoreConfig `yaml:"blob_store"`
	Sweep         SweepConfig     `yaml:"sweep"`
}

func defaultConfig() *Config {
	return &Config{
		ListenAddress: ":8080",
		LogDir:        "./logs",
		Metadata: MetadataConfig{
			Backend:    "sqlite",
			SqlitePath: "./data/casfs.db",
		},
		BlobStore: BlobStoreConfig{
			Backend:  "localdisc",
			BaseDir:  "./data/blobs",
			Compress: true,
		},
		Sweep: SweepConfig{
			IntervalSeconds: 300,
			Limit:           1000,
		},
	}
}

// LoadConfig reads the config at path, writing the defaults there first
// when no file exists yet.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		config := defaultConfig()

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}
		data, err := yaml.Marshal(config)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return config, nil
}
