package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Tickets TicketsConfig `yaml:"tickets"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

func (s StorageConfig) FlightsFile() string {
	return filepath.Join(s.DataDir, "flights.csv")
}

func (s StorageConfig) BookingsFile() string {
	return filepath.Join(s.DataDir, "bookings.csv")
}

func (s StorageConfig) WaitlistFile() string {
	return filepath.Join(s.DataDir, "waitlist.csv")
}

type TicketsConfig struct {
	Dir          string `yaml:"dir"`
	Airline      string `yaml:"airline"`
	SupportEmail string `yaml:"support_email"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
