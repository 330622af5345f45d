package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

type Config struct {
	ServerPort           string  `json:"server_port"`
	DatabasePath         string  `json:"database_path"`
	JWTSecret            string  `json:"jwt_secret"`
	Production           bool    `json:"production"`
	SessionDurationHours int     `json:"session_duration_hours"`
	DgisAPIKey           string  `json:"dgis_api_key"`
	DgisBaseURL          string  `json:"dgis_base_url"`
	PlacesTimeoutSeconds int     `json:"places_timeout_seconds"`
	DefaultSearchRadius  int     `json:"default_search_radius"`
	DefaultMinRating     float64 `json:"default_min_rating"`
}

var (
	instance *Config
	once     sync.Once
)

func generateSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)
}

func getConfigPath() string {
	configDir := os.Getenv("WHERE2GO_CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			configDir = "."
		} else {
			configDir = filepath.Join(homeDir, ".where2go")
		}
	}
	return filepath.Join(configDir, "config.json")
}

func GetConfig() *Config {
	once.Do(func() {
		instance = &Config{
			ServerPort:   "8080",
			DatabasePath: "",
			JWTSecret:    "",
			Production:   false,
		}

		configPath := getConfigPath()

		// Try to load existing config
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, instance); err != nil {
				// Config file is corrupted, will use defaults
			}
		}

		// Set defaults
		if instance.SessionDurationHours == 0 {
			instance.SessionDurationHours = 24
		}
		if instance.DgisBaseURL == "" {
			instance.DgisBaseURL = "https://catalog.api.2gis.com"
		}
		if instance.PlacesTimeoutSeconds == 0 {
			instance.PlacesTimeoutSeconds = 5
		}
		if instance.DefaultSearchRadius == 0 {
			instance.DefaultSearchRadius = 1000
		}
		if instance.DefaultMinRating == 0 {
			instance.DefaultMinRating = 4.0
		}

		// Generate secrets if not set
		needsSave := false
		if instance.JWTSecret == "" {
			instance.JWTSecret = generateSecret(32)
			needsSave = true
		}
		if instance.DatabasePath == "" {
			configDir := filepath.Dir(configPath)
			instance.DatabasePath = filepath.Join(configDir, "where2go.db")
			needsSave = true
		}

		// Override with environment variables
		if port := os.Getenv("WHERE2GO_PORT"); port != "" {
			instance.ServerPort = port
		}
		if dbPath := os.Getenv("WHERE2GO_DB_PATH"); dbPath != "" {
			instance.DatabasePath = dbPath
		}
		if key := os.Getenv("WHERE2GO_DGIS_KEY"); key != "" {
			instance.DgisAPIKey = key
		}
		if base := os.Getenv("WHERE2GO_DGIS_URL"); base != "" {
			instance.DgisBaseURL = base
		}
		if os.Getenv("WHERE2GO_PRODUCTION") == "true" {
			instance.Production = true
		}

		// Save config if we generated new secrets
		if needsSave {
			instance.Save()
		}
	})

	return instance
}

func (c *Config) Save() error {
	configPath := getConfigPath()

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}
