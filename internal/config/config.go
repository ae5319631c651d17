package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir      string
	DBPath       string
	OutputDir    string
	RegistryPath string
}

func New() (*Config, error) {
	godotenv.Load()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dataDir := getEnv("AGENTPROBE_DATA_DIR", filepath.Join(homeDir, ".agentprobe"))

	c := &Config{
		DataDir:      dataDir,
		DBPath:       filepath.Join(dataDir, "agentprobe.db"),
		OutputDir:    getEnv("AGENTPROBE_OUTPUT_DIR", "specs"),
		RegistryPath: getEnv("AGENTPROBE_REGISTRY", filepath.Join(dataDir, "skills-registry.json")),
	}

	return c, nil
}

func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
