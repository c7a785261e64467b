package config

import (
	"os"
	"path/filepath"
	"time"

	"tunnelmaker/internal/logger"

	"github.com/joho/godotenv"
)

const LoggerName = "TUNNEL-MAKER"

func init() {
	envFiles := []string{
		".env",
	}

	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				logger.New(os.Stderr, LoggerName).Warn("Error loading %s: %v", envFile, err)
			}
		}
	}
}

func GetEnv(key string, defaultValue string) string {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	return value
}

// GetEnvDuration parses key as a time.Duration, falling back to defaultValue
// when it is unset or malformed.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)

	if err != nil || d <= 0 {
		return defaultValue
	}

	return d
}

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return homeDir
}

func getDefaultAPIConfigPath() string {
	homeDir := getHomeDir()
	if homeDir == "" {
		return filepath.Join(".config", "rescale", "apiconfig")
	}
	return filepath.Join(homeDir, ".config", "rescale", "apiconfig")
}

type Configuration struct {
	APIBaseURL    string
	APIConfigPath string
	APIProfile    string

	HTTPTimeout       time.Duration
	SSHConnectTimeout time.Duration

	LocalPortForwarding string
	KeyBits             int
}

var Config = &Configuration{
	APIBaseURL:    GetEnv("RESCALE_API_BASE_URL", "https://platform.rescale.com"),
	APIConfigPath: GetEnv("RESCALE_API_CONFIG_FILE", getDefaultAPIConfigPath()),
	APIProfile:    GetEnv("RESCALE_API_PROFILE", "default"),

	HTTPTimeout:       GetEnvDuration("TUNNEL_MAKER_HTTP_TIMEOUT", 60*time.Second),
	SSHConnectTimeout: GetEnvDuration("TUNNEL_MAKER_SSH_TIMEOUT", 20*time.Second),

	LocalPortForwarding: "47827:localhost:47827",
	KeyBits:             2048,
}
