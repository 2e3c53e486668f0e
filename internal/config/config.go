package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Server struct {
		Port        int      `mapstructure:"port"`
		CORSOrigins []string `mapstructure:"cors_origins"`
	} `mapstructure:"server"`
	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		// Disable skips Postgres entirely and keeps history in memory.
		Disable bool `mapstructure:"disable"`
	} `mapstructure:"db"`
	Oracle struct {
		BaseURL     string  `mapstructure:"base_url"`
		APIKey      string  `mapstructure:"api_key"`
		Model       string  `mapstructure:"model"`
		TimeoutSecs int     `mapstructure:"timeout_secs"`
		MaxRetries  int     `mapstructure:"max_retries"`
		Temperature float32 `mapstructure:"temperature"`
	} `mapstructure:"oracle"`
	Artifacts struct {
		CodeDir    string `mapstructure:"code_dir"`
		DiagramDir string `mapstructure:"diagram_dir"`
	} `mapstructure:"artifacts"`
	TLS struct {
		Enable    bool     `mapstructure:"enable"`
		CertFile  string   `mapstructure:"cert_file"`
		KeyFile   string   `mapstructure:"key_file"`
		Hostnames []string `mapstructure:"hostnames"`
	} `mapstructure:"tls"`
}

// LoadConfig loads the configuration from a file and the environment.
// An optional .env file is loaded first so ORACLE_API_KEY and friends can
// live outside config.yaml.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, err
		}
	} else {
		// best effort; a missing .env is fine
		_ = godotenv.Load()
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// config.yaml is optional; env vars and defaults carry a dev setup
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if key := viper.GetString("ORACLE_API_KEY"); key != "" {
		config.Oracle.APIKey = key
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.user", "postgres")
	viper.SetDefault("db.name", "brahma")
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("oracle.base_url", "https://api.openai.com/v1/chat/completions")
	viper.SetDefault("oracle.model", "gpt-4")
	viper.SetDefault("oracle.timeout_secs", 60)
	viper.SetDefault("oracle.max_retries", 2)
	viper.SetDefault("oracle.temperature", 0.3)
	viper.SetDefault("artifacts.code_dir", "data/generated_code")
	viper.SetDefault("artifacts.diagram_dir", "data/diagrams")
}
