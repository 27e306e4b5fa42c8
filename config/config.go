// Package config loads runtime settings from flags, environment, .env
// files and an optional census.yaml.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. CENSUS_DB.
const EnvPrefix = "CENSUS"

// Config holds the application configuration.
type Config struct {
	DB          string
	Port        string
	LogMode     string // "prod" for JSON logs, anything else for console
	ColumnsFile string

	// Matching
	NameGuardian bool

	// Household counts
	RecountOnWrite  bool
	RecountEnabled  bool
	RecountInterval time.Duration

	ConfigFile string
}

// Defaults registers default values on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("db", "census.db")
	v.SetDefault("port", "8080")
	v.SetDefault("log.mode", "dev")
	v.SetDefault("columns_file", "")
	v.SetDefault("match.name_guardian", false)
	v.SetDefault("recount.on_write", true)
	v.SetDefault("recount.enabled", true)
	v.SetDefault("recount.interval", "1h")
}

// New returns a viper instance wired to the environment and config file.
// Values are read in order of precedence:
// 1. Flags bound by the caller
// 2. Environment variables (CENSUS_DB, CENSUS_LOG_MODE, ...)
// 3. .env files
// 4. Config file (census.yaml in . or $HOME, or configFile)
// 5. Defaults
func New(configFile string) *viper.Viper {
	loadEnvFiles()

	v := viper.New()
	Defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("census")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	return v
}

// Load reads the config file, if any, and builds a Config. A missing
// default config file is not an error; an explicit one that cannot be
// read is.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return &Config{
		DB:              v.GetString("db"),
		Port:            v.GetString("port"),
		LogMode:         v.GetString("log.mode"),
		ColumnsFile:     v.GetString("columns_file"),
		NameGuardian:    v.GetBool("match.name_guardian"),
		RecountOnWrite:  v.GetBool("recount.on_write"),
		RecountEnabled:  v.GetBool("recount.enabled"),
		RecountInterval: v.GetDuration("recount.interval"),
		ConfigFile:      v.ConfigFileUsed(),
	}, nil
}

// loadEnvFiles loads .env then .env.local. godotenv never overrides
// variables already set, so the real environment wins.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}
