package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts the file operations the loader needs.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem is the real FileSystem.
type OSFileSystem struct{}

// Exists reports whether path exists.
func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file into the process environment without
// overriding variables that are already set.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds loader dependencies and explicit file paths.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets the filesystem used to find files.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// ResolveFiles returns the config and .env paths for a service, searching
// the usual locations for whichever was not given explicitly.
func ResolveFiles(serviceName string, lc LoaderConfig) (configFile, envFile string) {
	configFile, envFile = lc.ConfigFile, lc.EnvFile
	if configFile == "" {
		configFile = firstExisting(lc.FileSystem,
			"./cmd/"+serviceName+"/config.yml",
			"../cmd/"+serviceName+"/config.yml",
			"../../cmd/"+serviceName+"/config.yml",
			"./config/config.yml",
			"./config.yml",
		)
	}
	if envFile == "" {
		envFile = firstExisting(lc.FileSystem,
			"./cmd/"+serviceName+"/.env",
			"../cmd/"+serviceName+"/.env",
			"./.env."+serviceName,
			"./.env",
			"../.env",
			"../../.env",
		)
	}
	return configFile, envFile
}

func firstExisting(fs FileSystem, paths ...string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig fills cfg from the service's config file, .env file and
// environment. A missing file is not an error; an unreadable one is.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: OSFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	configFile, envFile := ResolveFiles(serviceName, lc)

	v := viper.New()
	if configFile != "" && lc.FileSystem.Exists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}
	if envFile != "" && lc.FileSystem.Exists(envFile) {
		if err := lc.FileSystem.LoadEnv(envFile); err != nil {
			return fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	bindEnv(v, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal for %s: %w", serviceName, err)
	}
	return nil
}

// bindEnv sets every KEY=value pair under each nested key it could mean.
func bindEnv(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		for _, variant := range envKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// envKeyVariants lists the nested keys an environment variable may address.
// GRAPH_CLIENT_ID yields graph_client_id, graph.client_id and graph.client.id.
func envKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	variants := []string{lower}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return variants
}
