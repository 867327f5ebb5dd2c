// Package config loads and validates the ldapfs configuration: the
// ordered list of mount roots plus logging and session-pool settings.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (LDAPFS_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete ldapfs configuration.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Pool bounds the per-server LDAP session pools
	Pool PoolConfig `mapstructure:"pool"`

	// Mounts is the ordered list of mount roots exposed at the top of
	// the tree
	Mounts []MountConfig `mapstructure:"mounts" validate:"required,min=1,dive"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	Level string `mapstructure:"level" validate:"required,oneof=ERROR WARN INFO DEBUG TRACE error warn info debug trace"`
}

// PoolConfig bounds the session pool kept per configured server.
type PoolConfig struct {
	// Size caps the number of concurrent queries against one server
	Size int `mapstructure:"size" validate:"required,gt=0,lte=64"`

	// Timeout applies to dialing, binding and every query
	Timeout time.Duration `mapstructure:"timeout" validate:"required,gt=0"`
}

// MountConfig describes one mount root: the server to bind to, the base DN
// of the exposed subtree, and the name the root is visible under. Visible
// names must be pairwise unique across all mounts.
type MountConfig struct {
	// Name is the directory name the mount appears under at the root
	Name string `mapstructure:"name" validate:"required,excludesall=/"`

	// Host and Port locate the LDAP server
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"gt=0,lte=65535"`

	// BindDN and BindPassword are the simple-bind credentials; empty
	// BindDN means anonymous bind
	BindDN       string `mapstructure:"bind_dn"`
	BindPassword string `mapstructure:"bind_password"`

	// BaseDN is the root of the subtree this mount exposes
	BaseDN string `mapstructure:"base_dn" validate:"required"`
}

// Load reads, decodes and validates the configuration file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("LDAPFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	for i := range cfg.Mounts {
		if cfg.Mounts[i].Port == 0 {
			cfg.Mounts[i].Port = defaultLdapPort
		}
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return &cfg, nil
}

const defaultLdapPort = 389

// applyDefaults sets the defaults every config starts from.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("pool.size", 4)
	v.SetDefault("pool.timeout", "10s")
}
