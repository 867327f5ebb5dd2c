package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig drops the given YAML into a temp file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ldapfs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCompleteConfig(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: DEBUG
pool:
  size: 8
  timeout: 5s
mounts:
  - name: corp
    host: ldap.example.com
    port: 636
    bind_dn: cn=reader,dc=example,dc=com
    bind_password: secret
    base_dn: dc=example,dc=com
  - name: demo
    host: ldap.demo.test
    base_dn: dc=demo,dc=test
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Pool.Size)
	assert.Equal(t, 5*time.Second, cfg.Pool.Timeout)

	require.Len(t, cfg.Mounts, 2)
	assert.Equal(t, "corp", cfg.Mounts[0].Name)
	assert.Equal(t, 636, cfg.Mounts[0].Port)
	assert.Equal(t, "cn=reader,dc=example,dc=com", cfg.Mounts[0].BindDN)
	assert.Equal(t, "secret", cfg.Mounts[0].BindPassword)

	// Unset port falls back to the standard LDAP port.
	assert.Equal(t, "demo", cfg.Mounts[1].Name)
	assert.Equal(t, 389, cfg.Mounts[1].Port)
	assert.Empty(t, cfg.Mounts[1].BindDN)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
mounts:
  - name: corp
    host: ldap.example.com
    base_dn: dc=example,dc=com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Pool.Size)
	assert.Equal(t, 10*time.Second, cfg.Pool.Timeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		errText string
	}{
		{
			name:    "no mounts",
			yaml:    "logging:\n  level: INFO\n",
			errText: "Mounts",
		},
		{
			name: "duplicate mount names",
			yaml: `
mounts:
  - name: corp
    host: a.example.com
    base_dn: dc=a,dc=com
  - name: corp
    host: b.example.com
    base_dn: dc=b,dc=com
`,
			errText: `duplicate mount name "corp"`,
		},
		{
			name: "slash in mount name",
			yaml: `
mounts:
  - name: a/b
    host: ldap.example.com
    base_dn: dc=example,dc=com
`,
			errText: "excludesall",
		},
		{
			name: "malformed base dn",
			yaml: `
mounts:
  - name: corp
    host: ldap.example.com
    base_dn: not a dn
`,
			errText: "mounts[0]",
		},
		{
			name: "malformed bind dn",
			yaml: `
mounts:
  - name: corp
    host: ldap.example.com
    bind_dn: not a dn
    base_dn: dc=example,dc=com
`,
			errText: "mounts[0]",
		},
		{
			name: "bad log level",
			yaml: `
logging:
  level: LOUD
mounts:
  - name: corp
    host: ldap.example.com
    base_dn: dc=example,dc=com
`,
			errText: "oneof",
		},
		{
			name: "port out of range",
			yaml: `
mounts:
  - name: corp
    host: ldap.example.com
    port: 70000
    base_dn: dc=example,dc=com
`,
			errText: "lte",
		},
		{
			name: "missing host",
			yaml: `
mounts:
  - name: corp
    base_dn: dc=example,dc=com
`,
			errText: "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestValidateDirect(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "INFO"},
		Pool:    PoolConfig{Size: 4, Timeout: 10 * time.Second},
		Mounts: []MountConfig{
			{Name: "corp", Host: "ldap.example.com", Port: 389, BaseDN: "dc=example,dc=com"},
		},
	}
	assert.NoError(t, Validate(cfg))

	cfg.Pool.Size = 0
	assert.Error(t, Validate(cfg))
}
