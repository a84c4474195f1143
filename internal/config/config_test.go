package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(newFlags(t), env(nil))
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig(), cfg)
	assert.Equal(t, "127.0.0.1:4000", cfg.HTTPAddr)
	assert.Equal(t, "kvstore.dat", cfg.SnapshotPath)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout.Duration)
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.toml")
	contents := `
http-addr = "0.0.0.0:5000"
snapshot-path = "/var/lib/kv/file.dat"
shutdown-timeout = "3s"

[log]
level = "debug"
file = "/var/log/kv.log"
max-backups = 7
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	tests := []struct {
		name     string
		args     []string
		env      map[string]string
		wantAddr string
		wantSnap string
		wantLvl  string
	}{
		{
			name:     "file only",
			args:     []string{"--config", path},
			wantAddr: "0.0.0.0:5000",
			wantSnap: "/var/lib/kv/file.dat",
			wantLvl:  "debug",
		},
		{
			name:     "env beats file",
			args:     []string{"--config", path},
			env:      map[string]string{"HTTP_ADDR": ":6000", "LOG_LEVEL": "warn"},
			wantAddr: ":6000",
			wantSnap: "/var/lib/kv/file.dat",
			wantLvl:  "warn",
		},
		{
			name:     "flags beat env",
			args:     []string{"-c", path, "--addr", ":7000", "--snapshot", "flag.dat"},
			env:      map[string]string{"HTTP_ADDR": ":6000", "SNAPSHOT_PATH": "env.dat"},
			wantAddr: ":7000",
			wantSnap: "flag.dat",
			wantLvl:  "debug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := load(newFlags(t, tt.args...), env(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, cfg.HTTPAddr)
			assert.Equal(t, tt.wantSnap, cfg.SnapshotPath)
			assert.Equal(t, tt.wantLvl, cfg.Log.Level)
			assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout.Duration)
			assert.Equal(t, "/var/log/kv.log", cfg.Log.File)
			assert.Equal(t, 7, cfg.Log.MaxBackups)
			assert.Equal(t, 100, cfg.Log.MaxSizeMB, "unset file keys keep defaults")
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	badToml := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(badToml, []byte(`shutdown-timeout = "soon"`), 0o644))

	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"missing file", []string{"--config", filepath.Join(t.TempDir(), "nope.toml")}, nil},
		{"bad duration", []string{"--config", badToml}, nil},
		{"bad log level", nil, map[string]string{"LOG_LEVEL": "loud"}},
		{"empty snapshot path", []string{"--snapshot", ""}, nil},
		{"zero shutdown timeout", []string{"--shutdown-timeout", "0s"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(newFlags(t, tt.args...), env(tt.env))
			assert.Error(t, err)
		})
	}
}
