package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cata32101/odysseus-app/internal/common"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("ODYSSEUS_TEST_DIR", "/data")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain path", in: "/var/db/app.db", want: "/var/db/app.db"},
		{name: "bare tilde", in: "~", want: home},
		{name: "tilde prefix", in: "~/odysseus/app.db", want: filepath.Join(home, "odysseus/app.db")},
		{name: "env var", in: "$ODYSSEUS_TEST_DIR/app.db", want: "/data/app.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoadAPIConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("ODYSSEUS_API_URL", "")
	t.Setenv("ODYSSEUS_ACCESS_TOKEN", "")

	_, err := LoadAPIConfig()
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	viper.Set("api.base_url", "https://api.example.com")
	_, err = LoadAPIConfig()
	assert.ErrorIs(t, err, common.ErrNoSession)

	viper.Set("api.access_token", "jwt-token")
	cfg, err := LoadAPIConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, "jwt-token", cfg.AccessToken)
}

func TestLoadAPIConfig_EnvFallback(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("ODYSSEUS_API_URL", "https://env.example.com")
	t.Setenv("ODYSSEUS_ACCESS_TOKEN", "env-token")

	cfg, err := LoadAPIConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.BaseURL)
	assert.Equal(t, "env-token", cfg.AccessToken)
}

func TestCachePath_Default(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := CachePath()
	assert.Contains(t, path, "odysseus/snapshots.db")
	assert.NotContains(t, path, "$HOME")
}
