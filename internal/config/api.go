package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/cata32101/odysseus-app/internal/common"
)

// APIConfig holds the backend endpoint and session credentials.
type APIConfig struct {
	BaseURL     string
	RealtimeURL string
	AccessToken string
}

// LoadAPIConfig loads the backend configuration from Viper and environment
// variables. The access token is the Supabase session JWT; it is required
// for every data operation, so its absence is an error here rather than at
// first use.
func LoadAPIConfig() (*APIConfig, error) {
	cfg := &APIConfig{
		BaseURL:     viper.GetString("api.base_url"),
		RealtimeURL: viper.GetString("api.realtime_url"),
		AccessToken: viper.GetString("api.access_token"),
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("ODYSSEUS_API_URL")
	}
	if cfg.RealtimeURL == "" {
		cfg.RealtimeURL = os.Getenv("ODYSSEUS_REALTIME_URL")
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = os.Getenv("ODYSSEUS_ACCESS_TOKEN")
	}

	if cfg.BaseURL == "" {
		return nil, common.NewUserError(
			"backend URL is not configured; set api.base_url or ODYSSEUS_API_URL",
			common.ErrMissingConfig)
	}
	if cfg.AccessToken == "" {
		return nil, common.NewUserError(
			"no session token; set api.access_token or ODYSSEUS_ACCESS_TOKEN",
			common.ErrNoSession)
	}

	return cfg, nil
}

// CachePath resolves the snapshot database location.
func CachePath() string {
	path := viper.GetString("cache.path")
	if path == "" {
		path = "$HOME/.local/share/odysseus/snapshots.db"
	}
	return ExpandPath(path)
}
