package config

import (
	"encoding/json"
	"os"

	"github.com/avoskresensky/docvault/internal/flagx"
	"github.com/avoskresensky/docvault/internal/timex"
)

// jsonConfig is the DTO for the optional JSON config file. Durations
// accept both strings ("15m") and integer nanoseconds.
type jsonConfig struct {
	DatabaseDSN          string         `json:"database_dsn"`
	TokenSecret          string         `json:"token_secret"`
	TokenValidity        timex.Duration `json:"token_validity"`
	AllowAnonymousDelete *bool          `json:"allow_anonymous_delete"`
}

// parseJSON overlays values from the file named by -c/-config. No flag
// means no file is loaded; an unreadable or invalid file panics, since a
// half-applied access configuration is worse than a crash at startup.
func parseJSON(cfg *Config) {
	path := flagx.JSONConfigPath()
	if path == "" {
		return
	}
	overlayJSONFile(cfg, path)
}

func overlayJSONFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.TokenSecret != "" {
		cfg.TokenSecret = jc.TokenSecret
	}
	if jc.TokenValidity.Duration != 0 {
		cfg.TokenValidity = jc.TokenValidity.Duration
	}
	if jc.AllowAnonymousDelete != nil {
		cfg.AllowAnonymousDelete = *jc.AllowAnonymousDelete
	}
}
