package config

import (
	"fmt"
	"os"

	"github.com/Veraticus/toxref/internal/common"
	"github.com/Veraticus/toxref/internal/sheets"
	"github.com/spf13/viper"
)

// sheetsSetting binds one sheets.Config field to its viper key and the
// GOOGLE_SHEETS_* variable consulted when the key is unset.
type sheetsSetting struct {
	key   string
	env   string
	field func(*sheets.Config) *string
	path  bool
}

var sheetsSettings = []sheetsSetting{
	{key: "service_account_path", env: "SERVICE_ACCOUNT_PATH", field: func(c *sheets.Config) *string { return &c.ServiceAccountPath }, path: true},
	{key: "client_id", env: "CLIENT_ID", field: func(c *sheets.Config) *string { return &c.ClientID }},
	{key: "client_secret", env: "CLIENT_SECRET", field: func(c *sheets.Config) *string { return &c.ClientSecret }},
	{key: "refresh_token", env: "REFRESH_TOKEN", field: func(c *sheets.Config) *string { return &c.RefreshToken }},
	{key: "spreadsheet_id", env: "SPREADSHEET_ID", field: func(c *sheets.Config) *string { return &c.SpreadsheetID }},
	{key: "spreadsheet_name", env: "SPREADSHEET_NAME", field: func(c *sheets.Config) *string { return &c.SpreadsheetName }},
}

// LoadSheetsConfig reads the Google Sheets settings from the global viper.
func LoadSheetsConfig() (*sheets.Config, error) {
	return LoadSheetsConfigFrom(viper.GetViper())
}

// LoadSheetsConfigFrom reads sheets.* keys from v, falling back to the
// GOOGLE_SHEETS_* environment and then to sheets.DefaultConfig.
func LoadSheetsConfigFrom(v *viper.Viper) (*sheets.Config, error) {
	cfg := sheets.DefaultConfig()

	for _, s := range sheetsSettings {
		value := v.GetString("sheets." + s.key)
		if value == "" {
			value = os.Getenv("GOOGLE_SHEETS_" + s.env)
		}
		if value == "" {
			continue
		}
		if s.path {
			value = ExpandPath(value)
		}
		*s.field(&cfg) = value
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMissingConfig, err)
	}
	return &cfg, nil
}
