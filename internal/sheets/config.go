// Package sheets exports result tables to Google Sheets, one tab per table.
package sheets

import (
	"errors"
	"time"
)

// DefaultSpreadsheetName names spreadsheets created when no ID is configured.
const DefaultSpreadsheetName = "Toxref export"

var (
	ErrNoCredentials    = errors.New("no Google credentials configured")
	ErrAmbiguousAuth    = errors.New("both OAuth2 and service account credentials configured")
	ErrInvalidBatchSize = errors.New("batch size must be positive")
	ErrInvalidRetry     = errors.New("retry settings cannot be negative")
)

// AuthMethod is how the writer authenticates against the Sheets API.
type AuthMethod int

const (
	AuthNone AuthMethod = iota
	AuthOAuth2
	AuthServiceAccount
)

// Config holds the Google Sheets writer settings.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  DefaultSpreadsheetName,
		TimeZone:         "Europe/Paris",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
		EnableFormatting: true,
	}
}

func (c *Config) hasOAuth2() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// AuthMethod reports which credentials are configured. It returns AuthNone
// when none or both are.
func (c *Config) AuthMethod() AuthMethod {
	oauth, account := c.hasOAuth2(), c.ServiceAccountPath != ""
	switch {
	case oauth && !account:
		return AuthOAuth2
	case account && !oauth:
		return AuthServiceAccount
	default:
		return AuthNone
	}
}

// Validate returns every problem with c joined into one error.
func (c *Config) Validate() error {
	var errs []error
	oauth, account := c.hasOAuth2(), c.ServiceAccountPath != ""
	if !oauth && !account {
		errs = append(errs, ErrNoCredentials)
	}
	if oauth && account {
		errs = append(errs, ErrAmbiguousAuth)
	}
	if c.BatchSize <= 0 {
		errs = append(errs, ErrInvalidBatchSize)
	}
	if c.RetryAttempts < 0 || c.RetryDelay < 0 {
		errs = append(errs, ErrInvalidRetry)
	}
	return errors.Join(errs...)
}
