package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/toxref/internal/common"
	"github.com/Veraticus/toxref/internal/sheets"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DefaultClassificationsDB, cfg.Databases.Classifications)
	assert.Equal(t, DefaultToxicologyDB, cfg.Databases.Toxicology)
	assert.Equal(t, DefaultVTRDB, cfg.Databases.VTR)
	assert.Equal(t, DefaultListenAddr, cfg.Server.ListenAddr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Empty(t, cfg.Server.StaticDir)
	assert.False(t, cfg.Server.TLS)
	assert.Equal(t, DefaultParallelism, cfg.Engine.Parallelism)
}

func TestLoadFrom_Overrides(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("TOXREF_TEST_DATA", "/srv/data")

	v := viper.New()
	v.Set("databases.classifications", "~/db/Classifications.db")
	v.Set("databases.vtr", "$TOXREF_TEST_DATA/VTR.db")
	v.Set("server.cors_origins", []string{"https://tox.example.org"})
	v.Set("engine.parallelism", 8)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "db", "Classifications.db"), cfg.Databases.Classifications)
	assert.Equal(t, "/srv/data/VTR.db", cfg.Databases.VTR)
	assert.Equal(t, []string{"https://tox.example.org"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 8, cfg.Engine.Parallelism)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		key     string
		value   any
		wantErr error
	}{
		{key: "engine.parallelism", value: 0, wantErr: common.ErrInvalidConfig},
		{key: "databases.classifications", value: "", wantErr: common.ErrMissingConfig},
		{key: "server.listen_addr", value: "", wantErr: common.ErrMissingConfig},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			_, err := LoadFrom(v)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_Database(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	path, err := cfg.Database("toxicology")
	require.NoError(t, err)
	assert.Equal(t, DefaultToxicologyDB, path)

	_, err = cfg.Database("inventory")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("TOXREF_TEST_DIR", "/opt/toxref")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "x.db"), ExpandPath("~/x.db"))
	assert.Equal(t, "/opt/toxref/x.db", ExpandPath("$TOXREF_TEST_DIR/x.db"))
	assert.Equal(t, "relative.db", ExpandPath("relative.db"))
}

func TestDirAndFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/xdg/toxref", dir)

	file, err := File("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/xdg/toxref/config.yaml", file)

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	dir, err = Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "toxref"), dir)
}

func TestLoadSheetsConfigFrom(t *testing.T) {
	t.Run("viper settings", func(t *testing.T) {
		v := viper.New()
		v.Set("sheets.service_account_path", "/keys/sa.json")
		v.Set("sheets.spreadsheet_id", "abc")

		cfg, err := LoadSheetsConfigFrom(v)
		require.NoError(t, err)
		assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
		assert.Equal(t, "abc", cfg.SpreadsheetID)
		assert.Equal(t, sheets.DefaultSpreadsheetName, cfg.SpreadsheetName)
	})

	t.Run("environment fallback", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "id")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "refresh")
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "Substances 2026")

		cfg, err := LoadSheetsConfigFrom(viper.New())
		require.NoError(t, err)
		assert.Equal(t, "id", cfg.ClientID)
		assert.Equal(t, "Substances 2026", cfg.SpreadsheetName)
	})

	t.Run("no credentials", func(t *testing.T) {
		for _, key := range []string{
			"GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET",
			"GOOGLE_SHEETS_REFRESH_TOKEN", "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		} {
			t.Setenv(key, "")
		}
		_, err := LoadSheetsConfigFrom(viper.New())
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})
}
