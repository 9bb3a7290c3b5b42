package config

import (
	"fmt"

	"github.com/Veraticus/toxref/internal/common"
	"github.com/spf13/viper"
)

// Default settings.
const (
	DefaultClassificationsDB = "Classifications.db"
	DefaultToxicologyDB      = "Toxicology.db"
	DefaultVTRDB             = "VTR.db"
	DefaultListenAddr        = ":5000"
	DefaultParallelism       = 4
)

// Config is the typed application configuration.
type Config struct {
	Databases Databases
	Server    Server
	Engine    Engine
}

// Databases locates the three source databases.
type Databases struct {
	Classifications string
	Toxicology      string
	VTR             string
}

// Server configures the HTTP API.
type Server struct {
	ListenAddr  string
	StaticDir   string
	CORSOrigins []string
	// TLS serves HTTPS with a self-signed localhost certificate.
	TLS bool
}

// Engine configures the aggregation engine.
type Engine struct {
	Parallelism int
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("databases.classifications", DefaultClassificationsDB)
	v.SetDefault("databases.toxicology", DefaultToxicologyDB)
	v.SetDefault("databases.vtr", DefaultVTRDB)
	v.SetDefault("server.listen_addr", DefaultListenAddr)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.tls", false)
	v.SetDefault("engine.parallelism", DefaultParallelism)
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applying defaults for unset keys.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Databases: Databases{
			Classifications: ExpandPath(v.GetString("databases.classifications")),
			Toxicology:      ExpandPath(v.GetString("databases.toxicology")),
			VTR:             ExpandPath(v.GetString("databases.vtr")),
		},
		Server: Server{
			ListenAddr:  v.GetString("server.listen_addr"),
			StaticDir:   ExpandPath(v.GetString("server.static_dir")),
			CORSOrigins: v.GetStringSlice("server.cors_origins"),
			TLS:         v.GetBool("server.tls"),
		},
		Engine: Engine{
			Parallelism: v.GetInt("engine.parallelism"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.Databases.Classifications == "" {
		return fmt.Errorf("%w: databases.classifications", common.ErrMissingConfig)
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("%w: server.listen_addr", common.ErrMissingConfig)
	}
	if c.Engine.Parallelism <= 0 {
		return fmt.Errorf("%w: engine.parallelism must be positive, got %d", common.ErrInvalidConfig, c.Engine.Parallelism)
	}
	return nil
}

// Database returns the path of a named database: classifications,
// toxicology or vtr.
func (c *Config) Database(name string) (string, error) {
	switch name {
	case "classifications":
		return c.Databases.Classifications, nil
	case "toxicology":
		return c.Databases.Toxicology, nil
	case "vtr":
		return c.Databases.VTR, nil
	default:
		return "", fmt.Errorf("%w: unknown database %q", common.ErrInvalidConfig, name)
	}
}
