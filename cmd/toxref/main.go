package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Veraticus/toxref/internal/cli"
	"github.com/Veraticus/toxref/internal/common"
	"github.com/Veraticus/toxref/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "toxref",
		Short: "🧪 Regulatory hazard classification lookup",
		Long: `toxref looks CAS numbers up in regulatory source tables (CLP, IARC, SIN List,
endocrine disruptor lists, allergen lists, ...) and derives CMR and PE/Sens
hazard flags for each substance.

It reads three SQLite databases: classifications, toxicology and toxicity
reference values (VTR).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/toxref/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("classifications-db", "", "path of the classifications database")
	rootCmd.PersistentFlags().String("toxicology-db", "", "path of the toxicology database")
	rootCmd.PersistentFlags().String("vtr-db", "", "path of the reference values database")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("databases.classifications", rootCmd.PersistentFlags().Lookup("classifications-db"))
	_ = viper.BindPFlag("databases.toxicology", rootCmd.PersistentFlags().Lookup("toxicology-db"))
	_ = viper.BindPFlag("databases.vtr", rootCmd.PersistentFlags().Lookup("vtr-db"))

	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(detailCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(toxicologyCmd())
	rootCmd.AddCommand(vtrCmd())
	rootCmd.AddCommand(sourcesCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		if userErr, ok := common.AsUserError(err); ok {
			fmt.Fprintln(os.Stderr, cli.FormatWarning(userErr.Error()))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := config.Dir()
		if err != nil {
			return err
		}

		viper.AddConfigPath(dir)
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TOXREF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	common.SetupLogger(level, viper.GetString("logging.format"))

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("toxref", version)
		},
	}
}
