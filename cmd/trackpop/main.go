package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/app"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/artifact"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/config"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/logger"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/menu"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/ui"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg *config.Config
	log *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "trackpop",
	Short: "trackpop - predict the popularity of music tracks",
	Long: `trackpop predicts a track's popularity (0-100) from its audio features.

It regenerates engineered feature columns in the dataset, trains a
random-forest regressor and offers an interactive menu to score tracks,
generate synthetic ones and chart the predictions.

Run without arguments to start the interactive menu.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		log, err = logger.New(cfg.Log, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return menu.New(a).Run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "trackpop.yaml", "Config file (missing file uses defaults)")

	rootCmd.AddCommand(regenerateCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(hitsCmd)
	rootCmd.AddCommand(historyCmd)
}

func loadApp() (*app.Context, error) {
	a, err := app.Build(cfg, log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, track.ErrMissingArtifact) {
			fmt.Fprintln(os.Stderr, ui.ErrorBox(err, artifact.Hint(err)))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
