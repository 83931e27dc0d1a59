package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/align"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/app"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/artifact"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/regen"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/train"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/ui"
)

// regenerateCmd backfills missing engineered columns in the dataset
var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Add missing engineered feature columns to the dataset",
	Long: `Derives every catalog column missing from the dataset CSV, zero-fills the
ones no rule can produce, saves a <name>_BACKUP.csv copy of the original and
overwrites the dataset. The preprocessor, if present, is smoke-tested on the
first row.`,
	RunE: runRegenerate,
}

// trainCmd fits the preprocessing pipeline and the forest
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the popularity model and save its artifacts",
	RunE:  runTrain,
}

var predictInputs map[string]float64

// predictCmd scores a single track
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the popularity of a track from feature values",
	Example: `  trackpop predict --danceability 0.8 --energy 0.7 --loudness -5
  trackpop predict --energy 0.9 --key 5 --mode 1`,
	RunE: runPredict,
}

var generateN int

// generateCmd scores a batch of synthetic tracks
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate random tracks and summarize their predicted popularity",
	RunE:  runGenerate,
}

var hitsThreshold int

// hitsCmd ranks countries by hits
var hitsCmd = &cobra.Command{
	Use:   "hits",
	Short: "Show the top countries by number of hits",
	RunE:  runHits,
}

var historyLimit int

// historyCmd lists recent predictions
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent predictions and batches",
	RunE:  runHistory,
}

func init() {
	predictInputs = make(map[string]float64)
	for _, f := range app.InputFields {
		predictCmd.Flags().Float64(f.Name, 0, f.PromptText())
	}
	generateCmd.Flags().IntVarP(&generateN, "count", "n", 10, "Number of tracks to generate")
	hitsCmd.Flags().IntVar(&hitsThreshold, "threshold", 80, "Minimum popularity of a hit (0-100)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of entries to show")
}

func runRegenerate(cmd *cobra.Command, args []string) error {
	rep, err := regen.Run(cfg.Artifacts, app.AlignOptions(cfg.Features), log.Named("regen"))
	if err != nil {
		return err
	}
	if len(rep.Missing) == 0 {
		ui.PrintSuccess("All catalog columns already present")
	}
	for _, c := range rep.Created {
		ui.PrintSuccess("Created: %s", c)
	}
	for _, c := range rep.StillMissing {
		ui.PrintWarning("Not derivable, filled with 0: %s", c)
	}
	ui.PrintSuccess("Backup saved: %s", rep.Backup)
	ui.PrintSuccess("Dataset saved: %s (%d rows x %d columns)", cfg.Artifacts.Dataset, rep.Rows, rep.Columns)
	switch {
	case rep.Smoke == nil:
		ui.PrintInfo("No preprocessor found, smoke test skipped")
	case rep.Smoke.Err != nil:
		ui.PrintError("Smoke test failed: %v", rep.Smoke.Err)
	default:
		ui.PrintSuccess("Smoke test passed: %d features -> %d columns", rep.Smoke.InputFeatures, rep.Smoke.OutputFeatures)
	}
	return nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	ds, err := artifact.LoadDataset(cfg.Artifacts.Dataset)
	if err != nil {
		return err
	}
	engine := align.NewEngine(ds.Stats(), app.AlignOptions(cfg.Features))
	res, err := train.New(cfg.Training, engine, log.Named("train")).Run(cmd.Context(), ds)
	if err != nil {
		return err
	}
	if err := train.Save(cfg.Artifacts, res); err != nil {
		return err
	}
	r := res.Report
	ui.PrintSuccess("Trained on %d rows, evaluated on %d (%d skipped)", r.Train, r.Test, r.Skipped)
	ui.PrintInfo("Catalog: %d features -> %d encoded columns", len(r.Catalog), r.Features)
	if len(r.Dropped) > 0 {
		ui.PrintWarning("Features not available: %v", r.Dropped)
	}
	ui.PrintBold("Forest:   %s", r.Forest)
	if r.Baseline != nil {
		ui.PrintBold("Baseline: %s", r.Baseline)
	}
	if len(r.CVRMSE) > 0 {
		ui.PrintInfo("Cross-validation RMSE: %.3f", r.CVRMSE)
	}
	log.Info("artifacts saved",
		zap.String("model", cfg.Artifacts.Model),
		zap.String("preprocessor", cfg.Artifacts.Preprocessor),
		zap.String("catalog", cfg.Artifacts.Catalog))
	return nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	for _, f := range app.InputFields {
		if !cmd.Flags().Changed(f.Name) {
			continue
		}
		v, err := cmd.Flags().GetFloat64(f.Name)
		if err != nil {
			return err
		}
		predictInputs[f.Name] = v
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	_, p, err := a.PredictInputs(cmd.Context(), predictInputs)
	if err != nil {
		return err
	}
	fmt.Println(ui.Prediction(p))
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := a.Generate(cmd.Context(), generateN)
	if errors.Is(err, track.ErrEmptyGeneration) {
		fmt.Println(ui.EmptyGeneration(b.Report))
		return nil
	}
	if err != nil {
		return err
	}
	ui.PrintSuccess("%d/%d tracks generated", b.Report.Succeeded, b.Report.Requested)
	if b.Report.Failed > 0 {
		ui.PrintWarning("%d draws failed", b.Report.Failed)
	}
	fmt.Println(ui.Summary(b.Summary, float64(cfg.Generation.HitThreshold)))
	ui.PrintSuccess("Chart saved to %s", b.Chart)
	return nil
}

func runHits(cmd *cobra.Command, args []string) error {
	ds, err := artifact.LoadDataset(cfg.Artifacts.Dataset)
	if err != nil {
		return err
	}
	rep, chart, err := app.HitCountries(ds, hitsThreshold, cfg.Output.Dir)
	if err != nil {
		return err
	}
	if rep.TotalHits == 0 {
		ui.PrintWarning("No track with popularity >= %d (max in dataset: %.2f)", rep.Threshold, rep.MaxPopularity)
		return nil
	}
	fmt.Println(ui.HitTable(rep))
	ui.PrintSuccess("Chart saved to %s", chart)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %s  %-6s  %6.2f  %-7s  n=%d hits=%d\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.ID[:8], e.Kind, e.Score, e.Tier, e.Count, e.Hits)
	}
	return nil
}
