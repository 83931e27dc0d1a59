// Package menu runs the interactive prompt loop.
package menu

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"go.uber.org/zap"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/app"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/artifact"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/insight"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/ui"
)

const (
	optPredict  = "Predict track popularity"
	optHits     = "Top countries by hits"
	optGenerate = "Generate random tracks and statistics"
	optTimeline = "Prediction timeline"
	optWave     = "Sound wave from prediction"
	optHistory  = "Recent history"
	optExit     = "Exit"
)

// Options lists the menu entries in display order.
var Options = []string{optPredict, optHits, optGenerate, optTimeline, optWave, optHistory, optExit}

const historyLimit = 10

// Menu is the interactive loop over an app context.
type Menu struct {
	app  *app.Context
	opts []survey.AskOpt
}

// New returns a menu. opts are passed to every prompt, e.g. survey.WithStdio.
func New(a *app.Context, opts ...survey.AskOpt) *Menu {
	return &Menu{app: a, opts: opts}
}

// Run loops until the user exits or ctx is cancelled. Interrupting a
// sub-prompt returns to the menu; interrupting the menu itself exits.
func (m *Menu) Run(ctx context.Context) error {
	fmt.Println(ui.Banner())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var choice string
		prompt := &survey.Select{Message: "Choose an option:", Options: Options}
		if err := survey.AskOne(prompt, &choice, m.opts...); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			return err
		}
		if choice == optExit {
			ui.PrintBold("Thanks for using trackpop!")
			return nil
		}
		if err := m.dispatch(ctx, choice); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				ui.PrintWarning("Operation cancelled.")
				continue
			}
			fmt.Println(ui.ErrorBox(err, artifact.Hint(err)))
			m.app.Logger.Debug("menu action failed", zap.String("option", choice), zap.Error(err))
		}
	}
}

func (m *Menu) dispatch(ctx context.Context, choice string) error {
	switch choice {
	case optPredict:
		return m.predict(ctx)
	case optHits:
		return m.hits()
	case optGenerate:
		return m.generate(ctx)
	case optTimeline:
		return m.timeline(ctx)
	case optWave:
		return m.wave(ctx)
	case optHistory:
		return m.history(ctx)
	}
	return fmt.Errorf("unknown option %q", choice)
}

// RangeValidator accepts numbers in [min, max], integral when integer is
// set. Invalid answers make survey prompt again.
func RangeValidator(min, max float64, integer bool) survey.Validator {
	return func(ans interface{}) error {
		s, ok := ans.(string)
		if !ok {
			return fmt.Errorf("expected text input: %w", track.ErrInvalidInput)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("%q is not a number: %w", s, track.ErrInvalidInput)
		}
		f := app.InputField{Name: "value", Min: min, Max: max, Integer: integer}
		return f.Check(v)
	}
}

// OptionalRangeValidator also accepts an empty answer.
func OptionalRangeValidator(min, max float64, integer bool) survey.Validator {
	inner := RangeValidator(min, max, integer)
	return func(ans interface{}) error {
		if s, ok := ans.(string); ok && strings.TrimSpace(s) == "" {
			return nil
		}
		return inner(ans)
	}
}

// ParseIntDefault parses s, returning def for an empty answer.
func ParseIntDefault(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number: %w", s, track.ErrInvalidInput)
	}
	return v, nil
}

func (m *Menu) with(v survey.Validator) []survey.AskOpt {
	out := make([]survey.AskOpt, 0, len(m.opts)+1)
	return append(append(out, m.opts...), survey.WithValidator(v))
}

func (m *Menu) askFloat(f app.InputField) (float64, error) {
	var ans string
	p := &survey.Input{Message: f.PromptText()}
	if err := survey.AskOne(p, &ans, m.with(RangeValidator(f.Min, f.Max, f.Integer))...); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(ans), 64)
}

func (m *Menu) askInt(msg string, def, min, max int) (int, error) {
	var ans string
	p := &survey.Input{Message: fmt.Sprintf("%s (%d-%d, default %d):", msg, min, max, def)}
	v := OptionalRangeValidator(float64(min), float64(max), true)
	if err := survey.AskOne(p, &ans, m.with(v)...); err != nil {
		return 0, err
	}
	return ParseIntDefault(ans, def)
}

func (m *Menu) predict(ctx context.Context) error {
	fields := m.app.AvailableInputs()
	if len(fields) == 0 {
		return errors.New("none of the prompted features is in the model catalog")
	}
	inputs := make(map[string]float64, len(fields))
	for _, f := range fields {
		v, err := m.askFloat(f)
		if err != nil {
			return err
		}
		inputs[f.Name] = v
	}
	_, p, err := m.app.PredictInputs(ctx, inputs)
	if err != nil {
		return err
	}
	fmt.Println(ui.Styles.SuccessBox.Render(ui.Prediction(p)))
	return nil
}

func (m *Menu) hits() error {
	t, err := m.askInt("Popularity threshold", insight.DefaultThreshold, 0, 100)
	if err != nil {
		return err
	}
	rep, chart, err := m.app.Hits(t)
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

func (m *Menu) reportBatch(b *app.Batch) {
	r := b.Report
	ui.PrintSuccess("%d/%d tracks generated (%.1f%%)", r.Succeeded, r.Requested,
		float64(r.Succeeded)/float64(r.Requested)*100)
	if r.Failed > 0 {
		ui.PrintWarning("%d draws failed", r.Failed)
		for i, f := range r.Failures {
			if i == 3 {
				break
			}
			ui.PrintWarning("  track %d: %v", f.Index+1, f.Err)
		}
	}
	fmt.Println(ui.Summary(b.Summary, float64(m.app.Config.Generation.HitThreshold)))
	if b.Chart != "" {
		ui.PrintSuccess("Chart saved to %s", b.Chart)
	}
}

func (m *Menu) generate(ctx context.Context) error {
	g := m.app.Config.Generation
	n, err := m.askInt("How many tracks", g.DefaultBatch, 1, m.app.Generator.MaxBatch())
	if err != nil {
		return err
	}
	b, err := m.app.Generate(ctx, n)
	if err := batchOutcome(b, err); err != nil {
		return err
	}
	if b.Report.Succeeded > 0 {
		m.reportBatch(b)
	}
	return nil
}

func (m *Menu) timeline(ctx context.Context) error {
	g := m.app.Config.Generation
	n, err := m.askInt("How many tracks", g.TimelineN, g.TimelineMin, g.TimelineMax)
	if err != nil {
		return err
	}
	b, err := m.app.Timeline(ctx, n)
	if err := batchOutcome(b, err); err != nil {
		return err
	}
	if b.Report.Succeeded > 0 {
		m.reportBatch(b)
	}
	return nil
}

// batchOutcome prints the empty-generation report and swallows that error;
// any other error is returned unchanged.
func batchOutcome(b *app.Batch, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, track.ErrEmptyGeneration) && b != nil {
		fmt.Println(ui.EmptyGeneration(b.Report))
		return nil
	}
	return err
}

func (m *Menu) wave(ctx context.Context) error {
	w, err := m.app.Wave(ctx)
	if err != nil {
		return err
	}
	fmt.Println(ui.Prediction(w.Prediction))
	fmt.Println(ui.KeyValues(
		[2]string{"Amplitude", fmt.Sprintf("%.2f", w.Wave.Amplitude)},
		[2]string{"Frequency", fmt.Sprintf("%.1f Hz", w.Wave.Frequency)},
		[2]string{"Harmonics", fmt.Sprintf("%d", w.Wave.Harmonics)},
		[2]string{"Loudness", fmt.Sprintf("%.1f dB", w.Loudness)},
	))
	ui.PrintSuccess("Chart saved to %s", w.Chart)
	return nil
}

func (m *Menu) history(ctx context.Context) error {
	entries, err := m.app.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ui.PrintInfo("No history yet")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %-6s  %6.2f  %-7s  n=%d hits=%d\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Kind, e.Score, e.Tier, e.Count, e.Hits)
	}
	return nil
}
