// Package ui formats terminal output.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/insight"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/predict"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/synth"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	boldColor    = color.New(color.Bold)
)

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	successColor.Printf("✓ %s\n", fmt.Sprintf(format, args...))
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	errorColor.Printf("✗ %s\n", fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	warningColor.Printf("⚠ %s\n", fmt.Sprintf(format, args...))
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	infoColor.Printf("ℹ %s\n", fmt.Sprintf(format, args...))
}

// PrintBold prints a bold message
func PrintBold(format string, args ...interface{}) {
	boldColor.Println(fmt.Sprintf(format, args...))
}

// Banner renders the welcome banner.
func Banner() string {
	title := Styles.Title.Render("TRACKPOP\nPredict the popularity of your tracks")
	return Styles.Banner.Render(title)
}

// TierMessage is the one-line verdict for a tier.
func TierMessage(t predict.Tier) string {
	switch t {
	case predict.TierHit:
		return "Potential HIT!"
	case predict.TierGood:
		return "Good chances of success"
	case predict.TierAverage:
		return "Average popularity"
	default:
		return "Probably low popularity"
	}
}

// Prediction renders a score with its tier verdict.
func Prediction(p predict.Prediction) string {
	badge := lipgloss.NewStyle().Bold(true).Foreground(tierColors[string(p.Tier)])
	return fmt.Sprintf("Predicted popularity: %s  %s",
		badge.Render(fmt.Sprintf("%.2f/100", p.Score)), TierMessage(p.Tier))
}

// KeyValues renders aligned label/value lines.
func KeyValues(pairs ...[2]string) string {
	var b strings.Builder
	for i, kv := range pairs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(Styles.Label.Render(kv[0]))
		b.WriteString(kv[1])
	}
	return b.String()
}

// Summary renders batch statistics.
func Summary(s insight.Summary, hitThreshold float64) string {
	return Styles.SuccessBox.Render(KeyValues(
		[2]string{"Tracks", fmt.Sprintf("%d", s.Count)},
		[2]string{"Mean", fmt.Sprintf("%.2f", s.Mean)},
		[2]string{"Median", fmt.Sprintf("%.2f", s.Median)},
		[2]string{"Min / Max", fmt.Sprintf("%.2f / %.2f", s.Min, s.Max)},
		[2]string{"Std dev", fmt.Sprintf("%.2f", s.Std)},
		[2]string{fmt.Sprintf("Hits (>=%.0f)", hitThreshold), fmt.Sprintf("%d (%.1f%%)", s.Hits, s.HitPercent)},
	))
}

// HitTable renders the country ranking.
func HitTable(rep insight.HitReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d countries by hits (pop >= %d):\n", len(rep.Countries), rep.Threshold)
	for i, c := range rep.Countries {
		fmt.Fprintf(&b, "  %2d. %-20s: %4d tracks\n", i+1, c.Country, c.Hits)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ErrorBox renders an error with an optional hint.
func ErrorBox(err error, hint string) string {
	msg := err.Error()
	if hint != "" {
		msg += "\nHint: " + hint
	}
	return Styles.ErrorBox.Render(msg)
}

// EmptyGeneration renders a batch in which no draw succeeded.
func EmptyGeneration(rep synth.Report) string {
	msg := fmt.Sprintf("No track generated: 0/%d draws succeeded, %d failed.", rep.Requested, rep.Failed)
	if len(rep.Failures) > 0 {
		msg += "\nFirst failure: " + rep.Failures[0].Err.Error()
	}
	return Styles.WarningBox.Render(msg)
}
