package app

import (
	"fmt"
	"math"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// InputField describes a feature the user may enter by hand.
type InputField struct {
	Name    string
	Label   string
	Min     float64
	Max     float64
	Integer bool
}

// InputFields lists the prompted features in prompt order.
var InputFields = []InputField{
	{Name: "danceability", Label: "Danceability", Min: 0, Max: 1},
	{Name: "energy", Label: "Energy", Min: 0, Max: 1},
	{Name: "valence", Label: "Valence", Min: 0, Max: 1},
	{Name: "loudness", Label: "Loudness (dB)", Min: -60, Max: 5},
	{Name: "key", Label: "Key", Min: 0, Max: 11, Integer: true},
	{Name: "mode", Label: "Mode (0 minor, 1 major)", Min: 0, Max: 1, Integer: true},
}

// LookupField returns the input field with the given name.
func LookupField(name string) (InputField, bool) {
	for _, f := range InputFields {
		if f.Name == name {
			return f, true
		}
	}
	return InputField{}, false
}

// Check validates v against the field's range and integrality.
func (f InputField) Check(v float64) error {
	if math.IsNaN(v) || v < f.Min || v > f.Max {
		return track.RangeError{Field: f.Name, Value: v, Min: f.Min, Max: f.Max}
	}
	if f.Integer && v != math.Trunc(v) {
		return fmt.Errorf("%s must be a whole number, got %g: %w", f.Name, v, track.ErrInvalidInput)
	}
	return nil
}

// Value converts a checked input to a track value of the right kind.
func (f InputField) Value(v float64) track.Value {
	if f.Integer {
		return track.IntValue(int(v))
	}
	return track.FloatValue(v)
}

// PromptText is the question shown for the field.
func (f InputField) PromptText() string {
	if f.Integer {
		return fmt.Sprintf("%s (%d-%d):", f.Label, int(f.Min), int(f.Max))
	}
	return fmt.Sprintf("%s (%g to %g):", f.Label, f.Min, f.Max)
}
