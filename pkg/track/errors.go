package track

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingArtifact marks a required file (dataset, model, preprocessor, catalog) that is absent.
	ErrMissingArtifact = errors.New("missing artifact")
	// ErrUnseenCategory marks a categorical value the preprocessor never saw while fitting.
	ErrUnseenCategory = errors.New("unseen category")
	// ErrInvalidInput marks a value outside its declared range.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyGeneration marks a batch that produced no successful track.
	ErrEmptyGeneration = errors.New("no track generated successfully")
)

// ArtifactError reports a missing or unreadable artifact together with a
// remediation hint for the user.
type ArtifactError struct {
	Name string
	Path string
	Hint string
	Err  error
}

func (e *ArtifactError) Error() string {
	msg := fmt.Sprintf("%s not found at %q", e.Name, e.Path)
	if e.Err != nil && !errors.Is(e.Err, ErrMissingArtifact) {
		msg = fmt.Sprintf("%s at %q: %v", e.Name, e.Path, e.Err)
	}
	return msg
}

func (e *ArtifactError) Unwrap() error { return e.Err }

func (e *ArtifactError) Is(target error) bool { return target == ErrMissingArtifact }

// UnseenCategoryError names the column and value rejected by the preprocessor.
type UnseenCategoryError struct {
	Column string
	Value  string
}

func (e UnseenCategoryError) Error() string {
	return fmt.Sprintf("unseen category %q for column %q", e.Value, e.Column)
}

func (e UnseenCategoryError) Is(target error) bool { return target == ErrUnseenCategory }

// RangeError reports a user value outside [Min, Max].
type RangeError struct {
	Field    string
	Value    float64
	Min, Max float64
}

func (e RangeError) Error() string {
	return fmt.Sprintf("%s must be between %g and %g, got %g", e.Field, e.Min, e.Max, e.Value)
}

func (e RangeError) Is(target error) bool { return target == ErrInvalidInput }
