package pipeline

import (
	"fmt"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// Schema describes the input columns a fitted transformer expects.
type Schema struct {
	FeatureNames []string
	Kinds        []track.Kind
}

// InferSchema reads each catalog column's kind from the first record that
// has it. Every catalog column must appear in at least one record.
func InferSchema(records []track.Record, catalog track.Catalog) (Schema, error) {
	s := Schema{FeatureNames: append([]string(nil), catalog...), Kinds: make([]track.Kind, len(catalog))}
	for j, name := range catalog {
		found := false
		for _, r := range records {
			if v, ok := r.Get(name); ok {
				s.Kinds[j] = v.Kind
				found = true
				break
			}
		}
		if !found {
			return Schema{}, fmt.Errorf("pipeline: no record carries feature %q", name)
		}
	}
	return s, nil
}

// Catalog returns the schema's feature names as a catalog.
func (s Schema) Catalog() track.Catalog {
	return track.Catalog(append([]string(nil), s.FeatureNames...))
}
