package app

import (
	"path/filepath"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/data"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/insight"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/viz"
)

// HitCountries works on the dataset alone so it is usable before training.
// The chart path is empty when there were no hits.
func HitCountries(ds *data.Dataset, threshold int, outDir string) (insight.HitReport, string, error) {
	rep, err := insight.HitCountries(ds, threshold)
	if err != nil || len(rep.Countries) == 0 {
		return rep, "", err
	}
	path := filepath.Join(outDir, "hit_countries.png")
	if err := viz.HitCountries(rep, path); err != nil {
		return rep, "", err
	}
	return rep, path, nil
}
