package insight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/data"
)

func load(t *testing.T, csv string) *data.Dataset {
	t.Helper()
	ds, err := data.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return ds
}

const charts = `country,popularity
US,95
US,81
UK,80
UK,79
FR,90
,99
DE,NA
`

func TestHitCountries(t *testing.T) {
	rep, err := HitCountries(load(t, charts), 80)
	require.NoError(t, err)

	assert.Equal(t, 80, rep.Threshold)
	assert.Equal(t, 5, rep.TotalHits, "threshold is inclusive")
	assert.Equal(t, []CountryCount{{"US", 2}, {"FR", 1}, {"UK", 1}}, rep.Countries)
}

func TestHitCountries_ClampsThreshold(t *testing.T) {
	rep, err := HitCountries(load(t, charts), 250)
	require.NoError(t, err)
	assert.Equal(t, 100, rep.Threshold)
	assert.Zero(t, rep.TotalHits)
	assert.Equal(t, 99.0, rep.MaxPopularity)

	rep, err = HitCountries(load(t, charts), -5)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Threshold)
	assert.Equal(t, 6, rep.TotalHits)
}

func TestHitCountries_TopN(t *testing.T) {
	var b strings.Builder
	b.WriteString("country,popularity\n")
	for i := 0; i < 12; i++ {
		for _i := 0; _i < i+1; _i++ {
			b.WriteString(string(rune('A'+i)) + "land,90\n")
		}
	}
	rep, err := HitCountries(load(t, b.String()), 80)
	require.NoError(t, err)

	require.Len(t, rep.Countries, TopN)
	assert.Equal(t, "Lland", rep.Countries[0].Country)
	assert.Equal(t, 12, rep.Countries[0].Hits)
}

func TestHitCountries_MissingColumns(t *testing.T) {
	_, err := HitCountries(load(t, "country,score\nUS,1\n"), 80)
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = HitCountries(load(t, "artist_country,popularity\nUS,90\n"), 80)
	var ce ColumnError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, CountryColumn, ce.Column)
	assert.Equal(t, []string{"artist_country"}, ce.Candidates)
	assert.Contains(t, err.Error(), "similar: artist_country")
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{90, 70, 80, 40}, 80)

	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 70.0, s.Mean)
	assert.Equal(t, 75.0, s.Median)
	assert.Equal(t, 40.0, s.Min)
	assert.Equal(t, 90.0, s.Max)
	assert.Equal(t, 2, s.Hits)
	assert.Equal(t, 50.0, s.HitPercent)
	assert.Contains(t, s.String(), "hits=2 (50.0%)")

	assert.Equal(t, Summary{}, Summarize(nil, 80))
}
