// Package align conforms track records to a feature catalog: missing
// engineered features are derived from the fields present, the rest are
// imputed from dataset statistics and the result is reordered to the catalog.
package align

import (
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/dataprep"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/stats"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/track"
)

// Engine applies derivation rules and dataset statistics. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	rules []Rule
	env   Env
}

// NewEngine builds an engine over the dataset statistics.
func NewEngine(table *stats.Table, opts Options) *Engine {
	if table == nil {
		table = stats.NewTable()
	}
	return &Engine{rules: Rules(), env: Env{Stats: table, Opts: opts}}
}

// Rules returns the engine's rule list in priority order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Stats returns the statistics the engine imputes from.
func (e *Engine) Stats() *stats.Table { return e.env.Stats }

// Derive applies every applicable rule to r in priority order and returns the
// names it created. A field is derived at most once.
func (e *Engine) Derive(r *track.Record) []string {
	var created []string
	for _, rl := range e.rules {
		if !rl.Applicable(*r) {
			continue
		}
		r.Set(rl.Output, rl.Compute(*r, e.env))
		created = append(created, rl.Output)
	}
	return created
}

// ColumnRules picks one rule per derivable output for a table whose columns
// are named by columns: the first rule whose inputs are all columns, or
// outputs picked earlier in the same pass. Rows then share a formula per
// column instead of falling back row by row.
func (e *Engine) ColumnRules(columns []string) []Rule {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	var picked []Rule
	for _, rl := range e.rules {
		if have[rl.Output] || !hasAll(have, rl.Requires) {
			continue
		}
		have[rl.Output] = true
		picked = append(picked, rl)
	}
	return picked
}

// Apply runs rules on r in order. A rule whose inputs are absent on r is
// skipped, so its output stays absent (null) for that row.
func (e *Engine) Apply(r *track.Record, rules []Rule) []string {
	var created []string
	for _, rl := range rules {
		if !rl.Applicable(*r) {
			continue
		}
		r.Set(rl.Output, rl.Compute(*r, e.env))
		created = append(created, rl.Output)
	}
	return created
}

func hasAll(set map[string]bool, names []string) bool {
	for _, n := range names {
		if !set[n] {
			return false
		}
	}
	return true
}

// Align returns a record holding exactly the catalog's fields, in catalog
// order. Missing fields are derived, then imputed from dataset statistics;
// fields the dataset never had are set to 0. The template is not modified.
func (e *Engine) Align(template track.Record, catalog track.Catalog) track.Record {
	r := template.Clone()
	e.Derive(&r)
	for _, name := range dataprep.ImputeRecord(&r, catalog, e.env.Stats) {
		r.Set(name, track.IntValue(0))
	}
	return r.Project(catalog)
}

// Invalidate removes from r every derived field whose inputs depend,
// directly or transitively, on one of the changed fields, so that the next
// Derive or Align recomputes them from the new values.
func (e *Engine) Invalidate(r *track.Record, changed ...string) []string {
	dirty := make(map[string]bool, len(changed))
	for _, c := range changed {
		dirty[c] = true
	}
	for grew := true; grew; {
		grew = false
		for _, rl := range e.rules {
			if dirty[rl.Output] {
				continue
			}
			for _, in := range rl.Requires {
				if dirty[in] {
					dirty[rl.Output] = true
					grew = true
					break
				}
			}
		}
	}
	var removed []string
	for _, rl := range e.rules {
		if !dirty[rl.Output] || !r.Has(rl.Output) {
			continue
		}
		if isChanged(rl.Output, changed) {
			continue
		}
		r.Delete(rl.Output)
		removed = append(removed, rl.Output)
	}
	return removed
}

func isChanged(name string, changed []string) bool {
	for _, c := range changed {
		if c == name {
			return true
		}
	}
	return false
}
