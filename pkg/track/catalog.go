package track

import (
	"errors"
	"fmt"
)

// Catalog is the ordered list of feature names a fitted model expects.
type Catalog []string

// Validate rejects empty names and duplicates.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return errors.New("catalog: no features")
	}
	seen := make(map[string]struct{}, len(c))
	for i, name := range c {
		if name == "" {
			return fmt.Errorf("catalog: empty feature name at position %d", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("catalog: duplicate feature %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (c Catalog) Contains(name string) bool {
	for _, n := range c {
		if n == name {
			return true
		}
	}
	return false
}

// Missing returns the catalog names not in have, in catalog order.
func (c Catalog) Missing(have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	var out []string
	for _, n := range c {
		if _, ok := set[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
