// Package track holds the domain types shared by every stage of the toolkit:
// feature values, track records, the feature catalog and the error taxonomy.
package track

import (
	"math"
	"strconv"
)

// Kind is the storage type of a feature column.
type Kind int

const (
	Float Kind = iota
	Int
	Category
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Category:
		return "category"
	default:
		return "float"
	}
}

// Numeric reports whether values of this kind carry a number.
func (k Kind) Numeric() bool { return k != Category }

// Value is one scalar feature value. Numeric kinds use Num, categories use Str.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

func FloatValue(f float64) Value   { return Value{Kind: Float, Num: f} }
func IntValue(i int) Value         { return Value{Kind: Int, Num: float64(i)} }
func CategoryValue(s string) Value { return Value{Kind: Category, Str: s} }
func BoolValue(b bool) Value {
	if b {
		return IntValue(1)
	}
	return IntValue(0)
}

// IsNumeric reports whether v holds a number.
func (v Value) IsNumeric() bool { return v.Kind.Numeric() }

// Equal compares kind and payload. NaN equals NaN so that aligned records compare stable.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == Category {
		return v.Str == o.Str
	}
	if math.IsNaN(v.Num) && math.IsNaN(o.Num) {
		return true
	}
	return v.Num == o.Num
}

func (v Value) String() string {
	switch v.Kind {
	case Category:
		return v.Str
	case Int:
		return strconv.FormatInt(int64(v.Num), 10)
	default:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
}
