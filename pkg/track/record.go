package track

// Record is one song's feature values keyed by feature name.
// Field order is insertion order.
type Record struct {
	names  []string
	values map[string]Value
}

// NewRecord builds a record from name/value pairs in the order given.
func NewRecord(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

// Field is a single name/value pair.
type Field struct {
	Name  string
	Value Value
}

// Set stores v under name, appending name if it is new.
func (r *Record) Set(name string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = v
}

// Get returns the value stored under name.
func (r Record) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether name is present.
func (r Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// HasAll reports whether every name is present.
func (r Record) HasAll(names ...string) bool {
	for _, n := range names {
		if !r.Has(n) {
			return false
		}
	}
	return true
}

// Num returns the numeric value of name. ok is false when the field is
// missing or categorical.
func (r Record) Num(name string) (float64, bool) {
	v, ok := r.values[name]
	if !ok || !v.IsNumeric() {
		return 0, false
	}
	return v.Num, true
}

// Delete removes name from the record.
func (r *Record) Delete(name string) {
	if _, ok := r.values[name]; !ok {
		return
	}
	delete(r.values, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
}

// Names returns the field names in record order.
func (r Record) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Fields returns the name/value pairs in record order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.names))
	for i, n := range r.names {
		out[i] = Field{Name: n, Value: r.values[n]}
	}
	return out
}

func (r Record) Len() int { return len(r.names) }

// Clone returns a deep copy.
func (r Record) Clone() Record {
	c := Record{
		names:  make([]string, len(r.names)),
		values: make(map[string]Value, len(r.values)),
	}
	copy(c.names, r.names)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// Project returns a copy holding only the listed names that are present, in
// the order given.
func (r Record) Project(names []string) Record {
	var out Record
	for _, n := range names {
		if v, ok := r.values[n]; ok {
			out.Set(n, v)
		}
	}
	return out
}

// Equal reports whether both records hold the same fields in the same order.
func (r Record) Equal(o Record) bool {
	if len(r.names) != len(o.names) {
		return false
	}
	for i, n := range r.names {
		if o.names[i] != n {
			return false
		}
		if !r.values[n].Equal(o.values[n]) {
			return false
		}
	}
	return true
}
