package types

// Builder is the narrow slice of the IR builder the cast table needs
// to materialize a conversion. The generator implements it; the
// types package stays free of any IR-library dependency.
type Builder interface {
	SignExtend(v interface{}, to *Type) interface{}
	Truncate(v interface{}, to *Type) interface{}
	FloatToInt(v interface{}, to *Type) interface{}
	IntToFloat(v interface{}, to *Type) interface{}
}

// ConvertFunc performs one entry's conversion.
type ConvertFunc func(b Builder, v interface{}) interface{}

// Cast is one entry of the implicit-cast table: a registered
// conversion from From to To. Implicit marks whether type unification
// may insert this conversion silently (with a warning); non-implicit
// entries exist only for an explicit cast operator, which this
// language does not expose, so in practice every entry the table
// carries is implicit.
type Cast struct {
	From, To *Type
	Implicit bool
	Convert  ConvertFunc
}

// CastTable is the ordered set of (from, to, convert, implicit)
// tuples consulted during type unification. First match wins.
type CastTable struct {
	entries []Cast
}

// NewCastTable returns a table seeded with the default int32<->int64
// sign-extend/truncate conversions.
func NewCastTable(reg *Registry) *CastTable {
	t := &CastTable{}
	i32 := reg.GetOrCreate(Int32)
	i64 := reg.GetOrCreate(Int64)
	t.Add(Cast{
		From: i32, To: i64, Implicit: true,
		Convert: func(b Builder, v interface{}) interface{} { return b.SignExtend(v, i64) },
	})
	t.Add(Cast{
		From: i64, To: i32, Implicit: true,
		Convert: func(b Builder, v interface{}) interface{} { return b.Truncate(v, i32) },
	})
	return t
}

// Add appends a new entry to the table. Later entries lose to earlier
// ones for the same (From, To) pair since lookup is first-match-wins.
func (t *CastTable) Add(c Cast) {
	t.entries = append(t.entries, c)
}

// Lookup returns the first implicit entry for (from, to), or nil if
// none is registered; non-implicit entries never match. Callers should special-case from == to before
// calling Lookup; the table itself carries no identity entries.
func (t *CastTable) Lookup(from, to *Type) *Cast {
	for i := range t.entries {
		c := &t.entries[i]
		if c.From == from && c.To == to && c.Implicit {
			return c
		}
	}
	return nil
}

// TryImplicit applies the fast path (from == to needs no conversion)
// and otherwise consults the table. It returns the converted value,
// whether a conversion was applied (used by callers to decide whether
// to emit the "implicit cast" warning), and whether the conversion is
// possible at all.
func (t *CastTable) TryImplicit(b Builder, from, to *Type, v interface{}) (result interface{}, converted bool, ok bool) {
	if from == to {
		return v, false, true
	}
	if c := t.Lookup(from, to); c != nil {
		return c.Convert(b, v), true, true
	}
	return nil, false, false
}
