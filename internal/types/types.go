// Package types implements the type registry: interned named types
// looked up or created by their canonical display name, with pointer
// types synthesized lazily from their pointee's name.
package types

import "fmt"

// Kind classifies a Type.
type Kind int

// Type kinds.
const (
	Primitive Kind = iota
	Pointer
	Record
)

func (k Kind) String() string {
	switch k {
	case Primitive:
		return "primitive"
	case Pointer:
		return "pointer"
	case Record:
		return "record"
	default:
		return "unknown"
	}
}

// Canonical primitive names.
const (
	Int8   = "int8"
	Int32  = "int32"
	Int64  = "int64"
	Float  = "float"
	Bool   = "bool"
	String = "string"
	Void   = "void"
)

// Field is one member of a record type, in declaration order.
type Field struct {
	Name string
	Type *Type
}

// Type is an interned entity: {name, kind, backing}. Two Types are
// the same type iff they are the same pointer; the registry never
// hands out two distinct Types for the same canonical name.
type Type struct {
	Name string
	Kind Kind

	// Elem is set for Kind == Pointer: the pointee type.
	Elem *Type

	// Fields is set for Kind == Record, in declaration order.
	Fields []Field

	// Backing is the lowering handle bound during IR generation
	// (an llvm.Type for primitives/pointers, an llvm.Type struct
	// type for records). Nil until the generator resolves it.
	Backing interface{}
}

func (t *Type) String() string {
	return t.Name
}

// IsPrimitive reports whether t is one of the built-in scalar kinds.
func (t *Type) IsPrimitive() bool {
	return t.Kind == Primitive
}

// IsPointer reports whether t is a pointer type.
func (t *Type) IsPointer() bool {
	return t.Kind == Pointer
}

// IsRecord reports whether t is a user-defined struct type.
func (t *Type) IsRecord() bool {
	return t.Kind == Record
}

// IsInteger reports whether t is one of the integer primitives.
func (t *Type) IsInteger() bool {
	return t.Kind == Primitive && (t.Name == Int8 || t.Name == Int32 || t.Name == Int64)
}

// IsFloat reports whether t is the float primitive.
func (t *Type) IsFloat() bool {
	return t.Kind == Primitive && t.Name == Float
}

// IsNumeric reports whether t supports arithmetic operators.
func (t *Type) IsNumeric() bool {
	return t.IsInteger() || t.IsFloat()
}

// IsVoid reports whether t is the void primitive.
func (t *Type) IsVoid() bool {
	return t.Kind == Primitive && t.Name == Void
}

// FieldIndex returns the position of fieldName in a record's field
// list, or -1 if the record has no such field.
func (t *Type) FieldIndex(fieldName string) int {
	for i, f := range t.Fields {
		if f.Name == fieldName {
			return i
		}
	}
	return -1
}

// Registry interns Types by canonical name. get_or_create semantics:
// GetOrCreate returns the existing entity for a name or inserts a new
// one; Get fails if the name has never been created.
type Registry struct {
	byName map[string]*Type
}

// NewRegistry returns a registry pre-populated with the built-in
// primitives and their pointer counterparts.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Type)}
	for _, name := range []string{Int8, Int32, Int64, Float, Bool, String, Void} {
		r.byName[name] = &Type{Name: name, Kind: Primitive}
	}
	for _, name := range []string{Int8, Int32, Int64, Float, Bool, String, Void} {
		r.pointerTo(r.byName[name])
	}
	return r
}

// GetOrCreate returns the Type named name, creating a pointer type on
// demand if name has the form "*inner" (inner itself is looked up or
// created the same way first). A bare record name with no prior GetOrCreate/DefineRecord
// call is created as an opaque record (no fields yet), matching the
// original's forward-reference-friendly registration order.
func (r *Registry) GetOrCreate(name string) *Type {
	if t, ok := r.byName[name]; ok {
		return t
	}
	if len(name) > 1 && name[0] == '*' {
		inner := r.GetOrCreate(name[1:])
		return r.pointerTo(inner)
	}
	t := &Type{Name: name, Kind: Record}
	r.byName[name] = t
	return t
}

// Get returns the Type named name, failing if it was never created.
func (r *Registry) Get(name string) (*Type, error) {
	if t, ok := r.byName[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("type error: %q is not a registered type", name)
}

// PointerTo returns (creating if necessary) the pointer type whose
// canonical name is "*"+elem.Name.
func (r *Registry) PointerTo(elem *Type) *Type {
	return r.pointerTo(elem)
}

func (r *Registry) pointerTo(elem *Type) *Type {
	name := "*" + elem.Name
	if t, ok := r.byName[name]; ok {
		return t
	}
	t := &Type{Name: name, Kind: Pointer, Elem: elem}
	r.byName[name] = t
	return t
}

// DefineRecord registers name as a struct type with the given fields,
// in declaration order, at the point the parser sees
// "name :: struct { ... }". If name was already registered (e.g. via
// a forward pointer reference), its fields are filled in place so
// existing *Type handles observe the definition.
func (r *Registry) DefineRecord(name string, fields []Field) *Type {
	t := r.GetOrCreate(name)
	t.Kind = Record
	t.Fields = fields
	return t
}
