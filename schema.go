package conductor

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// Schema is the declaration-time registry of conducted attributes for one
// conductor type. Declare a schema as a package-level variable and bind it
// to every instance of the concrete conductor type:
//
//	var schemaPerson = conductor.NewSchema().
//		Conduct("person", "first_name", "last_name").
//		Conduct("record", "note")
//
// A schema is frozen once the first conductor instance binds it.
// Attempting to declare conducted attributes after that panics.
type Schema struct {
	attrs []attribute

	inUse bool // Set to true by Conductor.Bind once this schema is in use.
}

// attribute is one declared forwarding entry. All attribute access goes
// through the generic Conductor.Attribute/SetAttribute forwarders
// parameterized by this pair.
type attribute struct {
	slot string
	name string
}

// NewSchema creates an empty schema.
func NewSchema() *Schema { return &Schema{} }

// Conduct declares attributes as conducted by the sub-model returned by the
// slot accessor. slot names a zero-argument exported method on the concrete
// conductor type ("person" resolves to Person) returning the owning
// sub-model. The accessor is resolved on first invocation of a forwarding
// accessor, not at declaration time.
//
// Declaration order is preserved and determines Attributes iteration order.
// Re-declaring an attribute name appends a duplicate entry and the latest
// declaration wins for forwarding.
func (s *Schema) Conduct(slot string, attributes ...string) *Schema {
	if s.inUse {
		panic("attempting to conduct attributes on a schema already in use")
	}
	mustValidName("slot", slot)
	if len(attributes) == 0 {
		panic(fmt.Sprintf("conducting no attributes for slot %q", slot))
	}
	for _, name := range attributes {
		mustValidName("attribute", name)
		s.attrs = append(s.attrs, attribute{slot: slot, name: name})
	}
	return s
}

// Attributes returns the declared attribute names in declaration order,
// including duplicates.
func (s *Schema) Attributes() []string {
	names := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		names[i] = a.name
	}
	return names
}

// lookup returns the latest declared forwarding entry for name.
func (s *Schema) lookup(name string) (attribute, bool) {
	for i := len(s.attrs) - 1; i >= 0; i-- {
		if s.attrs[i].name == name {
			return s.attrs[i], true
		}
	}
	return attribute{}, false
}

func mustValidName(kind, name string) {
	switch {
	case name == "":
		panic("empty " + kind + " name")
	case unicode.IsSpace(rune(name[0])):
		panic(kind + " name starts with space characters")
	case unicode.IsSpace(rune(name[len(name)-1])):
		panic(kind + " name ends with space characters")
	}
}

// goName converts a declared snake_case name to the exported Go identifier
// it resolves to ("first_name" -> "FirstName", "name" -> "Name").
func goName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	upperNext := true
	for _, r := range name {
		if r == '_' {
			upperNext = true
			continue
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// slotModel invokes the slot accessor method on self and returns the
// sub-model it yields. Panics wrapping ErrMissingCapability if the accessor
// is undefined, has the wrong shape or returns nil.
func slotModel(self reflect.Value, slot string) reflect.Value {
	method := self.MethodByName(goName(slot))
	if !method.IsValid() {
		panic(fmt.Errorf("%w: type %s has no slot accessor %s",
			ErrMissingCapability, self.Type(), goName(slot)))
	}
	t := method.Type()
	if t.NumIn() != 0 || t.NumOut() != 1 {
		panic(fmt.Errorf("%w: slot accessor %s.%s must take no arguments "+
			"and return the sub-model",
			ErrMissingCapability, self.Type(), goName(slot)))
	}
	m := method.Call(nil)[0]
	for m.Kind() == reflect.Interface {
		m = m.Elem()
	}
	if !m.IsValid() || (m.Kind() == reflect.Ptr && m.IsNil()) {
		panic(fmt.Errorf("%w: slot accessor %s.%s returned no sub-model",
			ErrMissingCapability, self.Type(), goName(slot)))
	}
	return m
}

// attributeField resolves the struct field of the sub-model m that backs the
// declared attribute name. Panics wrapping ErrMissingCapability if the
// sub-model has no matching exported field.
func attributeField(m reflect.Value, name string) reflect.Value {
	v := m
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		panic(fmt.Errorf("%w: sub-model %s is not a struct",
			ErrMissingCapability, m.Type()))
	}
	f := v.FieldByName(goName(name))
	if !f.IsValid() {
		// Case-insensitive fallback, ignoring underscores.
		folded := strings.ReplaceAll(name, "_", "")
		f = v.FieldByNameFunc(func(n string) bool {
			return strings.EqualFold(n, folded)
		})
	}
	if !f.IsValid() || !f.CanSet() {
		panic(fmt.Errorf("%w: sub-model %s has no settable field for "+
			"attribute %q", ErrMissingCapability, v.Type(), name))
	}
	return f
}
