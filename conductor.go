package conductor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// ErrMissingCapability indicates that a forwarding accessor referenced a
// slot accessor or sub-model field that does not exist on the concrete
// conductor type. It signals a misdeclared conductor, not a runtime data
// condition, and is therefore raised as a panic value (wrapped) rather than
// returned.
var ErrMissingCapability = errors.New("missing capability")

// Conductor is the embeddable aggregation engine. A concrete conductor type
// embeds Conductor, binds itself and its schema in the constructor and
// overrides Models to supply the ordered sub-model sequence:
//
//	type PersonConductor struct {
//		conductor.Conductor
//		person *Person
//	}
//
//	func NewPersonConductor(attrs conductor.Attributes) *PersonConductor {
//		c := &PersonConductor{}
//		c.Bind(c, schemaPerson)
//		c.SetAttributes(attrs)
//		return c
//	}
//
//	func (c *PersonConductor) Person() *Person { ... }
//	func (c *PersonConductor) Models() []conductor.Model { ... }
//
// The conductor itself is never persisted, it only observes and aggregates
// the validity and persistence state of its sub-models.
type Conductor struct {
	schema *Schema
	self   reflect.Value
	errs   Errors
}

// Attributes maps declared attribute names to values.
type Attributes map[string]any

// Bind attaches the concrete conductor instance self and its schema to the
// embedded engine and freezes the schema. Bind must be called exactly once
// per instance, before any other method, with the outermost pointer so slot
// accessors declared on the concrete type resolve.
func (c *Conductor) Bind(self any, schema *Schema) {
	if c.schema != nil {
		panic("conductor is already bound")
	}
	if schema == nil {
		panic("binding conductor to nil schema")
	}
	v := reflect.ValueOf(self)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() {
		panic("binding conductor to a non-pointer self")
	}
	schema.inUse = true
	c.schema = schema
	c.self = v
}

func (c *Conductor) mustSchema() *Schema {
	if c.schema == nil {
		panic(fmt.Errorf("%w: conductor is not bound, call Bind first",
			ErrMissingCapability))
	}
	return c.schema
}

// Models returns the ordered sub-model sequence. The base implementation
// returns nil; concrete conductor types override it. A conductor with no
// sub-models is vacuously new, valid and saved.
func (c *Conductor) Models() []Model { return nil }

// models dispatches through the bound self so an override on the concrete
// type is picked up instead of the base Models.
func (c *Conductor) models() []Model {
	if !c.self.IsValid() {
		return nil
	}
	return c.self.Interface().(interface{ Models() []Model }).Models()
}

// Attribute returns the current value of the conducted attribute name,
// read through the slot accessor of its latest declaration.
// Panics wrapping ErrMissingCapability if name isn't declared or the slot
// accessor doesn't resolve.
func (c *Conductor) Attribute(name string) any {
	a, ok := c.mustSchema().lookup(name)
	if !ok {
		panic(fmt.Errorf("%w: attribute %q is not conducted",
			ErrMissingCapability, name))
	}
	return attributeField(slotModel(c.self, a.slot), a.name).Interface()
}

// SetAttribute writes value to the conducted attribute name through the slot
// accessor of its latest declaration. The value is assigned as-is, no
// copying or coercion beyond Go assignability conversion.
// Panics wrapping ErrMissingCapability if name isn't declared or the slot
// accessor doesn't resolve.
func (c *Conductor) SetAttribute(name string, value any) {
	a, ok := c.mustSchema().lookup(name)
	if !ok {
		panic(fmt.Errorf("%w: attribute %q is not conducted",
			ErrMissingCapability, name))
	}
	f := attributeField(slotModel(c.self, a.slot), a.name)
	if value == nil {
		f.Set(reflect.Zero(f.Type()))
		return
	}
	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(f.Type()) {
		if !v.Type().ConvertibleTo(f.Type()) {
			panic(fmt.Errorf("%w: attribute %q holds %s, not %s",
				ErrMissingCapability, name, f.Type(), v.Type()))
		}
		v = v.Convert(f.Type())
	}
	f.Set(v)
}

// SetAttributes writes every entry of attrs whose key is a conducted
// attribute. Unknown keys are silently ignored. A nil map is a no-op.
// Iteration order is unspecified.
func (c *Conductor) SetAttributes(attrs Attributes) {
	if attrs == nil {
		return
	}
	s := c.mustSchema()
	for name, value := range attrs {
		if _, ok := s.lookup(name); !ok {
			continue
		}
		c.SetAttribute(name, value)
	}
}

// Attributes builds a map of all conducted attributes and their current
// values, iterating the declared attribute list in declaration order.
// A duplicate declaration collapses into a single key.
func (c *Conductor) Attributes() Attributes {
	s := c.mustSchema()
	attrs := make(Attributes, len(s.attrs))
	for _, a := range s.attrs {
		attrs[a.name] = c.Attribute(a.name)
	}
	return attrs
}

// Errors returns the aggregate error collection of this conductor instance,
// lazily creating it on first access. IsValid refreshes the collection with
// the error entries of every sub-model.
func (c *Conductor) Errors() Errors {
	if c.errs == nil {
		c.errs = Errors{}
	}
	return c.errs
}

// IsNew reports whether every sub-model reports itself as new/unsaved.
// True for a conductor without sub-models.
func (c *Conductor) IsNew() bool {
	for _, m := range c.models() {
		if !m.IsNew() {
			return false
		}
	}
	return true
}

// IsValid checks every sub-model in order and reports whether all of them
// are valid. The error entries of every sub-model, not only the first
// invalid one, are merged into Errors.
// True for a conductor without sub-models.
func (c *Conductor) IsValid() bool {
	valid := true
	errs := c.Errors()
	for _, m := range c.models() {
		if !m.IsValid() {
			valid = false
		}
		errs.Merge(m.Errors())
	}
	return valid
}

// Save validates and then saves every sub-model in declared order.
// If the conductor is invalid no sub-model is saved and Save returns false.
// On the first sub-model whose save fails Save returns false immediately
// without attempting the remaining sub-models. Sub-models saved before the
// failing one stay persisted, there is no rollback.
func (c *Conductor) Save(ctx context.Context) bool {
	if !c.IsValid() {
		return false
	}
	for _, m := range c.models() {
		if !m.Save(ctx) {
			return false
		}
	}
	return true
}

// IsDestroyed always reports false. A conductor is never a destroyable
// entity in its own right.
func (c *Conductor) IsDestroyed() bool { return false }

// IsPersisted always reports false. Persistence is a property only of the
// sub-models, never of the conductor itself.
func (c *Conductor) IsPersisted() bool { return false }
