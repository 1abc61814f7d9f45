// Package record provides reusable scaffolding for sub-model
// implementations of the conductor.Model contract: persistence state
// tracking, validation running and an in-memory record for tests and
// prototypes. Database-backed implementations live in the recordgorm and
// recordpgx subpackages.
package record

import (
	"context"

	conductor "github.com/ayanko/active-conductor"
)

// Validator is implemented by records that validate themselves.
// Validate records every violation in errs.
type Validator interface {
	Validate(errs conductor.Errors)
}

// State tracks the persistence status and validation errors of one record.
// It is embedded by record implementations and covers the IsNew and Errors
// capabilities of the sub-model contract.
type State struct {
	persisted bool
	errs      conductor.Errors
}

// IsNew reports whether the record was never successfully persisted.
func (s *State) IsNew() bool { return !s.persisted }

// MarkPersisted records that the record was successfully persisted.
func (s *State) MarkPersisted() { s.persisted = true }

// Errors returns the record's validation error collection,
// lazily creating it on first access.
func (s *State) Errors() conductor.Errors {
	if s.errs == nil {
		s.errs = conductor.Errors{}
	}
	return s.errs
}

// Check discards previously recorded validation errors and re-runs the
// validations of rec if it implements Validator. Reports whether no
// violation was recorded.
func (s *State) Check(rec any) bool {
	s.errs = conductor.Errors{}
	if v, ok := rec.(Validator); ok {
		v.Validate(s.errs)
	}
	return s.errs.Empty()
}

// Memory is a record that persists only in process memory. Embed it and
// bind the outer record in its constructor:
//
//	type Person struct {
//		record.Memory
//		Name string
//	}
//
//	func NewPerson() *Person {
//		p := &Person{}
//		p.Bind(p)
//		return p
//	}
//
//	func (p *Person) Validate(errs conductor.Errors) {
//		if p.Name == "" {
//			errs.Add("name", "can't be blank")
//		}
//	}
type Memory struct {
	State
	rec any
}

var _ conductor.Model = new(Memory)

// Bind attaches the outer record so its validations are picked up.
func (m *Memory) Bind(rec any) { m.rec = rec }

// IsValid re-runs the record's validations and reports the result.
func (m *Memory) IsValid() bool { return m.Check(m.rec) }

// Save marks the record persisted if it is valid.
func (m *Memory) Save(ctx context.Context) bool {
	if !m.IsValid() {
		return false
	}
	m.MarkPersisted()
	return true
}
