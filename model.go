package conductor

import "context"

// Model is the capability contract every sub-model composed into a
// conductor must satisfy. The aggregation engine consumes sub-models only
// through this interface; their validation rules, field storage and
// persistence mechanics are their own concern.
// See package record for reusable implementations.
type Model interface {
	// IsNew reports whether the model was never successfully persisted.
	IsNew() bool

	// IsValid runs the model's own validations and reports the result.
	// Errors must reflect the outcome after IsValid returned.
	IsValid() bool

	// Errors returns the model's validation error collection.
	// Read it after IsValid.
	Errors() Errors

	// Save persists the model and reports whether persistence succeeded.
	// Persistence failure is an expected outcome, not an error.
	Save(ctx context.Context) bool
}

// Conducted is the contract a conductor exposes to its embedding context.
// It mirrors the shape generic form-binding and validation tooling expects
// from an ordinary record, so a conductor can be dropped into such tooling
// directly. *Conductor satisfies everything except the sub-model sequence,
// which concrete types override.
type Conducted interface {
	Model

	SetAttributes(Attributes)
	Attributes() Attributes
	Models() []Model
	IsDestroyed() bool
	IsPersisted() bool
}

var _ Conducted = new(Conductor)

// Create constructs a conductor through construct with the given initial
// attributes, lets the optional customize callback mutate it before
// persistence and then saves it. The conductor is returned regardless of
// whether the save succeeded; inspect IsValid, Errors or the sub-models to
// tell the outcome apart.
func Create[T Conducted](
	ctx context.Context, construct func(Attributes) T,
	attrs Attributes, customize func(T),
) T {
	c := construct(attrs)
	if customize != nil {
		customize(c)
	}
	c.Save(ctx)
	return c
}
