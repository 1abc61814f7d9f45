package conductor

// Errors is a mutable collection of validation error messages keyed by field
// name. Message order within a field is preserved.
// Errors is created lazily, use Conductor.Errors to obtain an initialized
// collection.
type Errors map[string][]string

// Add appends message to the messages recorded for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// On returns the messages recorded for field, or nil if there are none.
func (e Errors) On(field string) []string { return e[field] }

// Merge appends every entry of from onto e. Entries for fields already
// present in e are appended after the existing messages, never overwritten.
func (e Errors) Merge(from Errors) {
	for field, messages := range from {
		e[field] = append(e[field], messages...)
	}
}

// Empty reports whether no error was recorded.
func (e Errors) Empty() bool { return len(e) == 0 }

// Count returns the total number of recorded messages across all fields.
func (e Errors) Count() (n int) {
	for _, messages := range e {
		n += len(messages)
	}
	return n
}
