// Package conductor composes several independently validatable and
// persistable records behind one aggregate object so they can be read,
// written, validated and saved as if they were a single entity.
// See README.md for more information.
package conductor
