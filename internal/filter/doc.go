// Package filter resolves sparse, optional task-listing parameters into a
// single store query.
//
// Resolution runs in three steps. Normalize turns raw strings into a Spec in
// which every axis is either unconstrained or holds a concrete value. Scope
// applies the principal's visibility rules. Predicates then walks an ordered
// list of axis builders, each contributing at most one predicate, and the
// store conjoins whatever they return. Adding an axis means adding one
// builder.
package filter
