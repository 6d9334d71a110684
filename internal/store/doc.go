// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic. Task queries are expressed as a list of
// Predicates that the implementation conjoins; the store never decides
// which predicates apply.
package store
