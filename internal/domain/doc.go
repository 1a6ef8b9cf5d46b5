// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (feedback.go, vote.go, changes.go, store.go, snapshot.go, errors.go)
// hold shared types and the contracts of the external store and change feed.
// No implementation code - adapters live under internal/adapter.
package domain
