// Package app provides the application service layer.
//
// Service wires the store and change feed into the feedback pipeline.
// LiveView is the live reconciler: one goroutine per mounted view keeps a viewer's
// ranked list current from change notifications and a polling backstop.
// Depends on domain interfaces, not concrete adapters.
package app
