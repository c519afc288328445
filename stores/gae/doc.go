//go:build !wasm
// +build !wasm

// Package gae provides Google Cloud Datastore implementations of the Mesto
// stores. Namespaces isolate deployments that share a project.
//
// # Datastore Kinds
//
//   - User: accounts, keyed by the user id
//   - Email: email -> user id reservation, keyed by the email
//   - Card: photo cards, keyed by the card id
//
// Signup writes the Email reservation and the User in one transaction, which
// is what makes emails unique. Like toggles read and write the Card inside a
// transaction.
//
// # Usage
//
//	client, _ := gae.Open(ctx, logger, projectID, 30*time.Second)
//	users := gae.NewUserStore(client, "")  // default namespace
//	cards := gae.NewCardStore(client, "")
package gae
