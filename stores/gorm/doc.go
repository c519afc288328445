//go:build !wasm
// +build !wasm

// Package gorm provides GORM-based implementations of the Mesto stores.
// It works with any database GORM supports; Open connects to PostgreSQL.
//
// # Database Schema
//
// The package auto-migrates the following tables:
//   - users: accounts, with a unique index on email
//   - cards: photo cards, likes kept as a JSON array of user ids
//
// Like toggles lock the card row (SELECT ... FOR UPDATE) inside a
// transaction so concurrent likes are not lost.
//
// # Usage
//
//	db, _ := gormstore.Open(ctx, logger, dsn, 30*time.Second)
//	gormstore.AutoMigrate(db)
//	users := gormstore.NewUserStore(db)
//	cards := gormstore.NewCardStore(db)
package gorm
