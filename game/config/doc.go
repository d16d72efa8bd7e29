// Package config provides game-rules configuration for the party-game
// server.
//
// Rule sets are JSON files in a configuration directory, each fixing the
// round composition (total questions and action-family share), the vote
// window and the countdown length. The Manager loads and caches them by
// name and always has a built-in default to fall back on, so the server
// starts even with an empty directory.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	rules, err := manager.Load("classic")
//	if err != nil {
//		rules = manager.Default()
//	}
package config
