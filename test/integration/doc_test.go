// Package integration_test provides end-to-end integration tests for the
// netop library.
//
// These tests run the full pipeline: a real HTTP backend (httptest), a
// durable SQLite queue store on disk, and the connectivity-driven sync
// coordinator. They cover offline capture, process-restart survival, and
// automatic drain on reconnect.
//
// # Running Integration Tests
//
// Integration tests are skipped with the -short flag:
//
//	go test -short ./...           # Skips integration tests
//	go test ./test/integration/... # Runs integration tests
package integration_test
