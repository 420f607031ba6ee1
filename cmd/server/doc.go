// Package main is the entry point for the facet server.
//
// The server hosts interactive data-exploration applications declared in a
// YAML definition. Each WebSocket connection gets its own session: a splash
// screen while datasets resolve, a one-shot registry build on the first
// non-empty bundle, then the tabbed module UI.
//
// The server provides:
//   - WebSocket session streaming (/stream)
//   - Session diagnostics and lock-file endpoints
//   - Report archive downloads
//   - Prometheus metrics, rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	./server -port 8080 -app app.yaml
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
