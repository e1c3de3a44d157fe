/*
Package httpserver serves a small HTTP API around a bootstrapped builder.

The server is created after bootstrap.Bootstrap succeeds, so it never serves
an unregistered builder.

# Endpoints

	GET /api/builder          DID, network, chain id and registration outcome
	GET /api/builder/profile  live profile read from the storage nodes
	GET /livez                liveness
	GET /readyz               readiness, toggled by /drain and /undrain
	GET /drain                mark the server not ready
	GET /undrain              mark the server ready
	/debug/*                  pprof, when enabled

All routes are wrapped with the go-utils slog request logger.
*/
package httpserver
