/*
Command builder bootstraps a SecretVault builder and optionally serves its
status API.

Configuration is read from flags or the environment:

	NILLION_API_KEY  builder secret key (--api-key)
	NILAUTH_URL      authentication service URL (--nilauth-url)
	NILDB_NODES      comma separated storage node URLs (--nildb-node)

Usage:

	builder bootstrap
	builder did
	builder subscription
	builder serve --listen-addr 0.0.0.0:8080
*/
package main
