package config

import "errors"

// ErrDatabaseURLRequired indicates no connection string was provided for a
// psql or direct transport.
var ErrDatabaseURLRequired = errors.New(
	"database URL is required (set --database-url, MIGRATE_DATABASE_URL, DATABASE_URL, or database_url in config)",
)

// ErrEndpointRequired indicates the http transport was selected without an endpoint.
var ErrEndpointRequired = errors.New(
	"HTTP endpoint is required for the http transport (set MIGRATE_HTTP_ENDPOINT or http_endpoint in config)",
)

// ErrUnknownTransport indicates an unrecognized transport kind.
var ErrUnknownTransport = errors.New("unknown transport")
