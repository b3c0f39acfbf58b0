// Package migrations embeds the goose schema migrations for both supported
// database backends. The postgres and sqlite directories carry the same
// schema versions expressed in each dialect.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS
