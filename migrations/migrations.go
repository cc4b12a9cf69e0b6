// Package migrations содержит схему базы бэк-офиса в формате goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
