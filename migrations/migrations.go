// Package migrations хранит SQL-миграции goose для обоих диалектов.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
