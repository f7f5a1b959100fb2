// Package migrations встроенные SQL миграции схемы
package migrations

import "embed"

// PostgresDir каталог миграций внутри PostgresMigrations
const PostgresDir = "postgres"

// PostgresMigrations goose миграции для PostgreSQL
//
//go:embed postgres/*.sql
var PostgresMigrations embed.FS
