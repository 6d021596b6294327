// Package all wires all built-in storage backends into the storage factory.
//
// Importing it for side effects makes the "sqlite", "postgres", "mssql" and
// "mysql" kinds available to storage.New and storage.EnsureTable:
//
//	import _ "calibrate/internal/storage/all"
//
// A binary that needs only a subset can import the backend packages directly
// instead.
package all

import (
	_ "calibrate/internal/storage/mssql"
	_ "calibrate/internal/storage/mysql"
	_ "calibrate/internal/storage/postgres"
	_ "calibrate/internal/storage/sqlite"
)
