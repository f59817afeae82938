// Package db expone el esquema SQL embebido en el binario.
package db

import _ "embed"

//go:embed schema.sql
var Schema string
