//go:build cgo && duckdb && linux && (amd64 || arm64)

// DuckDB stays behind an explicit build tag so cross compilation remains
// predictable and default builds stay CGO-free.
// Build examples:
//
//	CGO_ENABLED=1 GOOS=linux GOARCH=amd64 go build -tags duckdb
//	CGO_ENABLED=1 GOOS=linux GOARCH=arm64 go build -tags duckdb
package drivers

import (
	_ "github.com/marcboeker/go-duckdb"
)
