//go:build dragonfly || ios || freebsd || darwin || (linux && ppc64) || (linux && ppc64le) || (linux && s390x) || (linux && amd64) || (linux && mips64) || (linux && mips64le) || (linux && arm64) || android || (windows && amd64) || (windows && arm64)

package drivers

import (
	// Register the Genji document store under driver name "genji" for
	// installations that prefer a pure-Go embedded engine with a
	// different storage layout than SQLite.
	_ "github.com/genjidb/genji/driver"
)
