//go:build (netbsd && amd64) || ios || freebsd || darwin || (linux && riscv64) || (linux && ppc64le) || (linux && s390x) || (linux && amd64) || (linux && arm64) || (linux && 386) || android || (openbsd && amd64) || (openbsd && arm64) || (windows && amd64) || (windows && arm64)

package drivers

import (
	// Register the CGO-free SQLite driver. Production binaries opt in by
	// importing this package; test builds skip it and stay fast.
	_ "modernc.org/sqlite"
)
