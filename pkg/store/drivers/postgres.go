package drivers

import (
	// Register pgx's database/sql adapter under driver name "pgx" for
	// networked PostgreSQL installations.
	_ "github.com/jackc/pgx/v5/stdlib"
)
