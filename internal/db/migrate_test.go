package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPgx5URL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@localhost:5432/app?sslmode=disable", pgx5URL("postgres://u:p@localhost:5432/app?sslmode=disable"))
	require.Equal(t, "pgx5://localhost/app", pgx5URL("postgresql://localhost/app"))
	require.Equal(t, "pgx5://already", pgx5URL("pgx5://already"))
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	require.NoError(t, err)
	up := map[string]bool{}
	down := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			up[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			down[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, up)
	require.Equal(t, up, down)
}
