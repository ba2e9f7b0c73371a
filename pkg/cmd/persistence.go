package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/clinicflow/clinicflow/pkg/persistence"
	"github.com/clinicflow/clinicflow/pkg/persistence/file"
	"github.com/clinicflow/clinicflow/pkg/persistence/postgresql"
)

// NewPersistence selects the store from the database URL scheme. Postgres
// URLs get the SQL store; anything else falls back to the file store rooted
// at the given path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.SplitN(databaseURL, "://", 2)

	return parts[0]
}
