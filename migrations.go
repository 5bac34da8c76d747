package review

import (
	"embed"

	"github.com/uptrace/bun"

	enginereview "github.com/goliatone/go-review/internal/review"
)

//go:embed data/sql/migrations/*.sql
var migrationsFS embed.FS

// GetMigrationsFS returns the embedded migration files for this package.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// RegisterModels registers the module's bun models so relations resolve
// before any query runs.
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*enginereview.Item)(nil), (*enginereview.Update)(nil))
}
