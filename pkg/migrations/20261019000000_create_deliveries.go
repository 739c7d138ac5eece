package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE deliveries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER NOT NULL,
				chat_id INTEGER NOT NULL,
				path TEXT NOT NULL,
				name TEXT NOT NULL,
				size INTEGER NOT NULL DEFAULT 0,
				mime_type TEXT,
				status TEXT NOT NULL,
				error TEXT
			)
		`)
		if err != nil {
			return errors.WithStack(err)
		}

		// Most lookups are per user, newest first.
		_, err = db.Exec(`CREATE INDEX ix_deliveries_user_id_created_at ON deliveries(user_id, created_at)`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`CREATE INDEX ix_deliveries_status ON deliveries(status)`)
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DROP INDEX IF EXISTS ix_deliveries_status`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DROP INDEX IF EXISTS ix_deliveries_user_id_created_at`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DROP TABLE IF EXISTS deliveries`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
