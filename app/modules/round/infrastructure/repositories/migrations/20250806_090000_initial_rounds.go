package roundmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	rounddb "github.com/fairway-collective/roundsync/app/modules/round/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating rounds table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewCreateTable().
				Model((*rounddb.Round)(nil)).
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create rounds table: %w", err)
			}

			// The unique index is what makes concurrent joins on the same
			// invite converge on a single row.
			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS idx_rounds_initiation_event_id ON rounds (initiation_event_id)
			`); err != nil {
				return fmt.Errorf("failed to create initiation_event_id index: %w", err)
			}

			fmt.Println("rounds table created successfully!")
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Rolling back rounds table...")

		_, err := db.NewDropTable().Model((*rounddb.Round)(nil)).IfExists().Cascade().Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop rounds table: %w", err)
		}

		fmt.Println("rounds table dropped successfully!")
		return nil
	})
}
