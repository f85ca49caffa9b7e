package coursemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	coursedb "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating courses table...")

		_, err := db.NewCreateTable().
			Model((*coursedb.Course)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create courses table: %w", err)
		}

		fmt.Println("courses table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Rolling back courses table...")

		_, err := db.NewDropTable().Model((*coursedb.Course)(nil)).IfExists().Cascade().Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop courses table: %w", err)
		}

		fmt.Println("courses table dropped successfully!")
		return nil
	})
}
