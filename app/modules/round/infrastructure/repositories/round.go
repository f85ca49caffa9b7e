package rounddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// ErrNotFound is returned when a round is not found.
var ErrNotFound = errors.New("round not found")

// RoundDBImpl is the concrete implementation of the RoundDB interface using bun.
type RoundDBImpl struct {
	DB *bun.DB
}

// GetByInitiationEventID retrieves the round joined from the given initiation event.
func (db *RoundDBImpl) GetByInitiationEventID(ctx context.Context, eventID sharedtypes.EventID) (*Round, error) {
	round := new(Round)
	err := db.DB.NewSelect().
		Model(round).
		Where("initiation_event_id = ?", eventID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get round by initiation event id: %w", err)
	}
	return round, nil
}

// CreateRound inserts the round, deferring to any existing row with the same
// initiation event id. The conflict target makes concurrent joins converge on
// a single row: losers insert nothing and read back the winner's row inside
// the same transaction.
func (db *RoundDBImpl) CreateRound(ctx context.Context, round *Round) (*Round, bool, error) {
	var persisted *Round
	created := false

	err := db.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		round.UpdatedAt = time.Now().UTC()
		res, err := tx.NewInsert().
			Model(round).
			On("CONFLICT (initiation_event_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert round: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		created = rows > 0

		// Read the row back either way so callers always see the persisted
		// state, database defaults included.
		existing := new(Round)
		if err := tx.NewSelect().
			Model(existing).
			Where("initiation_event_id = ?", round.InitiationEventID).
			Scan(ctx); err != nil {
			return fmt.Errorf("failed to read round after insert: %w", err)
		}
		persisted = existing
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return persisted, created, nil
}

// GetRound retrieves a specific round by ID.
func (db *RoundDBImpl) GetRound(ctx context.Context, roundID sharedtypes.RoundID) (*Round, error) {
	round := new(Round)
	err := db.DB.NewSelect().
		Model(round).
		Where("id = ?", roundID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return round, nil
}

// GetCourseHashByRoundID returns just the course hash of a round.
func (db *RoundDBImpl) GetCourseHashByRoundID(ctx context.Context, roundID sharedtypes.RoundID) (string, error) {
	var courseHash string
	err := db.DB.NewSelect().
		Model((*Round)(nil)).
		Column("course_hash").
		Where("id = ?", roundID).
		Scan(ctx, &courseHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get course hash: %w", err)
	}
	return courseHash, nil
}

// ListRounds returns all rounds, newest first.
func (db *RoundDBImpl) ListRounds(ctx context.Context) ([]*Round, error) {
	var rounds []*Round
	err := db.DB.NewSelect().
		Model(&rounds).
		Order("created_at DESC").
		Order("id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	return rounds, nil
}
