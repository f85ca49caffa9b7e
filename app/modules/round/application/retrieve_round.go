package roundservice

import (
	"context"
	"errors"
	"strconv"

	rounddb "github.com/fairway-collective/roundsync/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/roundsync/app/shared/results"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// GetRound retrieves one round by local id.
func (s *RoundService) GetRound(ctx context.Context, roundID sharedtypes.RoundID) (results.OperationResult, error) {
	return s.withTelemetry(ctx, "GetRound", strconv.FormatInt(int64(roundID), 10), func(ctx context.Context) (results.OperationResult, error) {
		round, err := s.repo.GetRound(ctx, roundID)
		if err != nil {
			if errors.Is(err, rounddb.ErrNotFound) {
				return results.OperationResult{}, err
			}
			return results.OperationResult{}, newStorageError("round get", err)
		}
		return results.SuccessResult(round.ToShared()), nil
	})
}

// ListRounds retrieves all rounds, newest first.
func (s *RoundService) ListRounds(ctx context.Context) (results.OperationResult, error) {
	return s.withTelemetry(ctx, "ListRounds", "", func(ctx context.Context) (results.OperationResult, error) {
		rounds, err := s.repo.ListRounds(ctx)
		if err != nil {
			return results.OperationResult{}, newStorageError("round list", err)
		}
		return results.SuccessResult(rounddb.RoundsToShared(rounds)), nil
	})
}
