package service

import (
	"context"

	"quickbet-platform/internal/game"
	"quickbet-platform/internal/model"
	"quickbet-platform/internal/repository"
)

// Trend serves the recent-round history used by clients to render result
// roads. Purely read-side; rows are appended by settlement.
type Trend struct {
	repo  *repository.HistoryRepository
	games *game.Registry
}

// NewTrend creates the trend service.
func NewTrend(repo *repository.HistoryRepository, games *game.Registry) *Trend {
	return &Trend{repo: repo, games: games}
}

// Recent returns a table's latest settled rounds, newest first.
func (t *Trend) Recent(ctx context.Context, gameCode string, tableNo int, limit int) ([]*model.ResultHistory, error) {
	if _, ok := t.games.Get(gameCode); !ok {
		return nil, ErrUnknownGame
	}
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	return t.repo.ListRecent(ctx, gameCode, tableNo, limit)
}
