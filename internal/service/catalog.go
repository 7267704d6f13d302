package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"quickbet-platform/internal/game"
	"quickbet-platform/internal/model"
	"quickbet-platform/internal/repository"
)

// Catalog resolves wager codes to their display metadata and payout
// multiplier, backed by the database catalog with a per-game built-in
// fallback for day-one defaults.
type Catalog struct {
	repo  *repository.CatalogRepository
	games *game.Registry
}

// NewCatalog creates the catalog service.
func NewCatalog(repo *repository.CatalogRepository, games *game.Registry) *Catalog {
	return &Catalog{repo: repo, games: games}
}

// WithTx returns a copy whose lookups run on the given transaction.
func (c *Catalog) WithTx(tx pgx.Tx) *Catalog {
	return &Catalog{repo: c.repo.WithTx(tx), games: c.games}
}

// NormalizeCode canonicalizes a requested wager code: trimmed and lowered.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Resolve looks a code up in the database catalog, falling back to the
// game's built-in table when the database lacks an entry. Returns
// ErrUnknownBetCode when neither source knows the code.
func (c *Catalog) Resolve(ctx context.Context, gameCode, code string) (*model.QuickBetConfig, error) {
	normalized := NormalizeCode(code)

	cfg, err := c.repo.GetByCode(ctx, gameCode, normalized)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, repository.ErrCatalogNotFound) {
		return nil, err
	}

	rules, ok := c.games.Get(gameCode)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, gameCode)
	}
	entry, ok := rules.Fallback(normalized)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBetCode, code)
	}

	return &model.QuickBetConfig{
		Game:        gameCode,
		Code:        normalized,
		DisplayName: entry.DisplayName,
		Multiplier:  entry.Multiplier,
		LayoutGroup: entry.LayoutGroup,
		SortOrder:   entry.SortOrder,
		Active:      true,
	}, nil
}

// List returns a game's catalog ordered for board layout.
func (c *Catalog) List(ctx context.Context, gameCode string, activeOnly bool) ([]*model.QuickBetConfig, error) {
	if _, ok := c.games.Get(gameCode); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, gameCode)
	}
	return c.repo.ListByGame(ctx, gameCode, activeOnly)
}

// Create adds a catalog entry after normalizing its code.
func (c *Catalog) Create(ctx context.Context, cfg *model.QuickBetConfig) (*model.QuickBetConfig, error) {
	if _, ok := c.games.Get(cfg.Game); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, cfg.Game)
	}
	cfg.Code = NormalizeCode(cfg.Code)
	if cfg.Code == "" {
		return nil, fmt.Errorf("%w: empty code", ErrUnknownBetCode)
	}
	if !cfg.Multiplier.IsPositive() {
		return nil, fmt.Errorf("multiplier must be positive")
	}
	return c.repo.Create(ctx, cfg)
}

// Update rewrites a catalog entry. Already-placed wagers keep their own
// multiplier snapshot and are unaffected.
func (c *Catalog) Update(ctx context.Context, cfg *model.QuickBetConfig) (*model.QuickBetConfig, error) {
	if !cfg.Multiplier.IsPositive() {
		return nil, fmt.Errorf("multiplier must be positive")
	}
	return c.repo.Update(ctx, cfg)
}

// Delete removes a catalog entry.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	return c.repo.Delete(ctx, id)
}
