package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"quickbet-platform/internal/model"
)

// CatalogRepository handles the quick-bet config catalog: wager codes,
// display metadata, payout multipliers and layout grouping.
type CatalogRepository struct {
	db DBTX
}

// NewCatalogRepository creates a new CatalogRepository instance.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: pool}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *CatalogRepository) WithTx(tx pgx.Tx) *CatalogRepository {
	return &CatalogRepository{db: tx}
}

const catalogColumns = `id, game, code, display_name, multiplier::text,
	layout_group, sort_order, active, created_at, updated_at`

func scanCatalog(row pgx.Row) (*model.QuickBetConfig, error) {
	var c model.QuickBetConfig
	var mult string
	err := row.Scan(
		&c.ID,
		&c.Game,
		&c.Code,
		&c.DisplayName,
		&mult,
		&c.LayoutGroup,
		&c.SortOrder,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCatalogNotFound
		}
		return nil, fmt.Errorf("failed to scan quick-bet config: %w", err)
	}
	c.Multiplier, err = decimal.NewFromString(mult)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog multiplier %q: %w", mult, err)
	}
	return &c, nil
}

// Create inserts a catalog entry.
func (r *CatalogRepository) Create(ctx context.Context, c *model.QuickBetConfig) (*model.QuickBetConfig, error) {
	const query = `
		INSERT INTO quick_bet_configs
			(game, code, display_name, multiplier, layout_group, sort_order, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, NOW(), NOW())
		RETURNING ` + catalogColumns

	created, err := scanCatalog(r.db.QueryRow(ctx, query,
		c.Game, c.Code, c.DisplayName, c.Multiplier.String(),
		c.LayoutGroup, c.SortOrder, c.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create quick-bet config: %w", err)
	}
	return created, nil
}

// Update rewrites a catalog entry's mutable fields.
func (r *CatalogRepository) Update(ctx context.Context, c *model.QuickBetConfig) (*model.QuickBetConfig, error) {
	const query = `
		UPDATE quick_bet_configs
		SET display_name = $2, multiplier = $3::numeric, layout_group = $4,
			sort_order = $5, active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + catalogColumns

	updated, err := scanCatalog(r.db.QueryRow(ctx, query,
		c.ID, c.DisplayName, c.Multiplier.String(),
		c.LayoutGroup, c.SortOrder, c.Active,
	))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a catalog entry. Placed wagers are unaffected because they
// carry their own multiplier snapshot.
func (r *CatalogRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM quick_bet_configs WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete quick-bet config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCatalogNotFound
	}
	return nil
}

// GetByCode retrieves an active catalog entry by normalized code.
func (r *CatalogRepository) GetByCode(ctx context.Context, game, code string) (*model.QuickBetConfig, error) {
	const query = `
		SELECT ` + catalogColumns + `
		FROM quick_bet_configs
		WHERE game = $1 AND code = $2 AND active
	`
	return scanCatalog(r.db.QueryRow(ctx, query, game, code))
}

// ListByGame retrieves a game's catalog ordered for board layout.
func (r *CatalogRepository) ListByGame(ctx context.Context, game string, activeOnly bool) ([]*model.QuickBetConfig, error) {
	const query = `
		SELECT ` + catalogColumns + `
		FROM quick_bet_configs
		WHERE game = $1 AND (active OR NOT $2)
		ORDER BY layout_group, sort_order, code
	`

	rows, err := r.db.Query(ctx, query, game, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list quick-bet configs: %w", err)
	}
	defer rows.Close()

	var configs []*model.QuickBetConfig
	for rows.Next() {
		c, err := scanCatalog(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quick-bet configs: %w", err)
	}

	return configs, nil
}
