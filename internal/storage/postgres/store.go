package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityDesk/internal/model"
)

// Store provides Postgres persistence for inventory snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertSnapshots inserts or updates one row per (chain, owner, token id,
// capture time).
func (s *Store) UpsertSnapshots(ctx context.Context, rows []model.PositionSnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO position_snapshots (
				chain_id, owner, token_id, pool_address, token0, token1, fee,
				tick_lower, tick_upper, liquidity, amount0, amount1, degraded,
				captured_at, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now())
			ON CONFLICT (chain_id, owner, token_id, captured_at)
			DO UPDATE SET
				liquidity = EXCLUDED.liquidity,
				amount0 = EXCLUDED.amount0,
				amount1 = EXCLUDED.amount1,
				degraded = EXCLUDED.degraded
		`,
			int64(row.ChainID),
			row.Owner,
			row.TokenID,
			row.PoolAddr,
			row.Token0,
			row.Token1,
			row.Fee,
			row.TickLower,
			row.TickUpper,
			row.Liquidity,
			row.Amount0,
			row.Amount1,
			row.Degraded,
			row.CapturedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
