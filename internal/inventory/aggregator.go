package inventory

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityDesk/internal/chain"
	"liquidityDesk/internal/dex"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/position"
	"liquidityDesk/internal/pricing"
	"liquidityDesk/internal/registry"
)

// Caller is the read surface the aggregator needs from the chain client.
type Caller interface {
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	BatchCallContract(ctx context.Context, calls []chain.BatchCall) ([]chain.BatchResult, error)
}

// Inventory is the dual view over owned positions: funded positions first,
// fully-withdrawn (but unburned) positions second.
type Inventory struct {
	Active []model.Position
	Empty  []model.Position
}

// Aggregator enumerates owned positions and resolves their current value.
type Aggregator struct {
	client          Caller
	registry        *registry.Registry
	positionManager common.Address
	logger          *zap.Logger
}

// New builds an aggregator against the registry's position manager.
func New(client Caller, reg *registry.Registry, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		client:          client,
		registry:        reg,
		positionManager: common.HexToAddress(reg.Contracts().PositionManager),
		logger:          logger,
	}
}

// Fetch builds the inventory for an owner. A whole-step failure returns an
// empty inventory with the error; a single position that fails amount
// computation degrades to zero amounts instead of aborting the batch.
func (a *Aggregator) Fetch(ctx context.Context, owner common.Address) (Inventory, error) {
	balance, err := a.positionCount(ctx, owner)
	if err != nil {
		return Inventory{}, fmt.Errorf("position count: %w", err)
	}
	if balance == 0 {
		return Inventory{}, nil
	}

	tokenIDs, err := a.enumerateTokenIDs(ctx, owner, balance)
	if err != nil {
		return Inventory{}, fmt.Errorf("enumerate positions: %w", err)
	}

	rawPositions, err := a.fetchRawPositions(ctx, tokenIDs)
	if err != nil {
		return Inventory{}, fmt.Errorf("fetch positions: %w", err)
	}

	poolStates, err := a.fetchPoolStates(ctx, rawPositions)
	if err != nil {
		return Inventory{}, fmt.Errorf("fetch pool states: %w", err)
	}

	var positions []model.Position
	for tokenID, raw := range rawPositions {
		pos, ok := a.resolve(tokenID, raw, poolStates)
		if !ok {
			continue
		}
		positions = append(positions, pos)
	}

	return splitAndSort(positions), nil
}

func (a *Aggregator) positionCount(ctx context.Context, owner common.Address) (uint64, error) {
	data, err := dex.PackPositionBalance(owner)
	if err != nil {
		return 0, err
	}
	resp, err := a.client.Call(ctx, a.positionManager, data)
	if err != nil {
		return 0, err
	}
	balance, err := dex.UnpackPositionBalance(resp)
	if err != nil {
		return 0, err
	}
	return balance.Uint64(), nil
}

func (a *Aggregator) enumerateTokenIDs(ctx context.Context, owner common.Address, balance uint64) ([]*big.Int, error) {
	calls := make([]chain.BatchCall, 0, balance)
	for i := uint64(0); i < balance; i++ {
		data, err := dex.PackTokenOfOwnerByIndex(owner, new(big.Int).SetUint64(i))
		if err != nil {
			return nil, err
		}
		calls = append(calls, chain.BatchCall{To: a.positionManager, Data: data})
	}

	results, err := a.client.BatchCallContract(ctx, calls)
	if err != nil {
		return nil, err
	}

	tokenIDs := make([]*big.Int, 0, len(results))
	for i, result := range results {
		if result.Err != nil {
			a.logger.Warn("token enumeration entry failed", zap.Int("index", i), zap.Error(result.Err))
			continue
		}
		tokenID, err := dex.UnpackTokenOfOwnerByIndex(result.Data)
		if err != nil {
			a.logger.Warn("token enumeration entry malformed", zap.Int("index", i), zap.Error(err))
			continue
		}
		tokenIDs = append(tokenIDs, tokenID)
	}
	return tokenIDs, nil
}

func (a *Aggregator) fetchRawPositions(ctx context.Context, tokenIDs []*big.Int) (map[string]dex.RawPosition, error) {
	calls := make([]chain.BatchCall, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		data, err := dex.PackPositions(tokenID)
		if err != nil {
			return nil, err
		}
		calls = append(calls, chain.BatchCall{To: a.positionManager, Data: data})
	}

	results, err := a.client.BatchCallContract(ctx, calls)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]dex.RawPosition, len(results))
	for i, result := range results {
		tokenID := tokenIDs[i]
		if result.Err != nil {
			a.logger.Warn("position fetch entry failed", zap.String("token_id", tokenID.String()), zap.Error(result.Err))
			continue
		}
		pos, err := dex.UnpackPositions(result.Data)
		if err != nil {
			a.logger.Warn("position entry malformed", zap.String("token_id", tokenID.String()), zap.Error(err))
			continue
		}
		raw[tokenID.String()] = pos
	}
	return raw, nil
}

// fetchPoolStates batches slot0, liquidity, and tickSpacing for each unique
// pool referenced by the positions, keyed by the canonical sorted pool key.
func (a *Aggregator) fetchPoolStates(ctx context.Context, rawPositions map[string]dex.RawPosition) (map[string]model.PoolState, error) {
	type poolRef struct {
		key     string
		address common.Address
	}
	var refs []poolRef
	seen := make(map[string]struct{})
	for _, raw := range rawPositions {
		key := registry.PoolKey(raw.Token0.Hex(), raw.Token1.Hex(), raw.Fee)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		pool, ok := a.registry.PoolFor(raw.Token0.Hex(), raw.Token1.Hex(), raw.Fee)
		if !ok {
			// Foreign pool; positions on it are dropped during resolve.
			continue
		}
		refs = append(refs, poolRef{key: key, address: common.HexToAddress(pool.Address)})
	}
	if len(refs) == 0 {
		return map[string]model.PoolState{}, nil
	}

	slot0Data, err := dex.PackSlot0()
	if err != nil {
		return nil, err
	}
	liquidityData, err := dex.PackPoolLiquidity()
	if err != nil {
		return nil, err
	}
	spacingData, err := dex.PackTickSpacing()
	if err != nil {
		return nil, err
	}

	calls := make([]chain.BatchCall, 0, len(refs)*3)
	for _, ref := range refs {
		calls = append(calls,
			chain.BatchCall{To: ref.address, Data: slot0Data},
			chain.BatchCall{To: ref.address, Data: liquidityData},
			chain.BatchCall{To: ref.address, Data: spacingData},
		)
	}

	results, err := a.client.BatchCallContract(ctx, calls)
	if err != nil {
		return nil, err
	}

	states := make(map[string]model.PoolState, len(refs))
	for i, ref := range refs {
		slot0Res, liqRes, spacingRes := results[i*3], results[i*3+1], results[i*3+2]
		if slot0Res.Err != nil || liqRes.Err != nil || spacingRes.Err != nil {
			a.logger.Warn("pool state entry failed", zap.String("pool", ref.address.Hex()))
			continue
		}

		sqrtPrice, tick, err := dex.UnpackSlot0(slot0Res.Data)
		if err != nil {
			a.logger.Warn("slot0 malformed", zap.String("pool", ref.address.Hex()), zap.Error(err))
			continue
		}
		liquidity, err := dex.UnpackPoolLiquidity(liqRes.Data)
		if err != nil {
			a.logger.Warn("liquidity malformed", zap.String("pool", ref.address.Hex()), zap.Error(err))
			continue
		}
		spacing, err := dex.UnpackTickSpacing(spacingRes.Data)
		if err != nil {
			a.logger.Warn("tickSpacing malformed", zap.String("pool", ref.address.Hex()), zap.Error(err))
			continue
		}

		states[ref.key] = model.PoolState{
			SqrtPriceX96: sqrtPrice,
			Tick:         tick,
			TickSpacing:  spacing,
			Liquidity:    liquidity,
		}
	}
	return states, nil
}

// resolve maps a raw position onto registry tokens and its pool state.
// Positions on unknown tokens or pools are foreign and excluded.
func (a *Aggregator) resolve(tokenID string, raw dex.RawPosition, poolStates map[string]model.PoolState) (model.Position, bool) {
	token0, ok := a.registry.TokenByAddress(raw.Token0.Hex())
	if !ok {
		a.logger.Debug("unknown token0, skipping position", zap.String("token_id", tokenID), zap.String("token", raw.Token0.Hex()))
		return model.Position{}, false
	}
	token1, ok := a.registry.TokenByAddress(raw.Token1.Hex())
	if !ok {
		a.logger.Debug("unknown token1, skipping position", zap.String("token_id", tokenID), zap.String("token", raw.Token1.Hex()))
		return model.Position{}, false
	}
	pool, ok := a.registry.PoolFor(raw.Token0.Hex(), raw.Token1.Hex(), raw.Fee)
	if !ok {
		a.logger.Debug("unknown pool, skipping position", zap.String("token_id", tokenID))
		return model.Position{}, false
	}

	id, ok := new(big.Int).SetString(tokenID, 10)
	if !ok {
		return model.Position{}, false
	}

	pos := model.Position{
		TokenID:   id,
		Token0:    token0,
		Token1:    token1,
		Fee:       raw.Fee,
		TickLower: raw.TickLower,
		TickUpper: raw.TickUpper,
		Liquidity: raw.Liquidity,
		Pool:      pool,
	}

	state, ok := poolStates[registry.PoolKey(raw.Token0.Hex(), raw.Token1.Hex(), raw.Fee)]
	if !ok {
		pos.Amounts = model.DegradedAmounts("pool state unavailable")
		return pos, true
	}
	pos.Amounts = position.Amounts(raw.Liquidity, raw.TickLower, raw.TickUpper, state)
	return pos, true
}

// splitAndSort orders funded positions before empty ones, newest tokenId
// first within each group.
func splitAndSort(positions []model.Position) Inventory {
	byNewest := func(items []model.Position) {
		sort.Slice(items, func(i, j int) bool {
			return items[i].TokenID.Cmp(items[j].TokenID) > 0
		})
	}

	var inv Inventory
	for _, pos := range positions {
		if pos.Liquidity != nil && pos.Liquidity.Sign() > 0 {
			inv.Active = append(inv.Active, pos)
		} else {
			inv.Empty = append(inv.Empty, pos)
		}
	}
	byNewest(inv.Active)
	byNewest(inv.Empty)
	return inv
}

// Snapshots flattens the inventory into export rows.
func Snapshots(inv Inventory, chainID uint64, owner common.Address, capturedAt time.Time) []model.PositionSnapshot {
	all := make([]model.Position, 0, len(inv.Active)+len(inv.Empty))
	all = append(all, inv.Active...)
	all = append(all, inv.Empty...)

	rows := make([]model.PositionSnapshot, 0, len(all))
	for _, pos := range all {
		rows = append(rows, model.PositionSnapshot{
			ChainID:    chainID,
			Owner:      owner.Hex(),
			TokenID:    pos.TokenID.String(),
			PoolAddr:   pos.Pool.Address,
			Token0:     pos.Token0.Symbol,
			Token1:     pos.Token1.Symbol,
			Fee:        pos.Fee,
			TickLower:  pos.TickLower,
			TickUpper:  pos.TickUpper,
			Liquidity:  pos.Liquidity.String(),
			Amount0:    pricing.FormatAmount(pos.Amounts.Amount0, pos.Token0.Decimals),
			Amount1:    pricing.FormatAmount(pos.Amounts.Amount1, pos.Token1.Decimals),
			Degraded:   pos.Amounts.Degraded,
			CapturedAt: capturedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return rows
}
