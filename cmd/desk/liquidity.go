package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"liquidityDesk/internal/chain"
	"liquidityDesk/internal/dex"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/pricing"
	"liquidityDesk/internal/sequencer"
)

func newAddLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Mint a new position over a price range",
		RunE:  runAddLiquidity,
	}
	commonFlags(cmd)
	cmd.Flags().String("token0", "", "first token symbol or address")
	cmd.Flags().String("token1", "", "second token symbol or address")
	cmd.Flags().Uint32("fee", 3000, "pool fee tier (100, 500, 3000, 10000)")
	cmd.Flags().String("amount0", "0", "desired amount of token0 in human units")
	cmd.Flags().String("amount1", "0", "desired amount of token1 in human units")
	cmd.Flags().Float64("price-lower", 0, "lower price bound, token1 per token0 in pool order")
	cmd.Flags().Float64("price-upper", 0, "upper price bound, token1 per token0 in pool order")
	cmd.Flags().Int32("tick-lower", 0, "explicit lower tick (overrides price-lower)")
	cmd.Flags().Int32("tick-upper", 0, "explicit upper tick (overrides price-upper)")
	cmd.Flags().Duration("deadline", 20*time.Minute, "transaction validity window")
	return cmd
}

func runAddLiquidity(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDesk(ctx, cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	w, seq, recon, err := d.signerEnv()
	if err != nil {
		return err
	}

	ref0, _ := cmd.Flags().GetString("token0")
	ref1, _ := cmd.Flags().GetString("token1")
	fee, _ := cmd.Flags().GetUint32("fee")
	amount0Str, _ := cmd.Flags().GetString("amount0")
	amount1Str, _ := cmd.Flags().GetString("amount1")

	token0, err := resolveToken(d.registry, ref0)
	if err != nil {
		return err
	}
	token1, err := resolveToken(d.registry, ref1)
	if err != nil {
		return err
	}

	pool, ok := d.registry.PoolFor(token0.Address, token1.Address, fee)
	if !ok {
		return fmt.Errorf("no pool for %s/%s at fee %d", token0.Symbol, token1.Symbol, fee)
	}

	// The pool fixes the token order; reorder the user's pair to match.
	if !token0.Is(pool.Token0) {
		token0, token1 = token1, token0
		amount0Str, amount1Str = amount1Str, amount0Str
	}

	amount0, err := pricing.ParseAmount(amount0Str, token0.Decimals)
	if err != nil {
		return err
	}
	amount1, err := pricing.ParseAmount(amount1Str, token1.Decimals)
	if err != nil {
		return err
	}

	if err := ensureFunds(ctx, recon, token0, amount0); err != nil {
		return err
	}
	if err := ensureFunds(ctx, recon, token1, amount1); err != nil {
		return err
	}

	tickLower, tickUpper, err := resolveRange(ctx, cmd, d, pool, token0, token1)
	if err != nil {
		return err
	}

	action, err := sequencer.BuildMint(sequencer.MintInput{
		Token0:          token0,
		Token1:          token1,
		Fee:             fee,
		TickLower:       tickLower,
		TickUpper:       tickUpper,
		Amount0:         amount0,
		Amount1:         amount1,
		Recipient:       w.Address(),
		PositionManager: common.HexToAddress(d.registry.Contracts().PositionManager),
		Deadline:        time.Now().Add(d.cfg.Deadline),
	})
	if err != nil {
		return err
	}

	fmt.Printf("minting %s/%s %.2f%% position over ticks [%d, %d)\n",
		token0.Symbol, token1.Symbol, float64(fee)/10000, tickLower, tickUpper)

	if err := seq.Run(ctx, action); err != nil {
		return err
	}
	fmt.Println("position minted")
	return nil
}

// resolveRange turns the price flags into spacing-aligned ticks, or takes
// explicit tick flags verbatim when both are set.
func resolveRange(ctx context.Context, cmd *cobra.Command, d *desk, pool model.Pool, token0, token1 model.Token) (int32, int32, error) {
	if cmd.Flags().Changed("tick-lower") && cmd.Flags().Changed("tick-upper") {
		lower, _ := cmd.Flags().GetInt32("tick-lower")
		upper, _ := cmd.Flags().GetInt32("tick-upper")
		return lower, upper, nil
	}

	priceLower, _ := cmd.Flags().GetFloat64("price-lower")
	priceUpper, _ := cmd.Flags().GetFloat64("price-upper")

	spacing, err := fetchTickSpacing(ctx, d.client, common.HexToAddress(pool.Address))
	if err != nil {
		return 0, 0, fmt.Errorf("tick spacing: %w", err)
	}

	lower, err := pricing.PriceToTick(priceLower, token0, token1, spacing)
	if err != nil {
		return 0, 0, fmt.Errorf("price-lower: %w", err)
	}
	upper, err := pricing.PriceToTick(priceUpper, token0, token1, spacing)
	if err != nil {
		return 0, 0, fmt.Errorf("price-upper: %w", err)
	}
	return lower, upper, nil
}

func newIncreaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "increase",
		Short: "Add funds to an existing position",
		RunE:  runIncrease,
	}
	commonFlags(cmd)
	cmd.Flags().String("token-id", "", "position token id")
	cmd.Flags().String("amount0", "0", "desired amount of token0 in human units")
	cmd.Flags().String("amount1", "0", "desired amount of token1 in human units")
	cmd.Flags().Duration("deadline", 20*time.Minute, "transaction validity window")
	return cmd
}

func runIncrease(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDesk(ctx, cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	_, seq, recon, err := d.signerEnv()
	if err != nil {
		return err
	}

	tokenID, err := tokenIDFlag(cmd)
	if err != nil {
		return err
	}

	npm := common.HexToAddress(d.registry.Contracts().PositionManager)
	raw, err := fetchPosition(ctx, d.client, npm, tokenID)
	if err != nil {
		return err
	}

	token0, ok := d.registry.TokenByAddress(raw.Token0.Hex())
	if !ok {
		return fmt.Errorf("position %s holds an unknown token: %s", tokenID, raw.Token0.Hex())
	}
	token1, ok := d.registry.TokenByAddress(raw.Token1.Hex())
	if !ok {
		return fmt.Errorf("position %s holds an unknown token: %s", tokenID, raw.Token1.Hex())
	}

	amount0Str, _ := cmd.Flags().GetString("amount0")
	amount1Str, _ := cmd.Flags().GetString("amount1")
	amount0, err := pricing.ParseAmount(amount0Str, token0.Decimals)
	if err != nil {
		return err
	}
	amount1, err := pricing.ParseAmount(amount1Str, token1.Decimals)
	if err != nil {
		return err
	}
	if err := ensureFunds(ctx, recon, token0, amount0); err != nil {
		return err
	}
	if err := ensureFunds(ctx, recon, token1, amount1); err != nil {
		return err
	}

	action, err := sequencer.BuildIncrease(sequencer.IncreaseInput{
		TokenID:         tokenID,
		Token0:          token0,
		Token1:          token1,
		Amount0:         amount0,
		Amount1:         amount1,
		PositionManager: npm,
		Deadline:        time.Now().Add(d.cfg.Deadline),
	})
	if err != nil {
		return err
	}

	if err := seq.Run(ctx, action); err != nil {
		return err
	}
	fmt.Printf("position #%s increased\n", tokenID)
	return nil
}

func newDecreaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrease",
		Short: "Withdraw a percentage of a position's liquidity",
		RunE:  runDecrease,
	}
	commonFlags(cmd)
	cmd.Flags().String("token-id", "", "position token id")
	cmd.Flags().Int64("percent", 100, "percentage of liquidity to remove, (0, 100]")
	cmd.Flags().Duration("deadline", 20*time.Minute, "transaction validity window")
	return cmd
}

func runDecrease(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDesk(ctx, cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	w, seq, _, err := d.signerEnv()
	if err != nil {
		return err
	}

	tokenID, err := tokenIDFlag(cmd)
	if err != nil {
		return err
	}
	percent, _ := cmd.Flags().GetInt64("percent")

	npm := common.HexToAddress(d.registry.Contracts().PositionManager)
	raw, err := fetchPosition(ctx, d.client, npm, tokenID)
	if err != nil {
		return err
	}

	action, err := sequencer.BuildDecrease(sequencer.DecreaseInput{
		TokenID:         tokenID,
		Liquidity:       raw.Liquidity,
		Percent:         percent,
		Recipient:       w.Address(),
		PositionManager: npm,
		Deadline:        time.Now().Add(d.cfg.Deadline),
	})
	if err != nil {
		return err
	}

	if err := seq.Run(ctx, action); err != nil {
		return err
	}
	fmt.Printf("removed %d%% of position #%s\n", percent, tokenID)
	return nil
}

func newBurnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burn",
		Short: "Burn an empty position NFT",
		RunE:  runBurn,
	}
	commonFlags(cmd)
	cmd.Flags().String("token-id", "", "position token id")
	return cmd
}

func runBurn(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDesk(ctx, cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	_, seq, _, err := d.signerEnv()
	if err != nil {
		return err
	}

	tokenID, err := tokenIDFlag(cmd)
	if err != nil {
		return err
	}

	npm := common.HexToAddress(d.registry.Contracts().PositionManager)
	raw, err := fetchPosition(ctx, d.client, npm, tokenID)
	if err != nil {
		return err
	}

	action, err := sequencer.BuildBurn(tokenID, raw.Liquidity, npm)
	if err != nil {
		return err
	}

	if err := seq.Run(ctx, action); err != nil {
		return err
	}
	fmt.Printf("position #%s burned\n", tokenID)
	return nil
}

func tokenIDFlag(cmd *cobra.Command) (*big.Int, error) {
	raw, _ := cmd.Flags().GetString("token-id")
	if raw == "" {
		return nil, fmt.Errorf("token-id is required")
	}
	id, ok := new(big.Int).SetString(raw, 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("invalid token-id: %s", raw)
	}
	return id, nil
}

func fetchPosition(ctx context.Context, client *chain.Client, positionManager common.Address, tokenID *big.Int) (dex.RawPosition, error) {
	data, err := dex.PackPositions(tokenID)
	if err != nil {
		return dex.RawPosition{}, err
	}
	resp, err := client.Call(ctx, positionManager, data)
	if err != nil {
		return dex.RawPosition{}, fmt.Errorf("fetch position %s: %w", tokenID, err)
	}
	return dex.UnpackPositions(resp)
}

func fetchTickSpacing(ctx context.Context, client *chain.Client, pool common.Address) (int32, error) {
	data, err := dex.PackTickSpacing()
	if err != nil {
		return 0, err
	}
	resp, err := client.Call(ctx, pool, data)
	if err != nil {
		return 0, err
	}
	return dex.UnpackTickSpacing(resp)
}
