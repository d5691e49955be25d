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
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"liquidityDesk/internal/allowance"
	"liquidityDesk/internal/chain"
	"liquidityDesk/internal/config"
	"liquidityDesk/internal/dex"
	"liquidityDesk/internal/inventory"
	"liquidityDesk/internal/model"
	"liquidityDesk/internal/pricing"
	"liquidityDesk/internal/quote"
	"liquidityDesk/internal/registry"
	"liquidityDesk/internal/sequencer"
	"liquidityDesk/internal/storage"
	"liquidityDesk/internal/storage/postgres"
	"liquidityDesk/internal/wallet"
)

func main() {
	root := &cobra.Command{
		Use:          "desk",
		Short:        "Concentrated-liquidity position desk",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "List owned positions with their current value",
		RunE:  runPositions,
	}
	commonFlags(positionsCmd)
	positionsCmd.Flags().String("owner", "", "owner address (defaults to the signing key's address)")
	positionsCmd.Flags().Bool("export", false, "append a snapshot of the inventory to the output JSONL")
	positionsCmd.Flags().String("out", "./data/positions.jsonl", "snapshot output JSONL path")
	positionsCmd.Flags().String("pg-dsn", "", "Postgres DSN for snapshot upserts")
	root.AddCommand(positionsCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote an exact-input trade",
		RunE:  runQuote,
	}
	commonFlags(quoteCmd)
	quoteCmd.Flags().String("token-in", "", "input token symbol or address")
	quoteCmd.Flags().String("token-out", "", "output token symbol or address")
	quoteCmd.Flags().Uint32("fee", 3000, "pool fee tier (100, 500, 3000, 10000)")
	quoteCmd.Flags().String("amount", "", "input amount in human units")
	quoteCmd.Flags().Duration("debounce", 400*time.Millisecond, "quote debounce interval")
	root.AddCommand(quoteCmd)

	tokenInfoCmd := &cobra.Command{
		Use:   "token-info <address>",
		Short: "Fetch ERC20 metadata from the chain",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenInfo,
	}
	commonFlags(tokenInfoCmd)
	root.AddCommand(tokenInfoCmd)

	root.AddCommand(newSwapCmd(), newWrapCmd(), newUnwrapCmd())
	root.AddCommand(newAddLiquidityCmd(), newIncreaseCmd(), newDecreaseCmd(), newBurnCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func commonFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "JSON-RPC endpoint URL")
	cmd.Flags().Uint64("chain-id", 1, "chain id")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts for reads")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// desk bundles the shared per-command environment.
type desk struct {
	cfg      config.Config
	logger   *zap.Logger
	client   *chain.Client
	registry *registry.Registry
}

func openDesk(ctx context.Context, cmd *cobra.Command) (*desk, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	reg, err := registry.ForChain(cfg.ChainID)
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	}
	if chainID.Uint64() != cfg.ChainID {
		client.Close()
		return nil, fmt.Errorf("rpc serves chain %d, expected %d", chainID.Uint64(), cfg.ChainID)
	}

	return &desk{cfg: cfg, logger: logger, client: client, registry: reg}, nil
}

func (d *desk) Close() {
	d.client.Close()
	d.logger.Sync()
}

// signerEnv wires the signing wallet, allowance reconciler, and sequencer
// for commands that submit transactions.
func (d *desk) signerEnv() (*wallet.Wallet, *sequencer.Sequencer, *allowance.Reconciler, error) {
	w, err := wallet.FromHexKey(d.cfg.PrivateKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("DESK_PRIVATE_KEY: %w", err)
	}

	backend := chain.NewTxBackend(d.client, w, d.logger)
	recon := allowance.New(dex.NewERC20Reader(d.client), w.Address(), d.logger)

	seq := sequencer.New(backend, recon, d.logger)
	seq.OnStatus(func(action string, status sequencer.Status) {
		d.logger.Info("action status",
			zap.String("action", action),
			zap.String("status", status.String()),
		)
	})
	return w, seq, recon, nil
}

// ensureFunds pre-flights a spend against the owner's current balance so an
// obviously underfunded action fails before any simulation.
func ensureFunds(ctx context.Context, recon *allowance.Reconciler, token model.Token, need *big.Int) error {
	if need == nil || need.Sign() == 0 || registry.IsNative(token.Address) {
		return nil
	}
	balance, err := recon.RefreshBalance(ctx, common.HexToAddress(token.Address))
	if err != nil {
		return fmt.Errorf("balance %s: %w", token.Symbol, err)
	}
	if balance.Cmp(need) < 0 {
		return fmt.Errorf("insufficient %s balance: have %s, need %s",
			token.Symbol,
			pricing.FormatAmount(balance, token.Decimals),
			pricing.FormatAmount(need, token.Decimals),
		)
	}
	return nil
}

// resolveToken accepts a registry symbol or a token address.
func resolveToken(reg *registry.Registry, ref string) (model.Token, error) {
	if ref == "" {
		return model.Token{}, fmt.Errorf("token is required")
	}
	if token, ok := reg.TokenBySymbol(ref); ok {
		return token, nil
	}
	if token, ok := reg.TokenByAddress(ref); ok {
		return token, nil
	}
	return model.Token{}, fmt.Errorf("unknown token: %s", ref)
}

func runPositions(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDesk(ctx, cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ownerFlag, _ := cmd.Flags().GetString("owner")
	var owner common.Address
	switch {
	case ownerFlag != "":
		if !common.IsHexAddress(ownerFlag) {
			return fmt.Errorf("invalid owner address: %s", ownerFlag)
		}
		owner = common.HexToAddress(ownerFlag)
	case d.cfg.PrivateKey != "":
		w, err := wallet.FromHexKey(d.cfg.PrivateKey)
		if err != nil {
			return err
		}
		owner = w.Address()
	default:
		return fmt.Errorf("owner address is required (flag --owner or DESK_PRIVATE_KEY)")
	}

	aggregator := inventory.New(d.client, d.registry, d.logger)

	var inv inventory.Inventory
	err = chain.WithRetry(ctx, d.cfg.MaxRetries, d.cfg.RetryBackoff, func(ctx context.Context) error {
		var fetchErr error
		inv, fetchErr = aggregator.Fetch(ctx, owner)
		return fetchErr
	})
	if err != nil {
		return fmt.Errorf("fetch inventory: %w", err)
	}

	printInventory(owner, inv)

	export, _ := cmd.Flags().GetBool("export")
	if !export && d.cfg.PgDSN == "" {
		return nil
	}

	rows := inventory.Snapshots(inv, d.cfg.ChainID, owner, time.Now())
	if export {
		var sink storage.Storage = storage.NewJsonlStorage(d.cfg.Out)
		if err := sink.PutSnapshotBatch(rows); err != nil {
			return fmt.Errorf("export snapshot: %w", err)
		}
		d.logger.Info("snapshot exported", zap.String("out", d.cfg.Out), zap.Int("rows", len(rows)))
	}
	if d.cfg.PgDSN != "" {
		store, err := postgres.NewStore(ctx, d.cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.UpsertSnapshots(ctx, rows); err != nil {
			return fmt.Errorf("upsert snapshots: %w", err)
		}
		d.logger.Info("snapshot upserted", zap.Int("rows", len(rows)))
	}
	return nil
}

func printInventory(owner common.Address, inv inventory.Inventory) {
	fmt.Printf("positions for %s\n", owner.Hex())

	fmt.Printf("\nactive (%d)\n", len(inv.Active))
	for _, pos := range inv.Active {
		printPosition(pos)
	}

	fmt.Printf("\nempty (%d)\n", len(inv.Empty))
	for _, pos := range inv.Empty {
		printPosition(pos)
	}
}

func printPosition(pos model.Position) {
	fmt.Printf("  #%s %s/%s %.2f%% ticks [%d, %d) liquidity %s",
		pos.TokenID,
		pos.Token0.Symbol, pos.Token1.Symbol,
		float64(pos.Fee)/10000,
		pos.TickLower, pos.TickUpper,
		pos.Liquidity,
	)
	if pos.Amounts.Degraded {
		fmt.Printf("  value unavailable (%s)\n", pos.Amounts.Reason)
		return
	}
	fmt.Printf("  %s %s + %s %s\n",
		pricing.FormatAmount(pos.Amounts.Amount0, pos.Token0.Decimals), pos.Token0.Symbol,
		pricing.FormatAmount(pos.Amounts.Amount1, pos.Token1.Decimals), pos.Token1.Symbol,
	)
}

func runQuote(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDesk(ctx, cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	inRef, _ := cmd.Flags().GetString("token-in")
	outRef, _ := cmd.Flags().GetString("token-out")
	fee, _ := cmd.Flags().GetUint32("fee")
	amount, _ := cmd.Flags().GetString("amount")

	tokenIn, err := resolveToken(d.registry, inRef)
	if err != nil {
		return err
	}
	tokenOut, err := resolveToken(d.registry, outRef)
	if err != nil {
		return err
	}

	quoter := quote.NewContractQuoter(d.client, common.HexToAddress(d.registry.Contracts().Quoter))
	engine := quote.New(quoter, d.registry, d.cfg.Debounce, d.logger)

	result, err := engine.Quote(ctx, tokenIn, tokenOut, fee, amount)
	if err != nil {
		return err
	}

	if result.Wrapped {
		fmt.Printf("%s %s -> %s %s (1:1 wrap)\n", amount, tokenIn.Symbol, result.AmountOut, tokenOut.Symbol)
		return nil
	}
	fmt.Printf("%s %s -> %s %s (fee %.2f%%)\n", amount, tokenIn.Symbol, result.AmountOut, tokenOut.Symbol, float64(fee)/10000)
	return nil
}

func runTokenInfo(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDesk(ctx, cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	if !common.IsHexAddress(args[0]) {
		return fmt.Errorf("invalid token address: %s", args[0])
	}
	address := common.HexToAddress(args[0])

	var meta model.Token
	err = chain.WithRetry(ctx, d.cfg.MaxRetries, d.cfg.RetryBackoff, func(ctx context.Context) error {
		var fetchErr error
		meta, fetchErr = dex.FetchTokenMeta(ctx, d.client, address, d.logger)
		return fetchErr
	})
	if err != nil {
		return fmt.Errorf("fetch token metadata: %w", err)
	}

	fmt.Printf("address:  %s\n", meta.Address)
	fmt.Printf("symbol:   %s\n", meta.Symbol)
	fmt.Printf("name:     %s\n", meta.Name)
	fmt.Printf("decimals: %d\n", meta.Decimals)
	if token, ok := d.registry.TokenByAddress(meta.Address); ok {
		fmt.Printf("registry: %s (%s)\n", token.Symbol, token.Name)
	} else {
		fmt.Println("registry: not listed")
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
