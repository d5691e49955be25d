package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"liquidityDesk/internal/pricing"
	"liquidityDesk/internal/quote"
	"liquidityDesk/internal/sequencer"
)

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap an exact input amount with slippage protection",
		RunE:  runSwap,
	}
	commonFlags(cmd)
	cmd.Flags().String("token-in", "", "input token symbol or address")
	cmd.Flags().String("token-out", "", "output token symbol or address")
	cmd.Flags().Uint32("fee", 3000, "pool fee tier (100, 500, 3000, 10000)")
	cmd.Flags().String("amount", "", "input amount in human units")
	cmd.Flags().Int64("slippage-bps", 50, "slippage tolerance in basis points")
	cmd.Flags().Duration("deadline", 20*time.Minute, "transaction validity window")
	return cmd
}

func runSwap(cmd *cobra.Command, _ []string) error {
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
	if d.registry.IsWrapPair(tokenIn.Address, tokenOut.Address) {
		return fmt.Errorf("%s/%s converts 1:1; use the wrap or unwrap command", tokenIn.Symbol, tokenOut.Symbol)
	}

	quoter := quote.NewContractQuoter(d.client, common.HexToAddress(d.registry.Contracts().Quoter))
	engine := quote.New(quoter, d.registry, d.cfg.Debounce, d.logger)

	result, err := engine.Quote(ctx, tokenIn, tokenOut, fee, amount)
	if err != nil {
		return fmt.Errorf("quote: %w", err)
	}

	amountIn, err := pricing.ParseAmount(amount, tokenIn.Decimals)
	if err != nil {
		return err
	}
	if err := ensureFunds(ctx, recon, tokenIn, amountIn); err != nil {
		return err
	}

	action, err := sequencer.BuildSwap(sequencer.SwapInput{
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		Fee:         fee,
		AmountIn:    amountIn,
		QuotedOut:   result.Raw,
		SlippageBps: d.cfg.SlippageBps,
		Recipient:   w.Address(),
		Router:      common.HexToAddress(d.registry.Contracts().SwapRouter),
		Deadline:    time.Now().Add(d.cfg.Deadline),
	})
	if err != nil {
		return err
	}

	minOut := sequencer.MinimumOut(result.Raw, d.cfg.SlippageBps)
	fmt.Printf("swapping %s %s for %s %s (minimum %s)\n",
		amount, tokenIn.Symbol,
		result.AmountOut, tokenOut.Symbol,
		pricing.FormatAmount(minOut, tokenOut.Decimals),
	)

	if err := seq.Run(ctx, action); err != nil {
		return err
	}
	fmt.Println("swap confirmed")
	return nil
}

func newWrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wrap",
		Short: "Wrap the native token 1:1",
		RunE:  runWrap,
	}
	commonFlags(cmd)
	cmd.Flags().String("amount", "", "native amount in human units")
	return cmd
}

func runWrap(cmd *cobra.Command, _ []string) error {
	return runWrapDirection(cmd, true)
}

func newUnwrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unwrap",
		Short: "Unwrap back to the native token 1:1",
		RunE:  runUnwrap,
	}
	commonFlags(cmd)
	cmd.Flags().String("amount", "", "wrapped amount in human units")
	return cmd
}

func runUnwrap(cmd *cobra.Command, _ []string) error {
	return runWrapDirection(cmd, false)
}

func runWrapDirection(cmd *cobra.Command, wrap bool) error {
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

	amount, _ := cmd.Flags().GetString("amount")
	wrapped := common.HexToAddress(d.registry.Contracts().WrappedNative)
	wrappedToken, ok := d.registry.TokenByAddress(wrapped.Hex())
	if !ok {
		return fmt.Errorf("wrapped native token missing from registry")
	}

	raw, err := pricing.ParseAmount(amount, wrappedToken.Decimals)
	if err != nil {
		return err
	}

	var action sequencer.Action
	if wrap {
		action, err = sequencer.BuildWrap(raw, wrapped)
	} else {
		if err := ensureFunds(ctx, recon, wrappedToken, raw); err != nil {
			return err
		}
		action, err = sequencer.BuildUnwrap(raw, wrapped)
	}
	if err != nil {
		return err
	}

	if err := seq.Run(ctx, action); err != nil {
		return err
	}
	fmt.Printf("%s confirmed: %s\n", action.Name, amount)
	return nil
}
