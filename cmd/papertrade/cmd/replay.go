package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrade/config"
	"github.com/rustyeddy/papertrade/feed"
	"github.com/rustyeddy/papertrade/journal"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/sim"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay historical bars through a simulated environment",
	Long: `Replay drives a simulated trading environment over a recorded bar feed.

The clock starts at the configured start time and steps forward by the
refresh interval until the end time. On every step the environment pushes
each pair's bar price into the broker, re-evaluates resting limit orders
and journals an equity snapshot.

Example:
  papertrade replay -f replay.yaml`,
	RunE: runReplay,
}

var (
	replayConfigPath string
	replayVerbose    bool
)

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVarP(&replayConfigPath, "file", "f", "", "path to config file (YAML or JSON) (required)")
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "log every price update")
	replayCmd.MarkFlagRequired("file")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(replayConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	start, end, err := replayWindow(cfg)
	if err != nil {
		return err
	}

	log := logrus.New()
	if replayVerbose {
		log.SetLevel(logrus.DebugLevel)
	}

	bars, closeBars, err := openFeed(cfg)
	if err != nil {
		return fmt.Errorf("open feed: %w", err)
	}
	defer closeBars()

	jnl, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer jnl.Close()

	brk, err := buildBroker(cfg, jnl, log)
	if err != nil {
		return fmt.Errorf("build broker: %w", err)
	}

	pairs, err := cfg.Simulation.ParsedPairs()
	if err != nil {
		return err
	}
	barDuration, _ := cfg.Simulation.BarDurationOrDefault()
	refresh, _ := cfg.Simulation.RefreshIntervalOrDefault()

	clock := market.NewSimClock(start)
	env := sim.NewEnvironmentBuilder(sim.NewClient(brk), clock, bars).
		SetPairsToTrade(pairs...).
		SetBarDuration(barDuration).
		SetRefreshInterval(refresh).
		SetJournal(jnl).
		SetLogger(log).
		Build()

	if err := env.Init(); err != nil {
		return fmt.Errorf("init environment: %w", err)
	}

	fmt.Printf("Replaying %s to %s (step %s)\n", start.Format(time.RFC3339), end.Format(time.RFC3339), refresh)

	ctx := context.Background()
	steps := 0
	for clock.Now().Before(end) {
		clock.Advance(refresh)
		// Any client call catches the environment up with the clock.
		if _, err := env.GetAccount(ctx); err != nil {
			return fmt.Errorf("replay step at %s: %w", clock.Now().Format(time.RFC3339), err)
		}
		steps++
	}

	account, err := env.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("final account: %w", err)
	}

	fmt.Printf("\nReplayed %d steps.\n", steps)
	fmt.Printf("Final account (%s):\n", account.Currency)
	fmt.Printf("  Cash:         %s\n", account.Cash.String())
	fmt.Printf("  Buying power: %s\n", account.BuyingPower.String())
	for asset, pos := range account.OpenPositions {
		if pos.MarketValue != nil {
			fmt.Printf("  %s: %s (value %s)\n", asset, pos.Quantity.String(), pos.MarketValue.String())
		} else {
			fmt.Printf("  %s: %s\n", asset, pos.Quantity.String())
		}
	}
	return nil
}

func replayWindow(cfg *config.Config) (start, end time.Time, err error) {
	if cfg.Simulation.Start == "" || cfg.Simulation.End == "" {
		return start, end, fmt.Errorf("simulation.start and simulation.end are required for replay")
	}
	if start, err = time.Parse(time.RFC3339, cfg.Simulation.Start); err != nil {
		return start, end, fmt.Errorf("simulation.start: %w", err)
	}
	if end, err = time.Parse(time.RFC3339, cfg.Simulation.End); err != nil {
		return start, end, fmt.Errorf("simulation.end: %w", err)
	}
	if !end.After(start) {
		return start, end, fmt.Errorf("simulation.end must be after simulation.start")
	}
	return start, end, nil
}

func openFeed(cfg *config.Config) (market.BarDataSource, func() error, error) {
	switch cfg.Feed.Type {
	case "sqlite":
		store, err := feed.NewSQLiteBars(cfg.Feed.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		bars, err := feed.LoadCSV(cfg.Feed.Path)
		if err != nil {
			return nil, nil, err
		}
		return bars, func() error { return nil }, nil
	}
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.FillsFile, cfg.Journal.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return journal.Discard{}, nil
	}
}

func buildBroker(cfg *config.Config, jnl journal.Journal, log logrus.FieldLogger) (*sim.Broker, error) {
	builder := sim.NewBrokerBuilder(cfg.Account.Currency).
		SetJournal(jnl).
		SetLogger(log)

	balances := make(map[string]decimal.Decimal, len(cfg.Account.Balances))
	for asset, raw := range cfg.Account.Balances {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("balance for %s: %w", asset, err)
		}
		balances[asset] = d
	}

	if balance, ok := balances[cfg.Account.Currency]; ok {
		builder.SetBalance(balance)
		delete(balances, cfg.Account.Currency)
	}
	for _, asset := range cfg.Account.Notional {
		if balance, ok := balances[asset]; ok {
			builder.AddNotionalAsset(asset, &balance)
			delete(balances, asset)
		} else {
			builder.AddNotionalAsset(asset, nil)
		}
	}

	if cfg.Account.FeePercent != "" {
		fee, err := decimal.NewFromString(cfg.Account.FeePercent)
		if err != nil {
			return nil, fmt.Errorf("fee_percent: %w", err)
		}
		builder.SetFeePercent(fee)
	}

	brk, err := builder.Build()
	if err != nil {
		return nil, err
	}

	// Remaining balances are plain asset holdings, credited after build.
	for asset, balance := range balances {
		brk.UpdateBalance(asset, balance)
		brk.UpdateBuyingPower(asset, balance)
	}
	return brk, nil
}
