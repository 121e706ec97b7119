package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"TradeGuard/internal/di"
	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/repository"
	"TradeGuard/internal/services/agents"
	"TradeGuard/internal/usecase"
	"TradeGuard/pkg/config"
	xhttp "TradeGuard/pkg/http"
	applogger "TradeGuard/pkg/logger"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tradeguard",
		Short:         "TradeGuard - trade risk scoring engine",
		Long:          `TradeGuard scores a proposed order against account state and market structure and returns a bounded risk score with findings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "config/config.yaml", "Configuration file path")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newEvaluateCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the Kafka intake",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadWithEnv(path)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}

			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()

			return app.Run()
		},
	}
}

type evaluateFlags struct {
	snapshot   string
	exchange   string
	instrument string
	product    string
	spot       float64
	agents     []string
	timezone   string
	asJSON     bool
	verbose    bool
}

func newEvaluateCmd() *cobra.Command {
	f := &evaluateFlags{}
	cmd := &cobra.Command{
		Use:   "evaluate SYMBOL BUY|SELL",
		Short: "Evaluate one order offline against a snapshot file",
		Long: `Evaluate one order against a JSON snapshot of candles and account state.
Example: tradeguard evaluate INFY BUY --snapshot infy.json --product CNC --agents structure,station`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), f, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "Snapshot JSON file with candles and account state")
	cmd.Flags().StringVar(&f.exchange, "exchange", "NSE", "Exchange")
	cmd.Flags().StringVar(&f.instrument, "instrument", "EQ", "Instrument type: EQ, FUT, CE or PE")
	cmd.Flags().StringVar(&f.product, "product", "MIS", "Product type: MIS (intraday), CNC or NRML (swing)")
	cmd.Flags().Float64Var(&f.spot, "spot", 0, "Spot price; 0 uses the last close")
	cmd.Flags().StringSliceVar(&f.agents, "agents", []string{"structure", "pattern", "station"}, "Optional agents to run")
	cmd.Flags().StringVar(&f.timezone, "timezone", "Asia/Kolkata", "Exchange timezone for sessions")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the raw evaluation as JSON")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "Log engine warnings to stderr")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

func runEvaluate(ctx context.Context, out, errOut io.Writer, f *evaluateFlags, symbol, side string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	loc, err := time.LoadLocation(f.timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	snap, err := repository.LoadSnapshot(f.snapshot, loc)
	if err != nil {
		return err
	}

	level := "error"
	if f.verbose {
		level = "warn"
	}
	l := applogger.NewWithWriter(errOut, level)

	req := models.EvaluateRequest{
		Symbol:          strings.ToUpper(symbol),
		Exchange:        strings.ToUpper(f.exchange),
		InstrumentType:  strings.ToUpper(f.instrument),
		TransactionType: strings.ToUpper(side),
		SpotPrice:       f.spot,
		ProductType:     strings.ToUpper(f.product),
	}
	for _, a := range f.agents {
		switch strings.ToLower(strings.TrimSpace(a)) {
		case agents.NameStructure:
			req.IncludeStructure = true
		case agents.NamePattern:
			req.IncludePattern = true
		case agents.NameStation:
			req.IncludeStation = true
		case "":
		default:
			return fmt.Errorf("unknown agent %q", a)
		}
	}
	if verr := xhttp.ValidateStruct(ctx, &req); verr != nil {
		b, _ := json.Marshal(verr)
		return fmt.Errorf("%w: %s", usecase.ErrInvalidRequest, b)
	}

	cfg := agents.DefaultConfig()
	cfg.Timezone = f.timezone
	deps := agents.Deps{Feed: snap, Log: l}
	orch := usecase.NewRiskOrchestrator(usecase.RiskOrchestratorDeps{
		Positions:  snap,
		Orders:     snap,
		Market:     snap.MarketContext(),
		Log:        l,
		Behavioral: agents.NewBehavioralAgent(deps),
		Structure:  agents.NewStructureAgent(deps, cfg),
		Pattern:    agents.NewPatternAgent(deps, cfg),
		Station:    agents.NewStationAgent(deps, cfg),
	})

	res, err := orch.Evaluate(ctx, req)
	if err != nil {
		return err
	}

	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = io.WriteString(out, Render(res))
	return err
}
