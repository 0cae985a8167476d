package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest over historical bar data",
	Long: `Run replays daily bars through a strategy against a simulated account.

Bar data is Yahoo-format CSV (Date,Open,High,Low,Close,Adj Close,Volume);
.gz, .xz and .lzma files are decompressed transparently. Settings come
from a config file, individual flags, or both (flags win).

Examples:
  backtester run --csv SPY=data/SPY.csv --strategy buy-hold --cash 10000
  backtester run -f backtest.yaml --strategy rsi2 --json`,
	RunE: runRun,
}

var (
	runConfigPath  string
	runCSV         []string
	runStrategy    string
	runInstrument  string
	runCash        float64
	runCommission  float64
	runBuffer      float64
	runWindow      int
	runExitWindow  int
	runTrendWindow int
	runBandWidth   float64
	runRSIPeriod   int
	runOversold    float64
	runOverbought  float64
	runFilter      string
	runFilterRatio float64
	runFillOnOpen  bool
	runDBPath      string
	runTradesCSV   string
	runEquityCSV   string
	runJSON        bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	runCmd.Flags().StringArrayVar(&runCSV, "csv", nil, "bar data as INSTRUMENT=path (repeatable)")

	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy name (see 'backtester strategies')")
	runCmd.Flags().StringVarP(&runInstrument, "instrument", "i", "", "instrument the strategy trades")
	runCmd.Flags().Float64VarP(&runCash, "cash", "c", 10_000, "starting cash")
	runCmd.Flags().Float64Var(&runCommission, "commission", 0.001, "commission rate per fill (0.001 = 0.1%)")
	runCmd.Flags().Float64Var(&runBuffer, "buffer", strategies.DefaultBuffer, "fraction of cash per entry")
	runCmd.Flags().BoolVar(&runFillOnOpen, "fill-on-open", false, "fill at the next bar's open instead of its adjusted close")

	runCmd.Flags().IntVar(&runWindow, "window", 0, "primary indicator window (strategy default when 0)")
	runCmd.Flags().IntVar(&runExitWindow, "exit-window", 0, "rsi2: exit SMA window")
	runCmd.Flags().IntVar(&runTrendWindow, "trend-window", 0, "long trend filter SMA window")
	runCmd.Flags().Float64Var(&runBandWidth, "band-width", 0, "bollinger: band width in standard deviations")
	runCmd.Flags().IntVar(&runRSIPeriod, "rsi-period", 0, "rsi2: RSI period")
	runCmd.Flags().Float64Var(&runOversold, "oversold", 0, "rsi2: entry threshold")
	runCmd.Flags().Float64Var(&runOverbought, "overbought", 0, "rsi2: exit threshold")
	runCmd.Flags().StringVar(&runFilter, "filter", "", "vix10: filter instrument")
	runCmd.Flags().Float64Var(&runFilterRatio, "filter-ratio", 0, "vix10: entry threshold vs the filter's moving average")

	runCmd.Flags().StringVarP(&runDBPath, "db", "d", "", "journal runs to this SQLite database")
	runCmd.Flags().StringVar(&runTradesCSV, "trades-csv", "", "journal trades to this CSV file")
	runCmd.Flags().StringVar(&runEquityCSV, "equity-csv", "", "journal the equity curve to this CSV file")

	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the result as JSON instead of text")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if runConfigPath != "" {
		loaded, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	fl := cmd.Flags()
	if cfg.Data.CSV == nil {
		cfg.Data.CSV = make(map[string]string)
	}
	for _, spec := range runCSV {
		instr, path, ok := strings.Cut(spec, "=")
		if !ok || instr == "" || path == "" {
			return fmt.Errorf("bad --csv %q, want INSTRUMENT=path", spec)
		}
		cfg.Data.CSV[instr] = path
	}

	if fl.Changed("strategy") {
		cfg.Strategy.Name = runStrategy
	}
	if fl.Changed("instrument") {
		cfg.Strategy.Params.Instrument = runInstrument
	}
	if cfg.Strategy.Params.Instrument == "" && len(cfg.Data.CSV) == 1 {
		for instr := range cfg.Data.CSV {
			cfg.Strategy.Params.Instrument = instr
		}
	}
	if fl.Changed("cash") {
		cfg.Account.Cash = runCash
	}
	if fl.Changed("commission") {
		cfg.Account.Commission = runCommission
	}
	if fl.Changed("buffer") {
		cfg.Strategy.Params.Buffer = runBuffer
	}
	if fl.Changed("fill-on-open") {
		cfg.Data.FillOnOpen = runFillOnOpen
	}
	if fl.Changed("window") {
		cfg.Strategy.Params.Window = runWindow
	}
	if fl.Changed("exit-window") {
		cfg.Strategy.Params.ExitWindow = runExitWindow
	}
	if fl.Changed("trend-window") {
		cfg.Strategy.Params.TrendWindow = runTrendWindow
	}
	if fl.Changed("band-width") {
		cfg.Strategy.Params.BandWidth = runBandWidth
	}
	if fl.Changed("rsi-period") {
		cfg.Strategy.Params.RSIPeriod = runRSIPeriod
	}
	if fl.Changed("oversold") {
		cfg.Strategy.Params.Oversold = runOversold
	}
	if fl.Changed("overbought") {
		cfg.Strategy.Params.Overbought = runOverbought
	}
	if fl.Changed("filter") {
		cfg.Strategy.Params.Filter = runFilter
	}
	if fl.Changed("filter-ratio") {
		cfg.Strategy.Params.FilterRatio = runFilterRatio
	}
	if fl.Changed("db") {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = runDBPath
	}
	if fl.Changed("trades-csv") || fl.Changed("equity-csv") {
		cfg.Journal.Type = "csv"
		cfg.Journal.TradesFile = runTradesCSV
		cfg.Journal.EquityFile = runEquityCSV
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	r, err := runBacktest(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if runJSON {
		b, err := r.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}
	backtest.WriteText(os.Stdout, r)
	return nil
}

func runBacktest(ctx context.Context, cfg *config.Config) (*backtest.Result, error) {
	instruments := make([]string, 0, len(cfg.Data.CSV))
	for instr := range cfg.Data.CSV {
		instruments = append(instruments, instr)
	}
	sort.Strings(instruments)

	series := make([]*market.BarSeries, 0, len(instruments))
	for _, instr := range instruments {
		s, err := market.ReadCSV(cfg.Data.CSV[instr], instr)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", instr, err)
		}
		series = append(series, s)
	}
	frame, err := market.Align(series...)
	if err != nil {
		return nil, err
	}

	strat, err := strategies.New(cfg.Strategy.Name, cfg.Strategy.Params)
	if err != nil {
		return nil, err
	}

	sim, err := broker.NewSim(broker.Config{
		Cash:           cfg.Account.Cash,
		CommissionRate: cfg.Account.Commission,
		FillOnOpen:     cfg.Data.FillOnOpen,
	}, slog.Default())
	if err != nil {
		return nil, err
	}

	var j journal.Journal = journal.Nop{}
	switch cfg.Journal.Type {
	case "csv":
		j, err = journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	e := &backtest.Engine{
		Frame:    frame,
		Broker:   sim,
		Strategy: strat,
		Journal:  j,
		Logger:   slog.Default(),
	}
	return e.Run(ctx)
}
