package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/iwvelando/payoff-planner/internal/config"
	"github.com/iwvelando/payoff-planner/internal/logging"
	"github.com/iwvelando/payoff-planner/internal/optimizer"
	"github.com/iwvelando/payoff-planner/internal/plan"
	"github.com/iwvelando/payoff-planner/pkg/constants"
	"github.com/iwvelando/payoff-planner/pkg/output"
	"github.com/iwvelando/payoff-planner/pkg/payoff"
	"github.com/iwvelando/payoff-planner/pkg/validation"
	"go.uber.org/zap"
)

type options struct {
	outputFormat   string
	focusLoanID    string
	compare        bool
	optimizeMonths int
	maxBudget      float64
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	focus := flag.String("focus", "", "loan id whose schedule is printed after the plan")
	compare := flag.Bool("compare", false, "compare every strategy instead of running the configured one")
	optimizeMonths := flag.Int("optimize-months", 0, "find the smallest extra budget that pays off within this many months")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI overrides take precedence over config
	opts := options{
		outputFormat:   conf.Output.Format,
		focusLoanID:    conf.Output.FocusLoanID,
		compare:        *compare,
		optimizeMonths: conf.Plan.Optimize.TargetMonths,
		maxBudget:      conf.Plan.Optimize.MaxBudget,
	}
	if *outputFormatFlag != "" {
		opts.outputFormat = *outputFormatFlag
	}
	if opts.outputFormat == "" {
		opts.outputFormat = constants.OutputFormatPretty
	}
	if *focus != "" {
		opts.focusLoanID = *focus
	}
	if *optimizeMonths > 0 {
		opts.optimizeMonths = *optimizeMonths
	}

	if err := validation.ValidateOutputFormat(opts.outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if err := run(logger, *conf, opts, os.Stdout); err != nil {
		logger.Fatal("failed to compute payoff plan",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// run computes the requested plans and writes them to w.
func run(logger *zap.Logger, conf config.Configuration, opts options, w io.Writer) error {
	if opts.compare {
		plans, err := plan.ComparePlans(logger, conf)
		if err != nil {
			return err
		}
		switch opts.outputFormat {
		case constants.OutputFormatPretty:
			summaries := make([]payoff.Summary, 0, len(plans))
			for _, p := range plans {
				summaries = append(summaries, p.Summary)
			}
			output.PrettyComparison(w, summaries)
		default:
			// CSV and JSON are per-plan artifacts; write them one after another.
			for _, p := range plans {
				if err := writeResult(w, opts.outputFormat, p); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(w)
			}
		}
		return nil
	}

	p, err := plan.GetPlan(logger, conf)
	if err != nil {
		return err
	}
	if !p.Summary.Converged {
		logger.Warn("plan did not pay off all loans",
			zap.String("op", "main"),
			zap.Float64("outstanding", p.Result.Outstanding),
			zap.Bool("capReached", p.Result.CapReached),
		)
	}

	if err := writeResult(w, opts.outputFormat, p); err != nil {
		return err
	}

	if opts.outputFormat == constants.OutputFormatPretty && opts.focusLoanID != "" {
		_, _ = fmt.Fprintln(w)
		if err := output.PrettyLoanSchedule(w, p.Result, opts.focusLoanID); err != nil {
			logger.Warn(err.Error(), zap.String("op", "main"))
		}
	}

	if opts.optimizeMonths > 0 {
		runner := optimizer.NewRunner(logger, p.Loans, p.Options)
		summary, err := runner.MinimumExtraBudget(opts.optimizeMonths, opts.maxBudget)
		if err != nil {
			return err
		}
		if opts.outputFormat == constants.OutputFormatPretty {
			_, _ = fmt.Fprintln(w)
			output.PrettyOptimization(w, summary)
		} else {
			logger.Info("extra budget search finished",
				zap.String("op", "main"),
				zap.Int("targetMonths", summary.TargetMonths),
				zap.Float64("extraBudget", summary.Value),
				zap.Bool("converged", summary.Converged),
			)
		}
	}

	return nil
}

func writeResult(w io.Writer, format string, p plan.Plan) error {
	switch format {
	case constants.OutputFormatCSV:
		return output.CsvFormat(w, p.Result)
	case constants.OutputFormatJSON:
		return output.JSONFormat(w, p.Result)
	default:
		output.PrettyFormat(w, p.Result, p.Summary)
		return nil
	}
}
