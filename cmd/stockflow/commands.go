package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-stockflow/pkg/logging"
	"github.com/dd0wney/cluso-stockflow/pkg/metrics"
	"github.com/dd0wney/cluso-stockflow/pkg/model"
	"github.com/dd0wney/cluso-stockflow/pkg/modelfile"
	"github.com/dd0wney/cluso-stockflow/pkg/runner"
	"github.com/dd0wney/cluso-stockflow/pkg/validation"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

type runOptions struct {
	configPath  string
	rounds      int
	out         string
	compress    bool
	metricsFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "stockflow",
		Short: "Validate and simulate stock-and-flow models",
		Long: `stockflow loads System Dynamics models written as YAML, checks them for
structural problems and computes their levels round by round.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, text)")

	cmd.AddCommand(
		newValidateCmd(opts),
		newRunCmd(opts),
		newDepsCmd(opts),
		newRenderCmd(opts),
	)
	return cmd
}

// logger builds the command logger; flags override the config
func (o *rootOptions) logger(cfg *runner.Config, w io.Writer) (logging.Logger, error) {
	level := validation.DefaultOr(o.logLevel, cfg.Log.Level)
	format, err := logging.ParseFormat(validation.DefaultOr(o.logFormat, cfg.Log.Format))
	if err != nil {
		return nil, err
	}
	return logging.New(format, w, logging.ParseLevel(level)), nil
}

func (o *rootOptions) load(cmd *cobra.Command, path string) (*modelfile.Document, error) {
	logger, err := o.logger(runner.DefaultConfig(), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return modelfile.LoadFile(path, model.WithLogger(logger))
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <model.yaml>",
		Short: "Check a model for structural problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			if err := doc.Validate(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(
				fmt.Sprintf("%s is valid (%d nodes)", args[0], len(doc.Model.Nodes()))))
			return nil
		},
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	ro := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <model.yaml>",
		Short: "Simulate a model and print the final level values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModel(cmd, opts, ro, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&ro.configPath, "config", "", "run configuration file (YAML)")
	flags.IntVar(&ro.rounds, "rounds", 0, "number of rounds to compute")
	flags.StringVar(&ro.out, "out", "", "write the trajectory as CSV to this file")
	flags.BoolVar(&ro.compress, "compress", false, "snappy-compress the trajectory file")
	flags.StringVar(&ro.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	return cmd
}

func runModel(cmd *cobra.Command, opts *rootOptions, ro *runOptions, path string) error {
	cfg, err := runner.LoadConfig(ro.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("rounds") {
		cfg.Rounds = ro.rounds
	}
	if flags.Changed("out") {
		cfg.Output.Path = ro.out
	}
	if flags.Changed("compress") {
		cfg.Output.Compress = ro.compress
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = ro.metricsFile
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}

	logger, err := opts.logger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	registry := metrics.NewRegistry()
	r, err := runner.New(cfg, runner.WithLogger(logger), runner.WithMetrics(registry))
	if err != nil {
		return err
	}

	loadStart := time.Now()
	doc, err := modelfile.LoadFile(path, model.WithLogger(logger))
	if err != nil {
		return err
	}
	registry.RecordModel(runner.NodeCounts(doc.Model), time.Since(loadStart))

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt)
	defer stop()

	res, err := r.Run(ctx, doc.Model)
	if err != nil {
		return fmt.Errorf("%s: %w", path, doc.Locate(err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(res))
	if cfg.Output.Path != "" {
		fmt.Fprintln(cmd.OutOrStdout(), helpStyle.Render("trajectory written to "+cfg.Output.Path))
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newDepsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deps <model.yaml> <REF>",
		Short: "List the nodes a rate or auxiliary depends on",
		Long: `deps prints the operands read by the formula of a rate or auxiliary,
for example "stockflow deps model.yaml RN(1)". For rates the list including
flow ends adds the rate's source and sink.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			h, err := doc.Resolve(args[1])
			if err != nil {
				return err
			}
			holder, ok := h.(model.FormulaHolder)
			if !ok {
				return fmt.Errorf("%s is a %s node; only rates and auxiliaries have formulas",
					args[1], h.Kind())
			}
			m := doc.Model

			operands, err := m.DependsOn(holder)
			if err != nil {
				return err
			}
			withEnds, err := m.DependsOnWithFlowEndpoints(holder)
			if err != nil {
				return err
			}

			self, _ := m.Label(holder)
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderList(self+" depends on", labels(m, operands)))
			fmt.Fprint(out, renderList(self+" depends on (with flow ends)", labels(m, withEnds)))
			return nil
		},
	}
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render <model.yaml>",
		Short: "Print every formula with node names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			m := doc.Model

			var holders []model.FormulaHolder
			for _, h := range m.AuxiliaryNodes() {
				holders = append(holders, h)
			}
			for _, h := range m.RateNodes() {
				holders = append(holders, h)
			}

			out := cmd.OutOrStdout()
			for _, h := range holders {
				label, err := m.Label(h)
				if err != nil {
					return err
				}
				text, err := m.RenderFormula(h)
				if err != nil {
					return err
				}
				if text == "" {
					text = helpStyle.Render("(no formula)")
				}
				fmt.Fprintf(out, "%s = %s\n", titleStyle.Render(label), text)
			}
			return nil
		},
	}
}

func labels[H model.Handle](m *model.Model, hs []H) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		label, err := m.Label(h)
		if err != nil {
			label = fmt.Sprintf("%s %d", h.Kind(), h.NodeID())
		}
		out = append(out, label)
	}
	return out
}
