package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arijanluiken/tickscript/internal/indicator"
	"github.com/arijanluiken/tickscript/internal/tickscript"
	"github.com/arijanluiken/tickscript/pkg/market"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <script>",
		Short: "Check that a script lexes and parses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readScript(args[0])
			if err != nil {
				return err
			}
			if err := a.engine.Validate(source); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Evaluate a script over a bar file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readScript(args[0])
			if err != nil {
				return err
			}

			barsPath, _ := cmd.Flags().GetString("bars")
			bars, err := market.NewLoader(a.logger).LoadFile(barsPath)
			if err != nil {
				return err
			}

			overrides, _ := cmd.Flags().GetStringArray("param")
			params, err := mergeParams(a.cfg.Parameters, overrides)
			if err != nil {
				return err
			}

			result, err := a.engine.Run(cmd.Context(), source, bars, params)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			plots := result.Plots
			if all, _ := cmd.Flags().GetBool("all"); !all && len(plots) > 0 {
				plots = plots[len(plots)-1:]
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), result.Study, plots, bars)
			}
			return writeTable(cmd.OutOrStdout(), plots, bars)
		},
	}

	cmd.Flags().String("bars", "", "CSV, JSON or YAML file of OHLCV bars")
	cmd.Flags().StringArray("param", nil, "Script parameter as name=value, repeatable")
	cmd.Flags().Bool("all", false, "Print every plot instead of the last one")
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")
	cmd.MarkFlagRequired("bars")

	return cmd
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <script>",
		Short: "Print the statements of a compiled script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readScript(args[0])
			if err != nil {
				return err
			}
			program, err := a.engine.Compile(source)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			for _, stmt := range program.Statements {
				fmt.Fprintln(cmd.OutOrStdout(), stmt)
			}
			return nil
		},
	}
}

func newExamplesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "examples [name]",
		Short: "List the bundled example scripts or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, ex := range tickscript.Examples() {
					fmt.Fprintln(out, ex.Name)
				}
				return nil
			}

			source, ok := tickscript.LookupExample(args[0])
			if !ok {
				return fmt.Errorf("unknown example %q", args[0])
			}
			fmt.Fprint(out, source)
			return nil
		},
	}
}

func newFunctionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the builtin functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range tickscript.BuiltinNames() {
				b, _ := tickscript.LookupBuiltin(name)
				fmt.Fprintf(tw, "%s\t%d args\t%s\n", name, len(b.Args), b.Result)
			}
			return tw.Flush()
		},
	}
}

func newIndicatorsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indicators",
		Short: "Calculate native and scripted indicators over a bar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			barsPath, _ := cmd.Flags().GetString("bars")
			bars, err := market.NewLoader(a.logger).LoadFile(barsPath)
			if err != nil {
				return err
			}

			manager := indicator.NewManager(a.logger)

			period, _ := cmd.Flags().GetInt("period")
			for _, kind := range []indicator.AverageKind{indicator.Simple, indicator.Exponential} {
				ma, err := indicator.NewMovingAverage(kind, period)
				if err != nil {
					return err
				}
				if err := manager.Add(ma); err != nil {
					return err
				}
			}

			dir := a.cfg.Scripts.Directory
			if v, _ := cmd.Flags().GetString("scripts-dir"); v != "" {
				dir = v
			}
			scripts, err := indicator.LoadDir(a.logger, a.engine, dir, a.cfg.Parameters)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
				a.logger.Warn().Str("directory", dir).Msg("Scripts directory not found, using native indicators only")
			}
			for _, ind := range scripts {
				if err := manager.Add(ind); err != nil {
					return err
				}
			}

			results, calcErr := manager.CalculateAll(cmd.Context(), bars)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range manager.List() {
				series, ok := results[name]
				if !ok {
					fmt.Fprintf(tw, "%s\terror\n", name)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\n", name, formatValue(lastValue(series)))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			return calcErr
		},
	}

	cmd.Flags().String("bars", "", "CSV, JSON or YAML file of OHLCV bars")
	cmd.Flags().Int("period", 20, "Period of the native moving averages")
	cmd.Flags().String("scripts-dir", "", "Directory of .tick and .star indicators (env TICKSCRIPT_SCRIPTS_DIR)")
	cmd.MarkFlagRequired("bars")

	return cmd
}

func readScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(data), nil
}

// mergeParams layers name=value overrides on top of the configured defaults.
// Values that parse as numbers or booleans keep that type.
func mergeParams(defaults map[string]interface{}, overrides []string) (map[string]interface{}, error) {
	params := make(map[string]interface{}, len(defaults)+len(overrides))
	for k, v := range defaults {
		params[k] = v
	}

	for _, raw := range overrides {
		name, value, ok := strings.Cut(raw, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", raw)
		}
		params[name] = parseParamValue(value)
	}

	return params, nil
}

func parseParamValue(value string) interface{} {
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}

func writeTable(w io.Writer, plots []tickscript.PlotOutput, bars []market.Bar) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	header := []string{"time"}
	for i, plot := range plots {
		header = append(header, plotTitle(plot, i))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for i, bar := range bars {
		row := []string{barLabel(bar, i)}
		for _, plot := range plots {
			row = append(row, formatValue(plot.Series[i]))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}

type jsonPlot struct {
	Title  string     `json:"title"`
	Values []*float64 `json:"values"`
}

type jsonOutput struct {
	Study tickscript.StudyInfo `json:"study"`
	Times []string             `json:"times"`
	Plots []jsonPlot           `json:"plots"`
}

func writeJSON(w io.Writer, study tickscript.StudyInfo, plots []tickscript.PlotOutput, bars []market.Bar) error {
	out := jsonOutput{Study: study, Times: make([]string, len(bars)), Plots: make([]jsonPlot, len(plots))}
	for i, bar := range bars {
		out.Times[i] = barLabel(bar, i)
	}
	for i, plot := range plots {
		values := make([]*float64, len(plot.Series))
		for j, v := range plot.Series {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				values[j] = &v
			}
		}
		out.Plots[i] = jsonPlot{Title: plotTitle(plot, i), Values: values}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func plotTitle(plot tickscript.PlotOutput, i int) string {
	if plot.Title != "" {
		return plot.Title
	}
	return fmt.Sprintf("plot%d", i+1)
}

func barLabel(bar market.Bar, i int) string {
	if bar.Timestamp.IsZero() {
		return strconv.Itoa(i)
	}
	return bar.Timestamp.UTC().Format("2006-01-02T15:04:05Z")
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func lastValue(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}
