package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-nmr/fit"
	"github.com/cwbudde/algo-nmr/fit/equation"
)

var errFitFailed = errors.New("fit did not converge")

// NewFitCmd creates the fit command.
func NewFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit [file.csv]",
		Short: "Fit a model to x,y[,err] samples",
		Long: `Fit performs a bounded least-squares fit of a built-in model and
estimates parameter errors by bootstrap.

Input is CSV with columns x,y and an optional per-sample error column;
lines starting with '#' are ignored. With no file or "-" the samples are
read from standard input.

Models: ` + strings.Join(equation.Names(), ", ") + `

Examples:
  nmrcore fit --equation expdecay t1.csv
  nmrcore fit --equation xexp --bootstrap 500 --markdown noe.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: runFitCmd,
	}

	cmd.Flags().StringP("equation", "e", "xexp", "Model to fit")
	cmd.Flags().IntP("bootstrap", "b", 0, "Bootstrap resamples (default from config)")
	cmd.Flags().Uint64("seed", 0, "Bootstrap seed (default from config)")
	cmd.Flags().BoolP("markdown", "m", false, "Print the result as a Markdown report")

	return cmd
}

func runFitCmd(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	name, _ := cmd.Flags().GetString("equation")
	eq, ok := equation.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown equation %q (available: %s)", name, strings.Join(equation.Names(), ", "))
	}

	if cmd.Flags().Changed("bootstrap") {
		cfg.Fit.BootstrapSamples, _ = cmd.Flags().GetInt("bootstrap")
	}
	if cmd.Flags().Changed("seed") {
		cfg.Fit.Seed, _ = cmd.Flags().GetUint64("seed")
	}

	in, closeIn, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer func() { _ = closeIn() }()

	data, err := readSamples(in)
	if err != nil {
		return err
	}

	f := fit.New(
		fit.WithBootstrap(cfg.Fit.BootstrapSamples),
		fit.WithMaxIterations(cfg.Fit.MaxIterations),
		fit.WithTolerance(cfg.Fit.Tolerance),
		fit.WithSeed(cfg.Fit.Seed),
		fit.WithConcurrency(cfg.Fit.Concurrency),
		fit.WithLogger(logger),
	)
	res, err := f.Fit(context.Background(), eq, data)
	if err != nil {
		return err
	}
	if res == nil {
		return fmt.Errorf("%s: %w", eq.Name, errFitFailed)
	}

	if md, _ := cmd.Flags().GetBool("markdown"); md {
		return writeFitMarkdown(cmd.OutOrStdout(), eq, res, len(data.Y))
	}
	writeFitText(cmd.OutOrStdout(), eq, res)
	return nil
}

// readSamples parses x,y[,err] CSV rows. Either every row has an error
// column or none does.
func readSamples(r io.Reader) (fit.Data, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var x, y, e []float64
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fit.Data{}, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < 2 || len(rec) > 3 {
			return fit.Data{}, fmt.Errorf("line %d: want 2 or 3 columns, got %d", line, len(rec))
		}

		vals := make([]float64, len(rec))
		for i, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return fit.Data{}, fmt.Errorf("line %d: %w", line, err)
			}
			vals[i] = v
		}
		x = append(x, vals[0])
		y = append(y, vals[1])
		if len(vals) == 3 {
			e = append(e, vals[2])
		}
	}
	if len(e) != 0 && len(e) != len(y) {
		return fit.Data{}, fmt.Errorf("%d of %d rows carry an error column", len(e), len(y))
	}
	return fit.Points1D(x, y, e), nil
}

func writeFitText(w io.Writer, eq equation.Equation, res *fit.Result) {
	fmt.Fprintf(w, "equation:   %s = %s\n", eq.Name, eq.Formula)
	fmt.Fprintf(w, "rms:        %.6g\n", res.RMS)
	fmt.Fprintf(w, "iterations: %d\n", res.Iterations)
	fmt.Fprintf(w, "bootstrap:  %d\n", res.Samples)
	for _, row := range res.Rows() {
		fmt.Fprintf(w, "%-10s  %14.8g  +/- %.3g\n", row.Name, row.Value, row.Error)
	}
}

func writeFitMarkdown(w io.Writer, eq equation.Equation, res *fit.Result, samples int) error {
	md := markdown.NewMarkdown(w)
	md.H1("Fit: " + eq.Name)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Formula", "`" + eq.Formula + "`"},
			{"Samples", strconv.Itoa(samples)},
			{"RMS", strconv.FormatFloat(res.RMS, 'g', 6, 64)},
			{"Iterations", strconv.Itoa(res.Iterations)},
			{"Bootstrap resamples", strconv.Itoa(res.Samples)},
		},
	})
	md.PlainText("")

	rows := make([][]string, 0, len(res.Names))
	for _, row := range res.Rows() {
		rows = append(rows, []string{
			row.Name,
			strconv.FormatFloat(row.Value, 'g', 8, 64),
			strconv.FormatFloat(row.Error, 'g', 3, 64),
		})
	}
	md.H2("Parameters")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Parameter", "Value", "Error"},
		Rows:   rows,
	})
	return md.Build()
}
