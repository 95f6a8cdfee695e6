package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-nmr/dsp/conv"
)

// NewDeconvCmd creates the deconv command.
func NewDeconvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deconv [file]",
		Short: "Remove line-shape broadening from a 1D spectrum",
		Long: `Deconv builds a pseudo-Voigt point-spread function and recovers the
underlying lines with Van Cittert iteration.

Input holds one intensity per line; lines starting with '#' are ignored.
The estimate is printed one value per line, followed by a comment line
listing the local maxima above --threshold.

Examples:
  nmrcore deconv --width 2.5 --shape 0.3 spectrum.txt
  nmrcore deconv --spectral-init --jansson 2 spectrum.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDeconvCmd,
	}

	cmd.Flags().Int("size", 0, "PSF size in points (default 8 widths, odd)")
	cmd.Flags().Float64P("width", "w", 2, "Line width (FWHM) in points")
	cmd.Flags().Float64P("shape", "s", 0, "Lorentzian fraction, 0 Gaussian to 1 Lorentzian")
	cmd.Flags().IntP("iterations", "n", 0, "Maximum iterations (default from config)")
	cmd.Flags().Float64("tolerance", 0, "Residual norm to stop at (default from config)")
	cmd.Flags().Float64("relaxation", 0, "Correction gain in (0, 2) (default from config)")
	cmd.Flags().Bool("non-negative", true, "Clamp negative estimate values")
	cmd.Flags().Float64("jansson", 0, "Upper bound for Jansson relaxation, 0 disables")
	cmd.Flags().Bool("spectral-init", false, "Start from a regularized spectral deconvolution")
	cmd.Flags().Float64("threshold", 0, "Report maxima above this value")

	return cmd
}

func runDeconvCmd(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	flags := cmd.Flags()
	opts := conv.DeconvIterOptions{
		MaxIterations: cfg.Deconvolution.Iterations,
		Tolerance:     cfg.Deconvolution.Tolerance,
		NonNegative:   cfg.Deconvolution.NonNegative,
		Relaxation:    cfg.Deconvolution.Relaxation,
	}
	if flags.Changed("iterations") {
		opts.MaxIterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("tolerance") {
		opts.Tolerance, _ = flags.GetFloat64("tolerance")
	}
	if flags.Changed("relaxation") {
		opts.Relaxation, _ = flags.GetFloat64("relaxation")
	}
	if flags.Changed("non-negative") {
		opts.NonNegative, _ = flags.GetBool("non-negative")
	}
	opts.Jansson, _ = flags.GetFloat64("jansson")

	width, _ := flags.GetFloat64("width")
	shape, _ := flags.GetFloat64("shape")
	size, _ := flags.GetInt("size")
	if size <= 0 {
		size = 2*int(4*width) + 1
	}
	psf, err := conv.NewPSF(size, width, shape)
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer func() { _ = closeIn() }()

	signal, err := readColumn(in)
	if err != nil {
		return err
	}

	var initial []float64
	if init, _ := flags.GetBool("spectral-init"); init {
		initial, err = conv.SpectralDeconvolve(signal, psf, conv.DefaultSpectralOptions())
		if err != nil {
			return err
		}
	}

	est, iters, err := conv.IterativeDeconvolve(signal, initial, psf, opts)
	if err != nil {
		return err
	}

	threshold, _ := flags.GetFloat64("threshold")
	maxima := conv.LocalMaxima(est, threshold)
	logger.Info("deconvolution finished",
		zap.Int("points", len(signal)),
		zap.Int("psf_size", psf.Size()),
		zap.Int("iterations", iters),
		zap.Int("maxima", len(maxima)))

	w := cmd.OutOrStdout()
	for _, v := range est {
		fmt.Fprintln(w, strconv.FormatFloat(v, 'g', 10, 64))
	}
	fmt.Fprint(w, "# maxima:")
	for _, i := range maxima {
		fmt.Fprintf(w, " %d", i)
	}
	fmt.Fprintln(w)
	return nil
}
