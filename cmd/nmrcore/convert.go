package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-nmr/nmr/dim"
	"github.com/cwbudde/algo-nmr/nmr/units"
)

// NewConvertCmd creates the convert command.
func NewConvertCmd() *cobra.Command {
	def := dim.Default()

	cmd := &cobra.Command{
		Use:   "convert <value>...",
		Short: "Convert positions between spectral units",
		Long: `Convert re-expresses positions along one spectral dimension.

Values carry their unit as a suffix: p (PPM), h (Hz), s (seconds),
f (fraction of the size). Unsuffixed values with a decimal point are
fractional points and plain integers are indices.

Examples:
  nmrcore convert 4.7p --to point
  nmrcore convert 512 100.0 --to ppm --sf 500 --sw 6000 --ref 4.75 --size 2048`,
		Args: cobra.MinimumNArgs(1),
		RunE: runConvertCmd,
	}

	cmd.Flags().StringP("to", "t", "ppm", "Target unit: index, point, ppm, hz, time or fraction")
	cmd.Flags().Float64("sf", def.SF, "Spectrometer frequency in MHz")
	cmd.Flags().Float64("sw", def.SW, "Sweep width in Hz")
	cmd.Flags().Float64("ref", def.Ref, "Reference PPM at the center point")
	cmd.Flags().Int("size", def.Size, "Number of points")

	return cmd
}

func runConvertCmd(cmd *cobra.Command, args []string) error {
	to, _ := cmd.Flags().GetString("to")
	kind, err := units.KindFromName(to)
	if err != nil {
		return err
	}

	sf, _ := cmd.Flags().GetFloat64("sf")
	sw, _ := cmd.Flags().GetFloat64("sw")
	ref, _ := cmd.Flags().GetFloat64("ref")
	size, _ := cmd.Flags().GetInt("size")
	d, err := dim.New(sf, sw, ref, size)
	if err != nil {
		return err
	}

	for _, arg := range args {
		v, err := units.Parse(arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", v, units.Convert(v, kind, d))
	}
	return nil
}
