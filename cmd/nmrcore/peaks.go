package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-nmr/nmr/peak"
)

// NewPeaksCmd creates the peaks command.
func NewPeaksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peaks [file]",
		Short: "Load a peak list, remove regions and report assignments",
		Long: `Peaks reads peak records, one per line:

  id status intensity volume {shift width bounds label}...

with one shift/width/bounds/label group per dimension. Labels containing
spaces or quotes are written in braces. Peaks whose first-dimension shift
falls inside a --remove interval are deleted; the remaining records are
printed followed by assignment counts.

Examples:
  nmrcore peaks --ndim 2 --remove 4.6:4.8 hsqc.peaks
  nmrcore peaks --remove 0:1 --remove 9:10 noesy.peaks`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPeaksCmd,
	}

	cmd.Flags().Int("ndim", 1, "Number of dimensions per record")
	cmd.Flags().String("name", "peaks", "Peak list name")
	cmd.Flags().StringArrayP("remove", "r", nil, "PPM interval lo:hi on the first dimension to remove (repeatable)")

	return cmd
}

func runPeaksCmd(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ndim, _ := cmd.Flags().GetInt("ndim")
	name, _ := cmd.Flags().GetString("name")
	intervals, _ := cmd.Flags().GetStringArray("remove")

	regions := make([]peak.Region, 0, len(intervals))
	for _, iv := range intervals {
		r, err := parseInterval(iv)
		if err != nil {
			return err
		}
		regions = append(regions, r)
	}

	reg := peak.NewRegistry()
	sched := peak.NewScheduler(reg, peak.WithWindow(cfg.Scheduler.Window), peak.WithLogger(logger))
	defer sched.Shutdown()

	unsubscribe := sched.Subscribe(func(changed []*peak.List) {
		for _, l := range changed {
			logger.Debug("peak list updated", zap.String("list", l.Name()), zap.Int("peaks", l.Size()))
		}
	})
	defer unsubscribe()

	list, err := reg.Create(name, ndim)
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer func() { _ = closeIn() }()

	if err := readRecords(in, list); err != nil {
		return err
	}

	res := list.RemovePeaksInRegions(regions)
	if res.Err != nil {
		logger.Warn("some regions were rejected", zap.Int("failed", res.Failed), zap.Error(res.Err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*sched.Window())
	defer cancel()
	if err := awaitQuiet(ctx, sched, list); err != nil {
		logger.Warn("change notifications still pending", zap.Error(err))
	}

	w := cmd.OutOrStdout()
	for _, p := range list.Peaks() {
		fmt.Fprintln(w, p.Record())
	}
	fmt.Fprintf(w, "# removed %d (regions: %d ok, %d failed)\n", res.Removed, res.Succeeded, res.Failed)

	status := list.AssignmentStatus()
	parts := make([]string, 0, len(peak.AssignmentLevels))
	for _, level := range peak.AssignmentLevels {
		parts = append(parts, fmt.Sprintf("%s=%d", level, status[level]))
	}
	fmt.Fprintf(w, "# %s\n", strings.Join(parts, " "))
	return nil
}

// parseInterval parses "lo:hi" into a one-dimensional region.
func parseInterval(s string) (peak.Region, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return peak.Region{}, fmt.Errorf("%w: %q is not lo:hi", peak.ErrInvalidRegion, s)
	}
	a, errA := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	b, errB := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if errA != nil || errB != nil {
		return peak.Region{}, fmt.Errorf("%w: %q", peak.ErrInvalidRegion, s)
	}
	return peak.NewRegion(a, b)
}

func readRecords(r io.Reader, list *peak.List) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if _, err := list.AddRecord(text); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}

// awaitQuiet waits until the scheduler has delivered every pending change
// of list.
func awaitQuiet(ctx context.Context, sched *peak.Scheduler, list *peak.List) error {
	tick := time.NewTicker(max(sched.Window()/4, time.Millisecond))
	defer tick.Stop()
	for {
		if sched.State() == peak.Idle && !list.PeakUpdated() && !list.PeakListUpdated() && !list.PeakCountUpdated() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}
