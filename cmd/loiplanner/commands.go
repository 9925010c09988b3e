package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/lunarops/loi"
	"github.com/spf13/cobra"
)

var (
	fromStr, toStr string
	rank           bool
	epochStr       string
	single         bool
	injection      float64
	stepDeg        float64
	outFile        string
	verify         bool
	coastStep      time.Duration
)

// verifiedPlan is a plan checked by an RK4 coast from the injection.
type verifiedPlan struct {
	loi.InsertionPlan `yaml:",inline"`
	ArrivalErrorKm    float64 `json:"arrivalErrorKm" yaml:"arrivalErrorKm"`
}

var epochsCmd = &cobra.Command{
	Use:   "epochs",
	Short: "List the epochs at which the Moon crosses the equatorial plane",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseEpoch(fromStr)
		if err != nil {
			return err
		}
		to, err := parseEpoch(toStr)
		if err != nil {
			return err
		}
		crossings, err := planner.FindPlaneCrossings(from, to)
		if err != nil {
			return err
		}
		if !rank {
			return render(cmd.OutOrStdout(), format, crossings)
		}
		epochs := make([]time.Time, len(crossings))
		for k, c := range crossings {
			epochs[k] = c.Epoch
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		mission := planner.Mission()
		ranked, err := planner.RankEpochs(ctx, epochs, mission.ArgPeriapsis, mission.Inclination)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), format, ranked)
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Find the RAAN and apogee altitude closest to the Moon at an epoch",
	RunE: func(cmd *cobra.Command, args []string) error {
		epoch, err := parseEpoch(epochStr)
		if err != nil {
			return err
		}
		mission := planner.Mission()
		optimize := planner.OptimizeTransferMultiStart
		if single {
			optimize = planner.OptimizeTransfer
		}
		res, err := optimize(epoch, mission.ArgPeriapsis, mission.Inclination)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), format, res)
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan the injection which reaches the Moon at an epoch",
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := insertionPlan()
		if err != nil {
			return err
		}
		if !verify {
			return render(cmd.OutOrStdout(), format, plan)
		}
		d, err := plan.VerifyArrival(coastStep)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), format, verifiedPlan{plan, d})
	},
}

var ellipseCmd = &cobra.Command{
	Use:   "ellipse",
	Short: "Sample the planned transfer ellipse as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := insertionPlan()
		if err != nil {
			return err
		}
		samples, err := loi.SampleEllipse(plan.Elements, stepDeg)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if outFile != "" {
			name := outFile
			if name == "auto" {
				name = fmt.Sprintf("ellipse-%s.csv", plan.Result.Epoch.Format(dateFormatFilename))
			}
			f, err := os.Create(name)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return loi.WriteEllipseCSV(w, plan.Elements, samples)
	},
}

func insertionPlan() (loi.InsertionPlan, error) {
	epoch, err := parseEpoch(epochStr)
	if err != nil {
		return loi.InsertionPlan{}, err
	}
	mission := planner.Mission()
	return planner.PlanInsertion(epoch, mission.ArgPeriapsis, mission.Inclination, injection)
}

func init() {
	epochsCmd.Flags().StringVar(&fromStr, "from", "", "start of the search window")
	epochsCmd.Flags().StringVar(&toStr, "to", "", "end of the search window")
	epochsCmd.Flags().BoolVar(&rank, "rank", false, "optimize every epoch and sort them by closest approach")
	epochsCmd.MarkFlagRequired("from")
	epochsCmd.MarkFlagRequired("to")

	for _, cmd := range []*cobra.Command{optimizeCmd, planCmd, ellipseCmd} {
		cmd.Flags().StringVar(&epochStr, "epoch", "", "epoch at which the Moon must be reached")
		cmd.MarkFlagRequired("epoch")
	}
	optimizeCmd.Flags().BoolVar(&single, "single", false, "single start from the Moon's direction instead of the seed grid")
	for _, cmd := range []*cobra.Command{planCmd, ellipseCmd} {
		cmd.Flags().Float64Var(&injection, "injection-anomaly", 0, "true anomaly of the injection (deg), 0 is perigee")
	}
	planCmd.Flags().BoolVar(&verify, "verify", false, "coast from the injection with an RK4 two-body integrator and report the arrival error")
	planCmd.Flags().DurationVar(&coastStep, "coast-step", loi.CoastStep, "integration step of the verification coast")
	ellipseCmd.Flags().Float64Var(&stepDeg, "step", 1, "sampling step in true anomaly (deg)")
	ellipseCmd.Flags().StringVar(&outFile, "out", "", "output file, auto names it after the epoch (default stdout)")
}
