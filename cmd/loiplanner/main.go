package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/lunarops/loi"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	dateFormat         = "2006-01-02 15:04:05"
	dateFormatFilename = "2006-01-02-15.04.05"
)

var (
	cfgFile     string
	format      string
	metricsFile string
	debug       bool

	v        = loi.NewViper()
	registry = prometheus.NewRegistry()
	logger   kitlog.Logger
	planner  *loi.Planner
)

var rootCmd = &cobra.Command{
	Use:   "loiplanner",
	Short: "Lunar orbit insertion transfer planner",
	Long: `Finds the transfer orbit (RAAN and apogee altitude) from a fixed Earth parking
orbit which passes closest to the Moon at a given epoch, and when to inject on it.

Epochs are RFC3339 ("2023-08-05T11:25:58Z"), "` + dateFormat + `" in UTC, or a Julian day.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if metricsFile == "" {
			return nil
		}
		return errors.Wrap(prometheus.WriteToTextfile(metricsFile, registry), "writing metrics")
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "configuration file (TOML or YAML), defaults to $"+loi.ConfigEnv+"/loi.*")
	flags.String("profile", loi.ProductionProfile.Name, "search profile (production|fast)")
	flags.Int("workers", 1, "number of simplex runs or epochs evaluated in parallel")
	flags.Float64("perigee", loi.DefaultMission.PerigeeAlt, "perigee altitude of the transfer orbit (km)")
	flags.Float64("omega", loi.DefaultMission.ArgPeriapsis, "argument of periapsis of the transfer orbit (deg)")
	flags.Float64("inclination", loi.DefaultMission.Inclination, "inclination of the transfer orbit (deg)")
	flags.StringVar(&format, "format", "json", "output format (json|yaml)")
	flags.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	flags.BoolVar(&debug, "debug", false, "log every simplex run")

	for key, flag := range map[string]string{
		"search.profile":      "profile",
		"search.workers":      "workers",
		"mission.perigee":     "perigee",
		"mission.omega":       "omega",
		"mission.inclination": "inclination",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	rootCmd.AddCommand(epochsCmd, optimizeCmd, planCmd, ellipseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and builds the planner shared by all commands.
func setup(cmd *cobra.Command, args []string) error {
	logger = newLogger(os.Stderr, debug)
	conf, err := loi.ReadConfig(v, cfgFile)
	if err != nil {
		return err
	}
	if file := v.ConfigFileUsed(); file != "" {
		level.Info(logger).Log("subsys", "config", "file", file)
	}
	metrics, err := loi.NewMetrics(registry)
	if err != nil {
		return err
	}
	planner, err = loi.NewPlannerFromConfig(conf, loi.WithLogger(logger), loi.WithMetrics(metrics))
	return err
}

func newLogger(w io.Writer, debug bool) kitlog.Logger {
	l := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	l = kitlog.With(l, "ts", kitlog.DefaultTimestampUTC)
	if debug {
		return level.NewFilter(l, level.AllowDebug())
	}
	return level.NewFilter(l, level.AllowInfo())
}

// parseEpoch reads an epoch as RFC3339, as dateFormat in UTC or as a Julian day.
func parseEpoch(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dateFormat, s); err == nil {
		return t.UTC(), nil
	}
	if jd, err := strconv.ParseFloat(s, 64); err == nil {
		return julian.JDToTime(jd).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("could not parse epoch `%s`", s)
}

// render writes v in the requested output format.
func render(w io.Writer, format string, v interface{}) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown format `%s`", format)
	}
}
