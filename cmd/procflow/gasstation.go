package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/procflow/procflow/desim/env"
	"github.com/procflow/procflow/examples/gasstation"
)

var (
	gasStationDuration float64
	gasStationSeed     int64
	gasStationOpenMon  bool
	gasStationMonPort  int
)

func init() {
	gasStationCmd.Flags().Float64Var(&gasStationDuration, "duration",
		envFloat("PROCFLOW_DURATION", 20000), "simulated seconds to run")
	gasStationCmd.Flags().Int64Var(&gasStationSeed, "seed",
		envInt("PROCFLOW_SEED", 1), "random seed for arrivals and take sizes")
	gasStationCmd.Flags().BoolVar(&gasStationOpenMon, "monitor", false,
		"start the live monitoring server alongside the run")
	gasStationCmd.Flags().IntVar(&gasStationMonPort, "monitor-port", 0,
		"port for the monitoring server (0 = random)")

	rootCmd.AddCommand(gasStationCmd)
}

var gasStationCmd = &cobra.Command{
	Use:   "gasstation",
	Short: "Run the gas station refuel scenario.",
	Run: func(*cobra.Command, []string) {
		e := env.New()
		cfg := gasstation.DefaultConfig()
		s := gasstation.New(e, cfg, gasStationSeed)
		s.StartArrivals(0)

		if gasStationOpenMon {
			startMonitor(e, gasStationMonPort)
		}

		if err := e.RunFor(gasStationDuration); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Printf("final tank level: %.2f / %.2f\n", s.Tank.Level(), s.Tank.Capacity())
		fmt.Printf("trucks dispatched: %d\n", s.TrucksDispatched())
	},
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
