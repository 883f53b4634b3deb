package main

import (
	"fmt"
	"os"

	"github.com/pkg/browser"

	"github.com/procflow/procflow/desim/env"
	"github.com/procflow/procflow/desim/webmonitor"
)

// startMonitor wires a webmonitor.Monitor to e and, if --open-browser was
// passed, opens the resulting URL in the user's default browser.
func startMonitor(e *env.Environment, port int) {
	mon := webmonitor.New(e).WithPortNumber(port)

	addr, err := mon.StartServer()
	if err != nil {
		fmt.Fprintln(os.Stderr, "monitor: ", err)
		return
	}

	if monitorOpenBrowser {
		_ = browser.OpenURL(addr)
	}
}

var monitorOpenBrowser bool

func init() {
	gasStationCmd.Flags().BoolVar(&monitorOpenBrowser, "open-browser", false,
		"open the monitoring URL in the default browser once it starts")
}
