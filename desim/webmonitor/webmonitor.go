// Package webmonitor turns a running env.Environment into an inspectable
// HTTP server: pause, continue, now, list components, drill into a
// component's fields, report process CPU/RSS, and collect a CPU profile.
package webmonitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	// Registers the pprof HTTP handlers used by the profile endpoint.
	_ "net/http/pprof"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/procflow/procflow/desim/component"
	"github.com/procflow/procflow/desim/env"
)

// Monitor serves an HTTP API over a running Environment.
type Monitor struct {
	e          *env.Environment
	portNumber int
}

// New creates a Monitor over e. Call WithPortNumber before StartServer to
// pick a fixed port; the default is an OS-assigned ephemeral port.
func New(e *env.Environment) *Monitor {
	return &Monitor{e: e}
}

// WithPortNumber sets the port the monitor listens on. Ports below 1000
// are rejected in favor of a random port, since low ports are typically
// privileged.
func (m *Monitor) WithPortNumber(port int) *Monitor {
	if port < 1000 {
		fmt.Fprintf(os.Stderr,
			"webmonitor: port %d is not allowed, using a random port instead\n", port)
		port = 0
	}
	m.portNumber = port
	return m
}

// StartServer starts serving the monitor's HTTP API in the background and
// returns the address it bound to.
func (m *Monitor) StartServer() (string, error) {
	r := mux.NewRouter()
	r.HandleFunc("/api/pause", m.pause)
	r.HandleFunc("/api/continue", m.cont)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.componentDetails)
	r.HandleFunc("/api/field/{json}", m.fieldValue)
	r.HandleFunc("/api/resource", m.processResource)
	r.HandleFunc("/api/profile", m.collectProfile)

	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	addr := fmt.Sprintf("http://localhost:%d", listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "webmonitor: serving %s\n", addr)

	go func() {
		_ = http.Serve(listener, r)
	}()

	return addr, nil
}

func (m *Monitor) pause(w http.ResponseWriter, _ *http.Request) {
	m.e.Clock().Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) cont(w http.ResponseWriter, _ *http.Request) {
	m.e.Clock().Continue()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, `{"now":%.10f}`, m.e.Now())
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.e.Components()))
	for _, c := range m.e.Components() {
		names = append(names, c.Name())
	}
	b, _ := json.Marshal(names)
	_, _ = w.Write(b)
}

func (m *Monitor) findComponentOr404(w http.ResponseWriter, name string) *component.Component {
	c, ok := m.e.Component(name)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "no such component: %s", name)
		return nil
	}
	return c
}

func (m *Monitor) componentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	c := m.findComponentOr404(w, name)
	if c == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(c)
	serializer.SetMaxDepth(1)
	_ = serializer.Serialize(w)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) fieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]

	req := fieldReq{}
	if err := json.Unmarshal([]byte(jsonString), &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	c := m.findComponentOr404(w, req.CompName)
	if c == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(c)
	serializer.SetMaxDepth(1)

	if err := serializer.SetEntryPoint(strings.Split(req.FieldName, ".")); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, err)
		return
	}

	_ = serializer.Serialize(w)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) processResource(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	b, _ := json.Marshal(resourceRsp{CPUPercent: cpuPercent, MemorySize: memInfo.RSS})
	_, _ = w.Write(b)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	time.Sleep(time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	b, err := json.Marshal(prof)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(b)
}
