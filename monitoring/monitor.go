// Package monitoring turns a running bench into a web server that can be
// inspected and controlled while the simulation runs.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/verikit/bench"
	"github.com/sarchlab/verikit/sim/hooking"
	"github.com/sarchlab/verikit/sim/id"
	"github.com/sarchlab/verikit/sim/timing"
	"github.com/sarchlab/verikit/txn"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// A Component is a named part of a bench that can be inspected.
type Component interface {
	Name() string
}

// A Buffer is a queue whose level is watched by the hang detector.
type Buffer interface {
	Name() string
	Size() int
}

// Monitor can turn a bench into a server and allows external monitoring and
// controlling of the simulation.
type Monitor struct {
	engine      timing.Engine
	components  []Component
	buffers     []Buffer
	portNumber  int
	openBrowser bool

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	verdictsLock sync.Mutex
	summary      bench.Summary
	verdicts     []txn.Verdict
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes the monitor open the server address in a browser once
// the server starts.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e timing.Engine) {
	m.engine = e
}

// RegisterComponent registers a component to be monitored.
func (m *Monitor) RegisterComponent(c Component) {
	m.components = append(m.components, c)
}

// RegisterBuffer registers a queue to be watched by the hang detector.
func (m *Monitor) RegisterBuffer(b Buffer) {
	m.buffers = append(m.buffers, b)
}

// RegisterBench registers the engine, the stages and the channels of a
// bench. The monitor also follows the progress of the generator and the
// verdicts of the scoreboard.
func (m *Monitor) RegisterBench(b *bench.Bench) {
	m.RegisterEngine(b.Engine())

	m.RegisterComponent(b.Device())
	m.RegisterComponent(b.Generator())
	m.RegisterComponent(b.DriverTask())
	m.RegisterComponent(b.MonitorTask())
	m.RegisterComponent(b.Scoreboard())

	for _, c := range b.Channels() {
		m.RegisterBuffer(c)
	}

	bar := m.CreateProgressBar(b.Name(), b.Generator().Count())
	b.Generator().AcceptHook(&progressTracker{bar: bar})
	b.Scoreboard().AcceptHook(hooking.HookFunc(m.recordVerdict))
}

func (m *Monitor) recordVerdict(ctx hooking.HookCtx) {
	if ctx.Pos != bench.HookPosVerdict {
		return
	}

	v := ctx.Item.(txn.Verdict)

	m.verdictsLock.Lock()
	defer m.verdictsLock.Unlock()

	m.summary.Add(v)
	m.verdicts = append(m.verdicts, v)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        id.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the handler of all the API routes.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/value/{name}/{field}", m.fieldValue)
	r.HandleFunc("/api/hangdetector/buffers", m.hangDetectorBuffers)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/verdicts", m.listVerdicts)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/", m.index)

	return r
}

// StartServer starts the monitor as a web server and returns its address.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	r := m.Router()

	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	return url
}

var apiRoutes = []string{
	"/api/pause",
	"/api/continue",
	"/api/now",
	"/api/list_components",
	"/api/component/{name}",
	"/api/field/{json}",
	"/api/value/{name}/{field}",
	"/api/hangdetector/buffers",
	"/api/progress",
	"/api/verdicts",
	"/api/resource",
	"/api/profile",
}

func (m *Monitor) index(w http.ResponseWriter, _ *http.Request) {
	bytes, err := json.Marshal(apiRoutes)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

type nowRsp struct {
	Now    float64 `json:"now"`
	Events uint64  `json:"events,omitempty"`
}

type eventCounter interface {
	Handled() uint64
}

type inspector interface {
	Inspect(f func())
}

// inspect runs f when the engine is between two events. Component state
// must only be read through inspect while the bench runs.
func (m *Monitor) inspect(f func()) {
	if i, ok := m.engine.(inspector); ok {
		i.Inspect(f)
		return
	}

	f()
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	rsp := nowRsp{Now: m.engine.Now()}
	if c, ok := m.engine.(eventCounter); ok {
		rsp.Events = c.Handled()
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}

	bytes, err := json.Marshal(names)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component := m.findComponentOr404(w, name)
	if component == nil {
		return
	}

	buf := new(bytes.Buffer)

	var err error
	m.inspect(func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(component)
		serializer.SetMaxDepth(1)
		err = serializer.Serialize(buf)
	})
	dieOnErr(err)

	_, err = w.Write(buf.Bytes())
	dieOnErr(err)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	fields := strings.Split(req.FieldName, ".")

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	buf := new(bytes.Buffer)

	m.inspect(func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(component)
		serializer.SetMaxDepth(1)

		err = serializer.SetEntryPoint(fields)
		if err == nil {
			err = serializer.Serialize(buf)
		}
	})
	dieOnErr(err)

	_, err = w.Write(buf.Bytes())
	dieOnErr(err)
}

func (m *Monitor) fieldValue(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	component := m.findComponentOr404(w, vars["name"])
	if component == nil {
		return
	}

	var (
		value string
		err   error
	)

	m.inspect(func() {
		var elem reflect.Value

		elem, err = m.walkFields(component, vars["field"])
		if err == nil {
			value = fmt.Sprint(elem)
		}
	})

	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	bytes, err := json.Marshal(map[string]string{"value": value})
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type bufferRsp struct {
	Buffer string `json:"buffer"`
	Level  int    `json:"level"`
}

func (m *Monitor) hangDetectorBuffers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := m.buffersParseParams(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	var rsp []bufferRsp

	m.inspect(func() {
		sortedBuffers := m.sortAndSelectBuffers(limit, offset)

		rsp = make([]bufferRsp, 0, len(sortedBuffers))
		for _, b := range sortedBuffers {
			rsp = append(rsp, bufferRsp{Buffer: b.Name(), Level: b.Size()})
		}
	})

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (*Monitor) buffersParseParams(
	r *http.Request,
) (limit, offset int, err error) {
	sortMethod := r.URL.Query().Get("sort")
	if sortMethod != "" && sortMethod != "level" {
		return 0, 0, fmt.Errorf(
			"invalid sort method: %s. The only allowed value is `level`",
			sortMethod)
	}

	limit, err = intParam(r, "limit")
	if err != nil {
		return 0, 0, err
	}

	offset, err = intParam(r, "offset")
	if err != nil {
		return limit, 0, err
	}

	return limit, offset, nil
}

func intParam(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}

	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}

	return n, nil
}

// sortAndSelectBuffers orders the buffers from the fullest. A zero limit
// selects all the buffers after the offset.
func (m *Monitor) sortAndSelectBuffers(limit, offset int) []Buffer {
	sortedBuffers := make([]Buffer, len(m.buffers))
	copy(sortedBuffers, m.buffers)

	sort.SliceStable(sortedBuffers, func(i, j int) bool {
		return sortedBuffers[i].Size() > sortedBuffers[j].Size()
	})

	if offset > len(sortedBuffers) {
		offset = len(sortedBuffers)
	}

	end := len(sortedBuffers)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return sortedBuffers[offset:end]
}

type fieldFormatError struct {
	reason string
}

func (e fieldFormatError) Error() string {
	return "fieldFormatError: " + e.reason
}

func (m *Monitor) walkFields(
	comp interface{},
	fields string,
) (reflect.Value, error) {
	elem := reflect.ValueOf(comp)

	fieldNames := strings.Split(fields, ".")

	for len(fieldNames) > 0 {
		switch elem.Kind() {
		case reflect.Ptr, reflect.Interface:
			if elem.IsNil() {
				return elem, fieldFormatError{reason: "nil before " + fieldNames[0]}
			}

			elem = elem.Elem()
		case reflect.Struct:
			elem = elem.FieldByName(fieldNames[0])
			if !elem.IsValid() {
				return elem, fieldFormatError{reason: "no field " + fieldNames[0]}
			}

			fieldNames = fieldNames[1:]
		case reflect.Slice:
			index, err := strconv.Atoi(fieldNames[0])
			if err != nil || index < 0 || index >= elem.Len() {
				return elem, fieldFormatError{reason: "bad index " + fieldNames[0]}
			}

			elem = elem.Index(index)
			fieldNames = fieldNames[1:]
		default:
			return elem, fieldFormatError{
				reason: fmt.Sprintf("kind %s not supported", elem.Kind()),
			}
		}
	}

	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	return elem, nil
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) Component {
	var component Component
	for _, c := range m.components {
		if c.Name() == name {
			component = c
		}
	}

	if component == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Component not found"))
		dieOnErr(err)
	}

	return component
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bytes, err := json.Marshal(m.progressBars)
	m.progressBarsLock.Unlock()
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type verdictRsp struct {
	Seq      uint64  `json:"seq"`
	Outcome  string  `json:"outcome"`
	Expected uint64  `json:"expected"`
	Actual   uint64  `json:"actual"`
	Time     float64 `json:"time"`
	Note     string  `json:"note,omitempty"`
	Err      string  `json:"error,omitempty"`
}

type verdictsRsp struct {
	Summary  bench.Summary `json:"summary"`
	Verdicts []verdictRsp  `json:"verdicts"`
}

// listVerdicts lists the verdicts so far. The outcome query parameter keeps
// only one kind of verdict.
func (m *Monitor) listVerdicts(w http.ResponseWriter, r *http.Request) {
	outcome := r.URL.Query().Get("outcome")

	m.verdictsLock.Lock()

	rsp := verdictsRsp{
		Summary:  m.summary,
		Verdicts: make([]verdictRsp, 0, len(m.verdicts)),
	}

	for _, v := range m.verdicts {
		if outcome != "" && v.Outcome.String() != outcome {
			continue
		}

		vr := verdictRsp{
			Seq:      v.Seq,
			Outcome:  v.Outcome.String(),
			Expected: v.Expected,
			Actual:   v.Actual,
			Time:     v.Time,
			Note:     v.Note,
		}

		if v.Err != nil {
			vr.Err = v.Err.Error()
		}

		rsp.Verdicts = append(rsp.Verdicts, vr)
	}

	m.verdictsLock.Unlock()

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
