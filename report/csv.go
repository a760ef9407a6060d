package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/xid"
	"github.com/sarchlab/verikit/sim/hooking"
	"github.com/tebeka/atexit"
)

// CSVRecorder is a verdict hook that stores verdicts in a CSV file.
type CSVRecorder struct {
	path string
	file *os.File
	w    *csv.Writer

	records    []Record
	bufferSize int
}

// NewCSVRecorder creates a file at path with the .csv extension added. An
// empty path picks a unique name. It fails if the file exists.
func NewCSVRecorder(path string) (*CSVRecorder, error) {
	if path == "" {
		path = "verikit_verdicts_" + xid.New().String()
	}

	filename := path + ".csv"

	_, err := os.Stat(filename)
	if err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	r := &CSVRecorder{
		path:       filename,
		file:       file,
		w:          csv.NewWriter(file),
		bufferSize: 1000,
	}

	err = r.w.Write(recordFieldNames())
	if err != nil {
		file.Close()
		return nil, err
	}

	atexit.Register(func() { _ = r.Flush() })

	return r, nil
}

// Path returns the CSV file name.
func (r *CSVRecorder) Path() string {
	return r.path
}

// Func records verdicts and ignores all the other hook positions.
func (r *CSVRecorder) Func(ctx hooking.HookCtx) {
	rec, ok := recordFromHook(ctx)
	if !ok {
		return
	}

	r.records = append(r.records, rec)

	if len(r.records) >= r.bufferSize {
		err := r.Flush()
		if err != nil {
			panic(err)
		}
	}
}

// Flush writes the buffered records to the file.
func (r *CSVRecorder) Flush() error {
	for _, rec := range r.records {
		err := r.w.Write([]string{
			rec.Scoreboard,
			strconv.FormatUint(rec.Seq, 10),
			rec.Outcome,
			rec.Op,
			strconv.FormatUint(rec.Addr, 10),
			strconv.FormatUint(rec.DataIn, 10),
			strconv.FormatUint(rec.DataOut, 10),
			strconv.FormatUint(rec.Expected, 10),
			strconv.FormatUint(rec.Actual, 10),
			strconv.FormatFloat(rec.Time, 'e', 10, 64),
			rec.Note,
			rec.Error,
		})
		if err != nil {
			return err
		}
	}

	r.records = nil
	r.w.Flush()

	return r.w.Error()
}

// Close flushes the buffered records and closes the file.
func (r *CSVRecorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}

	return r.file.Close()
}
