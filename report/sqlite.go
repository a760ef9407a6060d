package report

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/sarchlab/verikit/sim/hooking"
	"github.com/tebeka/atexit"
)

// VerdictTable is the name of the table that holds the verdicts.
const VerdictTable = "verdicts"

// SQLiteRecorder is a verdict hook that stores verdicts in a SQLite
// database. Records are buffered and written in batches.
type SQLiteRecorder struct {
	*sql.DB

	path      string
	batchSize int
	records   []Record
}

// NewSQLiteRecorder creates a database at path with the .sqlite3 extension
// added. An empty path picks a unique name. It fails if the file exists.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if path == "" {
		path = "verikit_verdicts_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}

	r := &SQLiteRecorder{
		DB:        db,
		path:      filename,
		batchSize: 10000,
	}

	err = r.createTable()
	if err != nil {
		db.Close()
		return nil, err
	}

	atexit.Register(func() { _ = r.Flush() })

	return r, nil
}

// Path returns the database file name.
func (r *SQLiteRecorder) Path() string {
	return r.path
}

func (r *SQLiteRecorder) createTable() error {
	fields := strings.Join(recordFieldNames(), ", \n\t")
	createTableSQL := `CREATE TABLE ` + VerdictTable +
		` (` + "\n\t" + fields + "\n" + `);`

	_, err := r.Exec(createTableSQL)

	return err
}

// Func records verdicts and ignores all the other hook positions.
func (r *SQLiteRecorder) Func(ctx hooking.HookCtx) {
	rec, ok := recordFromHook(ctx)
	if !ok {
		return
	}

	r.records = append(r.records, rec)

	if len(r.records) >= r.batchSize {
		err := r.Flush()
		if err != nil {
			panic(err)
		}
	}
}

// Flush writes the buffered records in one transaction.
func (r *SQLiteRecorder) Flush() error {
	if len(r.records) == 0 {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return err
	}

	marks := make([]string, len(recordFieldNames()))
	for i := range marks {
		marks[i] = "?"
	}

	stmt, err := tx.Prepare("INSERT INTO " + VerdictTable +
		" VALUES (" + strings.Join(marks, ", ") + ")")
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, rec := range r.records {
		_, err = stmt.Exec(rec.values()...)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	r.records = nil

	return tx.Commit()
}

// Close flushes the buffered records and closes the database.
func (r *SQLiteRecorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}

	return r.DB.Close()
}
