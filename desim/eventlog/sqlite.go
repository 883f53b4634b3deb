package eventlog

import (
	"database/sql"
	"fmt"
	"os"

	// Registers the "sqlite3" driver with database/sql.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteSink batches Records and writes them to a SQLite database: a
// single table, a prepared insert statement, and a batch flushed either
// when full or at process exit via atexit.
type SQLiteSink struct {
	db        *sql.DB
	statement *sql.Stmt

	path      string
	pending   []Record
	batchSize int
}

// NewSQLiteSink creates a SQLiteSink. If path is empty, a unique file name
// is derived from a fresh xid so concurrent runs never collide.
func NewSQLiteSink(path string) *SQLiteSink {
	s := &SQLiteSink{path: path, batchSize: 1000}
	atexit.Register(func() { s.Flush() })
	return s
}

// Init opens the database file and creates the log table. It panics on
// failure: a model that cannot log is not running the experiment it
// thinks it is.
func (s *SQLiteSink) Init() {
	if s.path == "" {
		s.path = "procflow_log_" + xid.New().String() + ".sqlite3"
	}

	if _, err := os.Stat(s.path); err == nil {
		panic(fmt.Errorf("eventlog: file %s already exists", s.path))
	}

	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		panic(err)
	}
	s.db = db

	s.mustExec(`
		create table log (
			time  float        not null,
			kind  varchar(100) not null,
			actor varchar(200) not null,
			detail text
		);
	`)
	s.mustExec(`create index log_time_index on log (time);`)
	s.mustExec(`create index log_kind_index on log (kind);`)

	stmt, err := s.db.Prepare(`insert into log values (?, ?, ?, ?)`)
	if err != nil {
		panic(err)
	}
	s.statement = stmt
}

// Write buffers r, flushing once the batch fills.
func (s *SQLiteSink) Write(r Record) {
	s.pending = append(s.pending, r)
	if len(s.pending) >= s.batchSize {
		s.Flush()
	}
}

// Flush writes every buffered record to the database in one transaction.
func (s *SQLiteSink) Flush() {
	if len(s.pending) == 0 {
		return
	}

	s.mustExec("BEGIN TRANSACTION")
	for _, r := range s.pending {
		if _, err := s.statement.Exec(r.Time, r.Kind, r.Actor, r.Detail); err != nil {
			panic(err)
		}
	}
	s.mustExec("COMMIT TRANSACTION")

	s.pending = nil
}

func (s *SQLiteSink) mustExec(query string) {
	if _, err := s.db.Exec(query); err != nil {
		panic(fmt.Errorf("eventlog: %s: %w", query, err))
	}
}

// SQLiteReader reads a log database written by SQLiteSink back out.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader creates a reader bound to path; call Init before use.
func NewSQLiteReader(path string) *SQLiteReader {
	return &SQLiteReader{path: path}
}

// Init opens the database for reading.
func (r *SQLiteReader) Init() {
	db, err := sql.Open("sqlite3", r.path)
	if err != nil {
		panic(err)
	}
	r.db = db
}

// Query returns every Record matching kind, or every record if kind is
// empty.
func (r *SQLiteReader) Query(kind string) []Record {
	sqlStr := "SELECT time, kind, actor, detail FROM log"
	args := []any{}
	if kind != "" {
		sqlStr += " WHERE kind = ?"
		args = append(args, kind)
	}

	rows, err := r.db.Query(sqlStr, args...)
	if err != nil {
		panic(err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Time, &rec.Kind, &rec.Actor, &rec.Detail); err != nil {
			panic(err)
		}
		out = append(out, rec)
	}
	return out
}
