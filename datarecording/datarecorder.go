// Package datarecording stores simulation traces in SQLite.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// ErrFileExists is returned when a recording would overwrite a file.
var ErrFileExists = errors.New("datarecording: file already exists")

// DataRecorder buffers flat structs and writes them into tables.
type DataRecorder interface {
	// CreateTable creates a table whose columns are the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table created earlier.
	InsertData(tableName string, entry any)

	// ListTables returns the names of the tables created, sorted.
	ListTables() []string

	// Flush writes all buffered entries.
	Flush()

	// Close flushes and releases the database.
	Close() error
}

// New creates a recorder that writes to path + ".sqlite3". An empty path
// picks a unique name. Buffered entries are flushed when the program exits
// through atexit.
func New(path string) (DataRecorder, error) {
	w := NewSQLiteWriter(path)
	if err := w.Init(); err != nil {
		return nil, err
	}

	atexit.Register(func() { w.Flush() })

	return w, nil
}

// NewWithDB creates a recorder on an open database.
func NewWithDB(db *sql.DB) DataRecorder {
	w := NewSQLiteWriter("")
	w.DB = db

	return w
}

type table struct {
	structType reflect.Type
	entries    []any
}

// SQLiteWriter is the DataRecorder backed by SQLite.
type SQLiteWriter struct {
	*sql.DB

	path       string
	tables     map[string]*table
	batchSize  int
	entryCount int
}

// NewSQLiteWriter creates a writer. Call Init to open the file.
func NewSQLiteWriter(path string) *SQLiteWriter {
	return &SQLiteWriter{
		path:      path,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}
}

// Filename returns the database file name.
func (w *SQLiteWriter) Filename() string {
	return w.path + ".sqlite3"
}

// Init creates the database file. It refuses to reuse an existing file.
func (w *SQLiteWriter) Init() error {
	if w.path == "" {
		w.path = "dmsched_trace_" + xid.New().String()
	}

	filename := w.Filename()

	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("%w: %s", ErrFileExists, filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return fmt.Errorf("datarecording: open %s: %w", filename, err)
	}

	w.DB = db

	return nil
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func entryMustBeFlat(entry any) {
	t := reflect.TypeOf(entry)
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("entry must be a struct, got %s", t))
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !isAllowedKind(f.Type.Kind()) {
			panic(fmt.Sprintf("field %s of %s cannot be recorded", f.Name, t))
		}
	}
}

// CreateTable implements DataRecorder.
func (w *SQLiteWriter) CreateTable(tableName string, sampleEntry any) {
	entryMustBeFlat(sampleEntry)

	if _, exists := w.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	fields := strings.Join(structs.Names(sampleEntry), ", \n\t")
	w.mustExecute(`CREATE TABLE ` + tableName +
		` (` + "\n\t" + fields + "\n" + `);`)

	w.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
	}
}

// InsertData implements DataRecorder.
func (w *SQLiteWriter) InsertData(tableName string, entry any) {
	t, exists := w.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.structType {
		panic(fmt.Sprintf("table %s stores %s, got %T",
			tableName, t.structType, entry))
	}

	t.entries = append(t.entries, entry)

	w.entryCount++
	if w.entryCount >= w.batchSize {
		w.Flush()
	}
}

// ListTables implements DataRecorder.
func (w *SQLiteWriter) ListTables() []string {
	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Flush implements DataRecorder.
func (w *SQLiteWriter) Flush() {
	if w.entryCount == 0 {
		return
	}

	w.mustExecute("BEGIN TRANSACTION")
	defer w.mustExecute("COMMIT TRANSACTION")

	for name, t := range w.tables {
		if len(t.entries) == 0 {
			continue
		}

		stmt := w.prepareInsert(name, t.entries[0])

		for _, entry := range t.entries {
			v := reflect.ValueOf(entry)
			values := make([]any, v.NumField())
			for i := range values {
				values[i] = v.Field(i).Interface()
			}

			if _, err := stmt.Exec(values...); err != nil {
				panic(err)
			}
		}

		stmt.Close()
		t.entries = nil
	}

	w.entryCount = 0
}

// Close implements DataRecorder.
func (w *SQLiteWriter) Close() error {
	w.Flush()
	return w.DB.Close()
}

func (w *SQLiteWriter) mustExecute(query string) sql.Result {
	res, err := w.Exec(query)
	if err != nil {
		panic(fmt.Errorf("datarecording: failed to execute %q: %w", query, err))
	}

	return res
}

func (w *SQLiteWriter) prepareInsert(tableName string, entry any) *sql.Stmt {
	marks := structs.Names(entry)
	for i := range marks {
		marks[i] = "?"
	}

	stmt, err := w.Prepare("INSERT INTO " + tableName +
		" VALUES (" + strings.Join(marks, ", ") + ")")
	if err != nil {
		panic(err)
	}

	return stmt
}
