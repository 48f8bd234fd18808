// Package sqlite provides SQLite storage for decomposition results
package sqlite

import (
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/ChrisMcGann/MassDecomposer/pkg/core"
	_ "github.com/mattn/go-sqlite3"
)

// Date format for RunTable (ISO 8601)
const runDateFormat = "2006-01-02 15:04:05"

// Writer stores runs and per-row results in a SQLite database file.
// Every run is written inside one transaction.
type Writer struct {
	db *sql.DB

	tx            *sql.Tx
	run           *core.Run
	runID         int64
	abundanceStmt *sql.Stmt
	residualStmt  *sql.Stmt
	rowStmt       *sql.Stmt
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{db: db}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId INTEGER PRIMARY KEY AUTOINCREMENT,
		SourceFile TEXT,
		CreationDate TEXT,
		MoleculeCount INTEGER,
		PeakCount INTEGER,
		UsedPeakCount INTEGER,
		MatrixRank INTEGER,
		ConditionNumber DOUBLE
	);

	CREATE TABLE IF NOT EXISTS ContributionTable (
		RunId INTEGER REFERENCES RunTable(RunId),
		Molecule TEXT,
		MoleculeIndex INTEGER,
		Peak TEXT,
		Contribution DOUBLE
	);

	CREATE TABLE IF NOT EXISTS WeightTable (
		RunId INTEGER REFERENCES RunTable(RunId),
		Peak TEXT,
		PeakIndex INTEGER,
		Weight DOUBLE
	);

	CREATE TABLE IF NOT EXISTS RowTable (
		RunId INTEGER REFERENCES RunTable(RunId),
		LineNumber INTEGER,
		MissingPeaks TEXT
	);

	CREATE TABLE IF NOT EXISTS AbundanceTable (
		RunId INTEGER REFERENCES RunTable(RunId),
		LineNumber INTEGER,
		Molecule TEXT,
		Abundance DOUBLE
	);

	CREATE TABLE IF NOT EXISTS ResidualTable (
		RunId INTEGER REFERENCES RunTable(RunId),
		LineNumber INTEGER,
		Peak TEXT,
		Residual DOUBLE
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// BeginRun opens a transaction and records the run and its model.
func (w *Writer) BeginRun(run *core.Run) error {
	if w.tx != nil {
		return fmt.Errorf("run for %s still open", w.run.SourceFile)
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	res, err := tx.Exec(`
		INSERT INTO RunTable (SourceFile, CreationDate, MoleculeCount, PeakCount, UsedPeakCount, MatrixRank, ConditionNumber)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.SourceFile, run.Created.Format(runDateFormat), len(run.Model.Molecules), len(run.Peaks),
		len(run.UsedPeaks), run.Rank, nullFloat(run.Condition))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to read run id: %w", err)
	}

	for j, molec := range run.Model.Molecules {
		for _, peak := range molec.PeakNames() {
			if _, err := tx.Exec(`
				INSERT INTO ContributionTable (RunId, Molecule, MoleculeIndex, Peak, Contribution)
				VALUES (?, ?, ?, ?, ?)
			`, runID, molec.Name, j, peak, molec.Peaks[peak]); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to insert contribution: %w", err)
			}
		}
	}

	for i, peak := range run.Peaks {
		if _, err := tx.Exec(`
			INSERT INTO WeightTable (RunId, Peak, PeakIndex, Weight) VALUES (?, ?, ?, ?)
		`, runID, peak, i, run.Weights[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert weight: %w", err)
		}
	}

	if err := w.prepareStatements(tx); err != nil {
		tx.Rollback()
		return err
	}

	w.tx = tx
	w.run = run
	w.runID = runID
	return nil
}

// prepareStatements prepares per-row insert statements on tx
func (w *Writer) prepareStatements(tx *sql.Tx) error {
	var err error

	w.rowStmt, err = tx.Prepare(`INSERT INTO RowTable (RunId, LineNumber, MissingPeaks) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare row statement: %w", err)
	}

	w.abundanceStmt, err = tx.Prepare(`
		INSERT INTO AbundanceTable (RunId, LineNumber, Molecule, Abundance) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare abundance statement: %w", err)
	}

	w.residualStmt, err = tx.Prepare(`
		INSERT INTO ResidualTable (RunId, LineNumber, Peak, Residual) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare residual statement: %w", err)
	}

	return nil
}

// WriteResult stores one solved row of the open run.
func (w *Writer) WriteResult(res *core.Result) error {
	if w.tx == nil {
		return fmt.Errorf("no open run")
	}

	if _, err := w.rowStmt.Exec(w.runID, res.Line, strings.Join(res.Missing, ",")); err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}

	for j, molec := range w.run.Model.Molecules {
		if _, err := w.abundanceStmt.Exec(w.runID, res.Line, molec.Name, nullFloat(res.Abundances[j])); err != nil {
			return fmt.Errorf("failed to insert abundance: %w", err)
		}
	}

	for i, peak := range w.run.UsedPeaks {
		if _, err := w.residualStmt.Exec(w.runID, res.Line, peak, nullFloat(res.Residuals[i])); err != nil {
			return fmt.Errorf("failed to insert residual: %w", err)
		}
	}

	return nil
}

// EndRun commits the open run, or rolls it back when runErr is non-nil.
func (w *Writer) EndRun(runErr error) error {
	if w.tx == nil {
		return nil
	}

	w.closeStatements()
	tx := w.tx
	w.tx, w.run = nil, nil

	if runErr != nil {
		if err := tx.Rollback(); err != nil {
			return fmt.Errorf("failed to roll back run: %w", err)
		}
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

func (w *Writer) closeStatements() {
	for _, stmt := range []*sql.Stmt{w.rowStmt, w.abundanceStmt, w.residualStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	w.rowStmt, w.abundanceStmt, w.residualStmt = nil, nil, nil
}

// Finalize rolls back any unfinished run and closes the database
func (w *Writer) Finalize() error {
	if w.db == nil {
		return nil
	}
	if w.tx != nil {
		w.closeStatements()
		w.tx.Rollback()
		w.tx = nil
	}

	err := w.db.Close()
	w.db = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}

// nullFloat maps NaN and infinities to NULL.
func nullFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
