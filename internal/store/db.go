package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/blackwell-systems/wastewatch/internal/waste"
)

// ErrNotInitialized is returned when the SQLite schema has not been created.
var ErrNotInitialized = errors.New("database not initialized: run 'wastewatch import' or create the schema first")

// SQLite persists records to a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at dbPath.
// Use ":memory:" for in-memory databases (useful for testing).
func OpenSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database connection for advanced queries.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// CreateSchema creates the records table and indexes.
func (s *SQLite) CreateSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRecords replaces the table contents in a single transaction.
func (s *SQLite) SaveRecords(recs []waste.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM waste_records`); err != nil {
		return wrapSchemaErr(fmt.Errorf("failed to clear records: %w", err))
	}

	stmt, err := tx.Prepare(`
		INSERT INTO waste_records (food_type, weight_grams, timestamp, confidence, meal_period, image_ref)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.Exec(r.FoodType, r.WeightGrams, r.Timestamp, r.Confidence, string(r.MealPeriod), r.ImageRef); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.FoodType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// LoadRecords returns every stored record in insertion order.
func (s *SQLite) LoadRecords() ([]waste.Record, error) {
	rows, err := s.db.Query(`
		SELECT food_type, weight_grams, timestamp, confidence, meal_period, image_ref
		FROM waste_records
		ORDER BY seq
	`)
	if err != nil {
		return nil, wrapSchemaErr(fmt.Errorf("failed to query records: %w", err))
	}
	defer rows.Close()

	recs := []waste.Record{}
	for rows.Next() {
		var r waste.Record
		var meal, image sql.NullString
		if err := rows.Scan(&r.FoodType, &r.WeightGrams, &r.Timestamp, &r.Confidence, &meal, &image); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		r.MealPeriod = waste.MealPeriod(meal.String)
		r.ImageRef = image.String
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return recs, nil
}

// CountRecords returns the number of stored rows.
func (s *SQLite) CountRecords() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM waste_records`).Scan(&n); err != nil {
		return 0, wrapSchemaErr(fmt.Errorf("failed to count records: %w", err))
	}
	return n, nil
}

func wrapSchemaErr(err error) error {
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %v", ErrNotInitialized, err)
	}
	return err
}
