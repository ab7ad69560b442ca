// Package akademik is the read-only data layer behind the academic demo
// server. The agent never touches this database directly: access goes
// through the MCP tools, which only run the parameterized SELECTs below.
package akademik

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// ErrStudentNotFound reports a lookup for an unknown student name.
var ErrStudentNotFound = errors.New("student not found")

const schema = `
CREATE TABLE IF NOT EXISTS dosen (
	id INTEGER PRIMARY KEY,
	nama_dosen TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mahasiswa (
	id INTEGER PRIMARY KEY,
	nama_mahasiswa TEXT NOT NULL UNIQUE,
	id_dospem INTEGER NOT NULL REFERENCES dosen(id)
);
CREATE TABLE IF NOT EXISTS mata_kuliah (
	id INTEGER PRIMARY KEY,
	nama_matkul TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS transkrip (
	id INTEGER PRIMARY KEY,
	id_mahasiswa INTEGER NOT NULL REFERENCES mahasiswa(id),
	id_matkul INTEGER NOT NULL REFERENCES mata_kuliah(id),
	nilai_huruf TEXT NOT NULL
);
`

// Demo records matching the documented tool examples.
var seed = `
INSERT INTO dosen (id, nama_dosen) VALUES
	(1, 'Dr. Budi Santoso'),
	(2, 'Prof. Siti Aminah');
INSERT INTO mahasiswa (id, nama_mahasiswa, id_dospem) VALUES
	(1, 'Agus Setiawan', 1),
	(2, 'Rini Wijaya', 2);
INSERT INTO mata_kuliah (id, nama_matkul) VALUES
	(1, 'Kecerdasan Buatan'),
	(2, 'Basis Data Lanjut'),
	(3, 'Pemrograman Web');
INSERT INTO transkrip (id, id_mahasiswa, id_matkul, nilai_huruf) VALUES
	(1, 1, 1, 'A'),
	(2, 1, 2, 'B'),
	(3, 2, 1, 'A'),
	(4, 2, 3, 'A');
`

// Store executes the read-only academic queries over SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database. An empty path opens an in-memory
// database, used by tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The in-memory database lives per connection.
	db.SetMaxOpenConns(1)

	return &Store{db: db, logger: logger}, nil
}

// Init creates the schema and seeds the demo data when the database is
// empty.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM mahasiswa").Scan(&count); err != nil {
		return fmt.Errorf("count students: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, seed); err != nil {
		return fmt.Errorf("seed data: %w", err)
	}
	s.logger.Info("Seeded academic database")
	return nil
}

// Advisor returns the academic advisor assigned to a student.
func (s *Store) Advisor(ctx context.Context, studentName string) (string, error) {
	const query = `
		SELECT d.nama_dosen
		FROM mahasiswa m
		JOIN dosen d ON m.id_dospem = d.id
		WHERE m.nama_mahasiswa = ?`

	var advisor string
	err := s.db.QueryRowContext(ctx, query, studentName).Scan(&advisor)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrStudentNotFound, studentName)
	}
	if err != nil {
		return "", fmt.Errorf("query advisor: %w", err)
	}
	return advisor, nil
}

// Course is one transcript line.
type Course struct {
	Name  string
	Grade string
}

// Transcript returns a student's courses with grades, ordered by course
// name.
func (s *Store) Transcript(ctx context.Context, studentName string) ([]Course, error) {
	// Make the unknown-student case distinguishable from an empty
	// transcript.
	if _, err := s.Advisor(ctx, studentName); err != nil {
		return nil, err
	}

	const query = `
		SELECT mk.nama_matkul, t.nilai_huruf
		FROM mahasiswa m
		JOIN transkrip t ON m.id = t.id_mahasiswa
		JOIN mata_kuliah mk ON t.id_matkul = mk.id
		WHERE m.nama_mahasiswa = ?
		ORDER BY mk.nama_matkul`

	rows, err := s.db.QueryContext(ctx, query, studentName)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.Name, &c.Grade); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
