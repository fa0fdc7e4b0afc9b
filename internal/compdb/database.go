package compdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Database is an ordered list of compilation database entries
type Database []*Record

// Files returns the "file" attribute of every entry, in order
func (db Database) Files() []string {
	files := make([]string, len(db))
	for i, rec := range db {
		files[i] = rec.File()
	}
	return files
}

// Decode parses a complete compilation database document.
// Trailing data after the top-level array is rejected.
func Decode(data []byte) (Database, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: top-level value must be an array", ErrInvalidDatabase)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDatabase, err)
	}

	db := make(Database, 0, len(entries))
	for i, entry := range entries {
		rec := &Record{}
		if err := rec.UnmarshalJSON(entry); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		db = append(db, rec)
	}

	return db, nil
}

// Read reads and decodes a whole database from r
func Read(r io.Reader) (Database, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read compilation database: %w", err)
	}
	return Decode(data)
}

// Encode writes db to w as an indented JSON array.
// A nil database is written as an empty array.
func Encode(w io.Writer, db Database) error {
	if db == nil {
		db = Database{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(db); err != nil {
		return fmt.Errorf("failed to encode compilation database: %w", err)
	}
	return nil
}

// Marshal returns the encoded form of db
func Marshal(db Database) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, db); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadFile loads the database stored at path
func ReadFile(path string) (Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compilation database: %w", err)
	}

	db, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return db, nil
}

// WriteFile encodes db and writes it to path, replacing any existing content.
// Nothing is written if encoding fails.
func WriteFile(path string, db Database) error {
	data, err := Marshal(db)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write compilation database: %w", err)
	}
	return nil
}
