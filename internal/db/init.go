package db

import (
	"fmt"
	"os"
	"path/filepath"
)

// Initialize creates a new database with the complete schema
func Initialize(dbPath string) error {
	// Check if database already exists
	if _, err := os.Stat(dbPath); err == nil {
		return fmt.Errorf("database already exists at %s", dbPath)
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}
