package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

const migrationsPath = "internal/adapters/repository/postgres/migrations"

func main() {
	_ = godotenv.Load()

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if len(os.Args) > 1 {
		if err := runOne(db, os.Args[1]); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := runAll(db); err != nil {
		log.Fatal(err)
	}
}

// runAll applies every *up.sql file in lexical order.
func runAll(db *sql.DB) error {
	entries, err := os.ReadDir(migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}
		if err := execFile(db, filepath.Join(migrationsPath, entry.Name())); err != nil {
			return err
		}
		fmt.Println("applied", entry.Name())
	}
	return nil
}

func runOne(db *sql.DB, name string) error {
	pattern, err := regexp.Compile(fmt.Sprintf(`^.*%s.*\.sql$`, regexp.QuoteMeta(name)))
	if err != nil {
		return fmt.Errorf("invalid migration name: %w", err)
	}

	entries, err := os.ReadDir(migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !pattern.MatchString(entry.Name()) {
			continue
		}
		if err := execFile(db, filepath.Join(migrationsPath, entry.Name())); err != nil {
			return err
		}
		fmt.Println("applied", entry.Name())
		return nil
	}
	return fmt.Errorf("migration file not found: %s", name)
}

func execFile(db *sql.DB, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", path, err)
	}
	if _, err := db.Exec(string(content)); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", path, err)
	}
	return nil
}
