// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

// Command seed loads or clears development data.
//
//	seed -import [-dir dev-data]
//	seed -delete
//
// The data directory holds adventures.json, users.json and reviews.json.
// User passwords in users.json are plain text and are hashed on import.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/arko8919/cotswold-cycling-adventures/internal/auth"
	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/database"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
)

func main() {
	importData := flag.Bool("import", false, "import adventures, users and reviews")
	deleteData := flag.Bool("delete", false, "delete all data")
	dir := flag.String("dir", "dev-data", "directory holding the JSON files")
	flag.Parse()

	if *importData == *deleteData {
		fmt.Fprintln(os.Stderr, "usage: seed -import [-dir dev-data] | seed -delete")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console"})

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	if *deleteData {
		err = db.DeleteAll(ctx)
	} else {
		err = importAll(ctx, db, *dir)
	}
	cancel()

	if closeErr := db.Close(); closeErr != nil {
		logging.Error().Err(closeErr).Msg("Error closing database")
	}
	if err != nil {
		logging.Fatal().Err(err).Msg("Seeding failed")
	}
	logging.Info().Msg("Seeding complete")
}

// importAll loads adventures first so users and reviews can refer to them.
func importAll(ctx context.Context, db *database.DB, dir string) error {
	steps := []struct {
		file string
		run  func(io.Reader) (int, error)
	}{
		{"adventures.json", func(r io.Reader) (int, error) { return db.ImportAdventures(ctx, r) }},
		{"users.json", func(r io.Reader) (int, error) { return db.ImportUsers(ctx, r, auth.HashPassword) }},
		{"reviews.json", func(r io.Reader) (int, error) { return db.ImportReviews(ctx, r) }},
	}

	for _, step := range steps {
		path := filepath.Join(dir, step.file)
		f, err := os.Open(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		n, err := step.run(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", step.file, err)
		}
		logging.Info().Str("file", step.file).Int("count", n).Msg("Imported")
	}
	return nil
}
