package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"pawbook/internal/config"
	"pawbook/internal/database"

	"github.com/rs/zerolog"
)

// Imports the clinic catalog from a YAML seed file. Unlike the startup
// seeding, which only fills an empty table, this upserts by clinic name so
// catalog edits can be pushed to a live database.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath = flag.String("seed", "configs/clinics.yaml", "path to clinics seed yaml")
		dbPath   = flag.String("db", "./data/pawbook.db", "path to sqlite db")
	)
	flag.Parse()

	clinics, err := config.LoadSeedClinics(*seedPath)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}
	if len(clinics) == 0 {
		return fmt.Errorf("no clinics in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := db.GetClinics(ctx)
	if err != nil {
		return fmt.Errorf("list clinics: %w", err)
	}
	byName := make(map[string]string, len(existing))
	for _, c := range existing {
		byName[c.Name] = c.ID
	}

	created := 0
	updated := 0
	for i := range clinics {
		clinic := &clinics[i]
		if clinic.Name == "" {
			continue
		}
		if id, ok := byName[clinic.Name]; ok {
			clinic.ID = id
			if err = db.ReplaceClinic(ctx, clinic); err != nil {
				return fmt.Errorf("update %s: %w", clinic.Name, err)
			}
			updated++
			continue
		}
		if err = db.CreateClinic(ctx, clinic); err != nil {
			return fmt.Errorf("create %s: %w", clinic.Name, err)
		}
		created++
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}
