package main

import (
	"context"
	"fmt"
	"os"

	"github.com/eleven-am/transcript-demo/internal/audiofile"
	"github.com/eleven-am/transcript-demo/internal/bootstrap"
)

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := bootstrap.ProvideDatabase(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	store := audiofile.NewStore(db)
	if err := store.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to migrate: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := store.SeedSamples(ctx, cfg.Samples); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to seed samples: %v\n", err)
		os.Exit(1)
	}

	files, err := store.List(ctx, audiofile.SourceSample)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list samples: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Sample catalog seeded successfully!")
	fmt.Println("")
	for _, f := range files {
		fmt.Printf("  %-10s %-16s %s\n", f.ID, f.Name, f.URL)
	}
}
