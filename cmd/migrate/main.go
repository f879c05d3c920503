// Command to migrate a JSON snapshot into the SQLite store
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"pricetrack/internal/store"
)

const version = "1.0.0"

func main() {
	dataDir := flag.String("dir", "./data", "Data directory containing the JSON snapshot")
	key := flag.String("key", "tracker", "Snapshot key to migrate")
	force := flag.Bool("force", false, "Overwrite an existing snapshot in the SQLite database")
	dryRun := flag.Bool("dry-run", false, "Show what would be done without making changes")
	versionFlag := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("migrate version %s\n", version)
		return
	}

	ctx := context.Background()

	jsonPath := filepath.Join(*dataDir, *key+".json")
	if _, err := os.Stat(jsonPath); os.IsNotExist(err) {
		fmt.Printf("Error: JSON snapshot not found: %s\n", jsonPath)
		os.Exit(1)
	}

	src, err := store.NewJSON(*dataDir)
	if err != nil {
		fmt.Printf("Error: failed to open JSON store: %v\n", err)
		os.Exit(1)
	}

	snap, err := src.Load(ctx, *key)
	if err != nil {
		fmt.Printf("Error: failed to load snapshot: %v\n", err)
		os.Exit(1)
	}
	if snap == nil {
		fmt.Printf("Error: no snapshot stored under key %q\n", *key)
		os.Exit(1)
	}

	fmt.Printf("Loaded snapshot %q: %d products, %d alert lists (schema v%d)\n",
		*key, len(snap.Products), len(snap.Alerts), snap.SchemaVersion)

	if *dryRun {
		fmt.Println("Dry run: no changes written")
		return
	}

	dst, err := store.NewSQLite(*dataDir)
	if err != nil {
		fmt.Printf("Error: failed to open SQLite store: %v\n", err)
		os.Exit(1)
	}
	defer dst.Close()

	if existing, err := dst.Load(ctx, *key); err != nil {
		fmt.Printf("Error: failed to check existing snapshot: %v\n", err)
		os.Exit(1)
	} else if existing != nil && !*force {
		fmt.Printf("Error: SQLite snapshot for key %q already exists\n", *key)
		fmt.Println("Use --force to overwrite it")
		os.Exit(1)
	}

	if err := dst.Save(ctx, *key, snap); err != nil {
		fmt.Printf("Error: failed to write snapshot: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migration complete. Set STORE_BACKEND=sqlite to use the new store.")
}
