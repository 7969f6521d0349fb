package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"house-pricer/internal/storage"
)

func main() {
	var (
		dataPath = flag.String("data", "./data", "Data directory path")
		asJSON   = flag.Bool("json", false, "Print versions as JSON")
		activate = flag.String("activate", "", "Mark this version active before listing")
	)
	flag.Parse()

	fmt.Fprintf(os.Stderr, "Inspecting registry in: %s\n", *dataPath)

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	if *activate != "" {
		if err := store.ActivateVersion(*activate); err != nil {
			log.Fatalf("Failed to activate %s: %v", *activate, err)
		}
		fmt.Fprintf(os.Stderr, "✓ Activated %s\n", *activate)
	}

	versions, err := store.ListVersions()
	if err != nil {
		log.Fatalf("Failed to list versions: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(versions); err != nil {
			log.Fatalf("Failed to encode versions: %v", err)
		}
		return
	}

	if len(versions) == 0 {
		fmt.Println("No model versions registered.")
		return
	}

	fmt.Printf("%-2s %-32s %-12s %8s %8s %14s %10s\n", "", "VERSION", "FINGERPRINT", "TRAIN R²", "TEST R²", "RESIDUAL STD", "FEATURES")
	for _, v := range versions {
		marker := ""
		if v.IsActive {
			marker = "*"
		}
		fp := v.Fingerprint
		if len(fp) > 12 {
			fp = fp[:12]
		}
		fmt.Printf("%-2s %-32s %-12s %8.4f %8.4f %14.2f %10d\n",
			marker, v.Version, fp, v.TrainR2, v.TestR2, v.ResidualStd, v.Features)
	}
}
