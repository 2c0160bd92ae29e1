package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"termdeposit/db"
	"termdeposit/ml"
)

func main() {
	artifactPath := flag.String("artifact", "./models/classifier.json", "classifier artifact to import")
	dbPath := flag.String("db", "./models/artifacts.db", "artifact database path")
	name := flag.String("name", "classifier", "artifact name")
	flag.Parse()

	payload, err := os.ReadFile(*artifactPath)
	if err != nil {
		log.Fatalf("failed to read artifact: %v", err)
	}

	model, err := ml.DecodeModel(payload)
	if err != nil {
		log.Fatalf("invalid artifact: %v", err)
	}
	if _, err := ml.NewPredictor(model); err != nil {
		log.Fatalf("artifact does not match the feature encoder: %v", err)
	}

	store, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open artifact database: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	info, err := store.Save(ctx, *name, payload)
	if err != nil {
		log.Fatalf("failed to store artifact: %v", err)
	}

	fmt.Printf("artifact %s stored in %s (sha256 %s, %d bytes)\n", info.Name, *dbPath, info.Checksum, info.Size)
}
