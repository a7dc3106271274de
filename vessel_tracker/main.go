package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ais_tracks/tracker"
)

func main() {
	// Configuration
	config := tracker.Config{
		MMSI: 367144000,
		// Harbor plus a margin around it
		Box: tracker.BoundingBox{
			LatMin: 48.68,
			LatMax: 48.78,
			LonMin: -122.62,
			LonMax: -122.45,
		},
		Timezone:    "America/Los_Angeles",
		Weekday:     time.Friday,
		BucketWidth: 60 * time.Second,
		BatchSize:   1000000,
		Patterns: []string{
			"ais-2025-*.csv",
			"ais-2025-*.csv.zst",
			"ais-2025-*.parquet",
		},
		Columns:    tracker.DefaultColumns(),
		OutputPath: "columbia_tracks_summer_fridays_2025.json",
		Note:       "AIS points for Columbia on local Fridays in summer 2025; downsampled to ~1/min.",
	}

	vt, err := tracker.NewVesselTracker(config)
	if err != nil {
		log.Fatalf("Failed to create vessel tracker: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := vt.Run(ctx)
	switch {
	case errors.Is(err, tracker.ErrNoInput):
		log.Fatalf("%v. Are you in the folder with the daily AIS files?", err)
	case errors.Is(err, tracker.ErrNoRows):
		log.Fatalf("%v", err)
	case err != nil:
		log.Fatalf("Extraction failed: %v", err)
	}

	fmt.Println("Wrote:", result.Output)
	fmt.Println("Days:", len(result.Document.Days))
}
