package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

var ErrNoRows = errors.New("no matching rows found")

type VesselTracker struct {
	config Config
	filter Filter
	logger *log.Logger
}

// Result describes a completed run.
type Result struct {
	Files     []string
	Output    string
	Document  Document
	FileStats []FileStats
	Filter    FilterStats
	Days      []DaySummary
	Duration  time.Duration
}

func NewVesselTracker(config Config) (*VesselTracker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	loc, err := config.Location()
	if err != nil {
		return nil, err
	}

	logger := log.New(os.Stdout, "[VesselTracker] ", log.LstdFlags)

	return &VesselTracker{
		config: config,
		filter: NewFilter(config, loc),
		logger: logger,
	}, nil
}

func (vt *VesselTracker) SetLogOutput(w io.Writer) {
	vt.logger.SetOutput(w)
}

// Run reads every source file in order, keeps the rows matching the filter,
// downsamples them and writes the output document. Nothing is written when no
// row survives the filter.
func (vt *VesselTracker) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()

	files, err := FindSources(vt.config.Patterns)
	if err != nil {
		return nil, err
	}
	vt.logger.Printf("Found %d input files for MMSI %d", len(files), vt.config.MMSI)

	result := &Result{Files: files}
	var accumulated []Observation

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stats, kept, err := vt.processFile(ctx, path)
		if err != nil {
			return nil, err
		}

		accumulated = append(accumulated, kept...)
		result.FileStats = append(result.FileStats, stats)
		result.Filter.Add(stats.Filter)
	}

	if len(accumulated) == 0 {
		return nil, fmt.Errorf("%w for MMSI %d on %s in %+v (box too tight? missing input files?)",
			ErrNoRows, vt.config.MMSI, vt.config.Weekday, vt.config.Box)
	}

	days := Downsample(accumulated, vt.config.BucketWidth)
	result.Document = BuildDocument(vt.config, days)
	result.Days = SummarizeDays(days)

	if err := WriteDocument(vt.config.OutputPath, result.Document); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", vt.config.OutputPath, err)
	}
	result.Output = vt.config.OutputPath
	result.Duration = time.Since(startTime)

	vt.printFinalStats(result)
	return result, nil
}

func (vt *VesselTracker) processFile(ctx context.Context, path string) (FileStats, []Observation, error) {
	fileStart := time.Now()
	stats := FileStats{Path: path}
	vt.logger.Printf("Reading %s", path)

	reader, err := OpenBatchReader(ctx, path, vt.config.Columns, vt.config.BatchSize)
	if err != nil {
		return stats, nil, err
	}
	defer reader.Close()

	var kept []Observation
	for {
		if err := ctx.Err(); err != nil {
			return stats, nil, err
		}

		batch, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, nil, err
		}

		stats.Batches++
		kept = append(kept, FilterBatch(batch, vt.filter, &stats.Filter)...)
	}

	stats.Duration = time.Since(fileStart)
	vt.logger.Printf("  %s: %s rows in %d batches, kept %s (%v)",
		filepath.Base(path), formatNumber(int64(stats.Filter.Rows)), stats.Batches,
		formatNumber(int64(stats.Filter.Kept)), stats.Duration.Round(time.Millisecond))

	return stats, kept, nil
}

func (vt *VesselTracker) printFinalStats(result *Result) {
	points := 0
	for _, d := range result.Days {
		points += d.Points
	}

	banner(vt.logger, "VESSEL TRACK EXTRACTION COMPLETED")
	vt.logger.Printf("Total processing time: %v", result.Duration.Round(time.Millisecond))
	vt.logger.Printf("Files read: %d", len(result.Files))
	logFilterStats(vt.logger, result.Filter)
	vt.logger.Printf("Points after downsampling: %s", formatNumber(int64(points)))
	vt.logger.Printf("Days: %d", len(result.Days))
	logDaySummaries(vt.logger, result.Days)
	vt.logger.Printf("Wrote: %s", result.Output)
}
