// Command scheduler runs one orchestration over a JSON job batch read from
// a file (or stdin) and writes the resulting Output as JSON to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"

	"github.com/pageza/shift-scheduler/internal/config"
	"github.com/pageza/shift-scheduler/internal/distancematrix"
	"github.com/pageza/shift-scheduler/internal/domain"
	"github.com/pageza/shift-scheduler/internal/orchestrator"
	"github.com/pageza/shift-scheduler/internal/techstore"
)

func main() {
	inputPath := flag.String("input", "", "path to a JSON file of jobs; defaults to stdin")
	skipPins := flag.Bool("skip-tech-pins", false, "don't consult techstore for persisted tech enforcement pins")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	jobs, err := readJobs(*inputPath)
	if err != nil {
		log.Fatalf("Failed to read jobs: %v", err)
	}

	if !*skipPins && cfg.DatabaseURL != "" {
		if err := applyTechPins(cfg, jobs); err != nil {
			log.Fatalf("Failed to apply tech enforcement pins: %v", err)
		}
	}

	dist := distancematrix.NewMatrix(nil, nil, cfg.HardMaxRadiusMiles)
	orch := orchestrator.New(cfg, dist, log.Default())

	output, err := orch.Run(jobs, func(e domain.ProgressEvent) {
		if e.Type == "progress" {
			log.Printf("progress: %.0f%%", e.Data.(float64)*100)
		}
	}, nil)
	if err != nil {
		log.Fatalf("Orchestration failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
}

// applyTechPins stamps Job.Tech.Enforced/Code/Preferred for every job that
// has a persisted enforcement pin in techstore, mutating jobs in place
// before the batch reaches the Orchestrator (spec §3/§4.8).
func applyTechPins(cfg *config.Config, jobs []domain.Job) error {
	store, err := techstore.Open(cfg.DatabaseURL, 5, 2, 0)
	if err != nil {
		return err
	}
	defer store.Close()

	pins, err := store.ListAll(context.Background())
	if err != nil {
		return err
	}
	if len(pins) == 0 {
		return nil
	}

	byJobID := make(map[string]techstore.Enforcement, len(pins))
	for _, p := range pins {
		byJobID[p.JobID] = p
	}

	for i := range jobs {
		pin, ok := byJobID[jobs[i].ID]
		if !ok {
			continue
		}
		jobs[i].Tech.Enforced = true
		jobs[i].Tech.Code = pin.TechCode
		jobs[i].Preferred = pin.Preferred
	}
	return nil
}

func readJobs(path string) ([]domain.Job, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var jobs []domain.Job
	if err := json.NewDecoder(r).Decode(&jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
