// Command analyze prints quick, human-readable heuristics about exported
// board snapshots. It summarizes population, density and the live bounding
// box, and can evolve a snapshot offline to classify it as extinct, a still
// life, or an oscillator.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gridlife/lifeserver/sim/engine"
)

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Inspect exported Game of Life snapshots",
		Commands: []*cli.Command{
			{
				Name:      "stats",
				Usage:     "Print population, density and bounding box of a snapshot",
				ArgsUsage: "<snapshot.json>",
				Action:    runStats,
			},
			{
				Name:      "evolve",
				Usage:     "Evolve a snapshot offline and classify its behavior",
				ArgsUsage: "<snapshot.json>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "generations",
						Aliases: []string{"g"},
						Value:   100,
						Usage:   "Maximum generations to simulate",
					},
				},
				Action: runEvolve,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadSnapshot reads and parses an exported snapshot file.
func loadSnapshot(path string) (*engine.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &snap, nil
}

func runStats(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: analyze stats <snapshot.json>")
	}

	snap, err := loadSnapshot(path)
	if err != nil {
		return err
	}

	printStats(snap)
	return nil
}

func printStats(snap *engine.Snapshot) {
	population := 0
	minRow, minCol := snap.Size, snap.Size
	maxRow, maxCol := -1, -1

	for _, cell := range snap.Cells {
		if !cell.Alive {
			continue
		}
		population++
		if cell.Row < minRow {
			minRow = cell.Row
		}
		if cell.Row > maxRow {
			maxRow = cell.Row
		}
		if cell.Column < minCol {
			minCol = cell.Column
		}
		if cell.Column > maxCol {
			maxCol = cell.Column
		}
	}

	total := snap.Size * snap.Size
	density := 0.0
	if total > 0 {
		density = float64(population) / float64(total) * 100
	}

	fmt.Printf("Grid: %dx%d\n", snap.Size, snap.Size)
	fmt.Printf("Population: %d (%.2f%% density)\n", population, density)
	if population == 0 {
		fmt.Println("Bounding box: empty board")
		return
	}
	fmt.Printf("Bounding box: rows %d-%d, columns %d-%d (%dx%d)\n",
		minRow, maxRow, minCol, maxCol, maxRow-minRow+1, maxCol-minCol+1)
}

func runEvolve(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: analyze evolve <snapshot.json>")
	}
	generations := int(cmd.Int("generations"))
	if generations <= 0 {
		return fmt.Errorf("generations must be positive, got %d", generations)
	}

	snap, err := loadSnapshot(path)
	if err != nil {
		return err
	}

	eng := engine.NewEngineWithDefaults()
	if err := eng.LoadState(*snap); err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	verdict, detail := classify(eng, generations)
	printStats(snap)
	fmt.Printf("Verdict: %s %s\n", verdict, detail)
	return nil
}

// classify steps the engine up to maxGen generations and reports what the
// snapshot settles into. Oscillators are detected by comparing each state
// against every earlier one, so the reported period is exact.
func classify(eng engine.Engine, maxGen int) (verdict, detail string) {
	seen := []string{stateKey(eng.Cells())}

	for gen := 1; gen <= maxGen; gen++ {
		eng.Step()
		key := stateKey(eng.Cells())

		if population(eng.Cells()) == 0 {
			return "extinct", fmt.Sprintf("(died out at generation %d)", gen)
		}

		for prev, prevKey := range seen {
			if key == prevKey {
				period := gen - prev
				if period == 1 {
					return "still life", fmt.Sprintf("(stable from generation %d)", prev)
				}
				return "oscillator", fmt.Sprintf("(period %d, entered at generation %d)", period, prev)
			}
		}
		seen = append(seen, key)
	}

	return "unresolved", fmt.Sprintf("(still changing after %d generations)", maxGen)
}

// stateKey packs the alive flags into a compact comparable string.
func stateKey(cells []engine.Cell) string {
	buf := make([]byte, (len(cells)+7)/8)
	for i, cell := range cells {
		if cell.Alive {
			buf[i/8] |= 1 << (i % 8)
		}
	}
	return string(buf)
}

func population(cells []engine.Cell) int {
	n := 0
	for _, cell := range cells {
		if cell.Alive {
			n++
		}
	}
	return n
}
