package engine

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// nextState applies the classic rules: a live cell with two or three live
// neighbors survives, a dead cell with exactly three is born, everything
// else is dead next generation.
func nextState(alive bool, neighbors int) bool {
	return (alive && neighbors == 2) || neighbors == 3
}

// step advances the grid by one generation and returns the delta. All cells
// transition against the same pre-step snapshot; grid boundaries are hard
// edges, not toroidal. Caller holds e.mu.
func (e *LifeEngine) step() *GenerationUpdate {
	e.generation++

	if len(e.prev) != len(e.cells) {
		e.prev = make([]bool, len(e.cells))
	}
	for i := range e.cells {
		e.prev[i] = e.cells[i].Alive
	}

	var born, killed []Cell
	if e.size >= parallelThreshold {
		born, killed = e.stepParallel()
	} else {
		born, killed = e.stepRows(0, e.size)
	}

	return &GenerationUpdate{Number: e.generation, Born: born, Killed: killed}
}

// stepRows transitions rows [startRow, endRow) against the pre-step
// snapshot in e.prev, collecting the cells that changed state. Row ranges
// are disjoint, so workers may run stepRows concurrently.
func (e *LifeEngine) stepRows(startRow, endRow int) (born, killed []Cell) {
	size := e.size
	for row := startRow; row < endRow; row++ {
		for col := 0; col < size; col++ {
			idx := row*size + col
			alive := e.prev[idx]
			next := nextState(alive, e.countNeighbors(row, col))
			if next == alive {
				continue
			}
			e.cells[idx].Alive = next
			if next {
				born = append(born, e.cells[idx])
			} else {
				killed = append(killed, e.cells[idx])
			}
		}
	}
	return born, killed
}

// countNeighbors counts live cells in the Moore neighborhood of (row, col)
// using the pre-step snapshot. Clamping the bounds once keeps corner cells
// at their at-most-3 in-bounds neighbors without per-offset checks.
func (e *LifeEngine) countNeighbors(row, col int) int {
	size := e.size
	minRow := max(0, row-1)
	maxRow := min(size-1, row+1)
	minCol := max(0, col-1)
	maxCol := min(size-1, col+1)

	count := 0
	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			if r == row && c == col {
				continue
			}
			if e.prev[r*size+c] {
				count++
			}
		}
	}
	return count
}

// stepParallel splits the grid into per-worker row bands and merges the
// deltas back in row order, so the observable result is identical to the
// serial path.
func (e *LifeEngine) stepParallel() ([]Cell, []Cell) {
	var (
		eg            errgroup.Group
		numWorkers    = runtime.NumCPU()
		rowsPerWorker = (e.size + numWorkers - 1) / numWorkers
		bornParts     = make([][]Cell, numWorkers)
		killedParts   = make([][]Cell, numWorkers)
	)

	for i := 0; i < numWorkers; i++ {
		var (
			worker   = i
			startRow = i * rowsPerWorker
			endRow   = min(startRow+rowsPerWorker, e.size)
		)
		if startRow >= e.size {
			break
		}

		eg.Go(func() error {
			bornParts[worker], killedParts[worker] = e.stepRows(startRow, endRow)
			return nil
		})
	}

	// Workers never return errors; Wait is only a join point.
	_ = eg.Wait()

	var born, killed []Cell
	for i := 0; i < numWorkers; i++ {
		born = append(born, bornParts[i]...)
		killed = append(killed, killedParts[i]...)
	}
	return born, killed
}
