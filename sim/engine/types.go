package engine

// Grid and speed bounds exposed to UI collaborators. The engine accepts any
// real speed value in range; SpeedPresets is a convenience list only.
const (
	MinSize     = 3
	MaxSize     = 1024
	DefaultSize = 128

	MinSpeed     = 1.0
	MaxSpeed     = 100.0
	DefaultSpeed = MinSpeed

	// Grids at or above this side length step in parallel.
	parallelThreshold = 256
)

// SpeedPresets are the discrete generations-per-second values offered by UIs.
var SpeedPresets = []float64{1, 2, 5, 10, 25, 50, 100}

// Cell is a single grid position. ID is row-major (Row*size + Column), stable
// for a given grid size until the next reset or load.
type Cell struct {
	ID     int  `json:"id"`
	Row    int  `json:"row"`
	Column int  `json:"column"`
	Alive  bool `json:"alive"`
}

// Snapshot is the export/import representation of a grid: exactly the size
// and the full cell sequence. It is the only persistence boundary the engine
// has; any concrete encoding (JSON on the wire, JSON files on disk) carries
// this logical shape.
type Snapshot struct {
	Size  int    `json:"size"`
	Cells []Cell `json:"cells"`
}

// newGrid allocates an all-dead grid of size*size cells in row-major order.
func newGrid(size int) []Cell {
	cells := make([]Cell, size*size)
	for i := range cells {
		cells[i] = Cell{ID: i, Row: i / size, Column: i % size}
	}
	return cells
}

// isValidPosition reports whether (row, column) lies inside a size x size grid.
func isValidPosition(row, column, size int) bool {
	return row >= 0 && row < size && column >= 0 && column < size
}
