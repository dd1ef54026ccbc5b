package domain

// CellType distinguishes prose cells from compiled cells.
type CellType string

const (
	// CellCode holds source that is compiled and previewed.
	CellCode CellType = "code"
	// CellText holds markdown and is never compiled.
	CellText CellType = "text"
)

// Cell is one unit of notebook content.
type Cell struct {
	ID      string
	Type    CellType
	Runtime Runtime
	Content string
}

// Input returns the build input for a code cell.
func (c Cell) Input() BuildInput {
	return BuildInput{Source: c.Content, Runtime: c.Runtime}
}

// Notebook is an ordered sequence of cells.
type Notebook struct {
	Path  string
	Cells []Cell
}

// CodeCells returns the code cells in notebook order.
func (n *Notebook) CodeCells() []Cell {
	out := make([]Cell, 0, len(n.Cells))
	for _, c := range n.Cells {
		if c.Type == CellCode {
			out = append(out, c)
		}
	}
	return out
}
