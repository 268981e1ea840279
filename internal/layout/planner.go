package layout

// Position addresses one grid cell of the layout editor.
type Position struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// NextPositions computes where the next count tiles go: row-major order,
// appending after the last occupied column of each existing row before
// opening a new row. When fewer free cells remain than requested, the
// result is simply shorter; callers place only what they got.
func NextPositions(occupied map[Position]struct{}, count, maxColumns, maxRows int) []Position {
	if count <= 0 || maxColumns <= 0 || maxRows <= 0 {
		return nil
	}
	out := make([]Position, 0, count)

	if len(occupied) == 0 {
		for col := 0; col < maxColumns && len(out) < count; col++ {
			out = append(out, Position{Row: 0, Column: col})
		}
		return out
	}

	maxOccupiedRow := 0
	lastColByRow := map[int]int{}
	for p := range occupied {
		if p.Row > maxOccupiedRow {
			maxOccupiedRow = p.Row
		}
		if last, ok := lastColByRow[p.Row]; !ok || p.Column > last {
			lastColByRow[p.Row] = p.Column
		}
	}

	lastRow := maxOccupiedRow + 1
	if lastRow > maxRows-1 {
		lastRow = maxRows - 1
	}
	for row := 0; row <= lastRow && len(out) < count; row++ {
		start := 0
		if last, ok := lastColByRow[row]; ok {
			start = last + 1
		}
		for col := start; col < maxColumns && len(out) < count; col++ {
			out = append(out, Position{Row: row, Column: col})
		}
	}
	return out
}
