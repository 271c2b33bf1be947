package engine

// ManhattanDistance calculates the Manhattan distance between two points
func ManhattanDistance(from, to Point) int {
	return abs(from.X-to.X) + abs(from.Y-to.Y)
}

// ChebyshevDistance calculates the king-move distance between two points
func ChebyshevDistance(from, to Point) int {
	return max(abs(from.X-to.X), abs(from.Y-to.Y))
}

// CountValue counts cells of g equal to v
func CountValue[T comparable](g *Growing[T], v T) int {
	count := 0
	for p := range g.Points() {
		cur, err := g.grid.Get(p.X, p.Y)
		if err == nil && cur == v {
			count++
		}
	}
	return count
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
