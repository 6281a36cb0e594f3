package core

import "fmt"

// Coordinate represents a cell position on a tile grid
type Coordinate struct {
	X, Y int
}

// NewCoordinate creates a new coordinate with the given x and y values
func NewCoordinate(x, y int) Coordinate {
	return Coordinate{X: x, Y: y}
}

// FromIndex creates a coordinate from a grid buffer index using row-major ordering
func FromIndex(idx, width int) Coordinate {
	return Coordinate{
		X: idx % width,
		Y: idx / width,
	}
}

// IsValid checks if the coordinate is within the given bounds
func (c Coordinate) IsValid(width, height int) bool {
	return c.X >= 0 && c.X < width && c.Y >= 0 && c.Y < height
}

// ToIndex converts the coordinate to a grid buffer index using row-major ordering
func (c Coordinate) ToIndex(width int) int {
	return c.Y*width + c.X
}

// Less orders coordinates row-major, which is the processing order of a fill pass
func (c Coordinate) Less(other Coordinate) bool {
	if c.Y != other.Y {
		return c.Y < other.Y
	}
	return c.X < other.X
}

// Chebyshev returns the king-move distance to another coordinate
func (c Coordinate) Chebyshev(other Coordinate) int {
	dx := abs(c.X - other.X)
	dy := abs(c.Y - other.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Add returns a new coordinate that is the sum of this coordinate and another
func (c Coordinate) Add(other Coordinate) Coordinate {
	return Coordinate{
		X: c.X + other.X,
		Y: c.Y + other.Y,
	}
}

// String returns a string representation of the coordinate
func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Direction is one of the eight compass directions around a cell.
// The numeric order matches the slot order of a Wang id.
type Direction int

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// DirectionCount is the number of compass directions around a cell
const DirectionCount = 8

// directionVectors provides coordinate offsets for each direction
var directionVectors = [DirectionCount]Coordinate{
	North:     {X: 0, Y: -1},
	NorthEast: {X: 1, Y: -1},
	East:      {X: 1, Y: 0},
	SouthEast: {X: 1, Y: 1},
	South:     {X: 0, Y: 1},
	SouthWest: {X: -1, Y: 1},
	West:      {X: -1, Y: 0},
	NorthWest: {X: -1, Y: -1},
}

var directionNames = [DirectionCount]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Offset returns the coordinate delta for the direction
func (d Direction) Offset() Coordinate {
	if d < 0 || d >= DirectionCount {
		return Coordinate{}
	}
	return directionVectors[d]
}

// Opposite returns the direction pointing the other way
func (d Direction) Opposite() Direction {
	return (d + 4) % DirectionCount
}

// Rotate turns the direction clockwise by the given number of eighth turns (negative turns counter-clockwise)
func (d Direction) Rotate(steps int) Direction {
	return Direction(((int(d)+steps)%DirectionCount + DirectionCount) % DirectionCount)
}

// IsCorner reports whether the direction is diagonal
func (d Direction) IsCorner() bool {
	return d%2 == 1
}

func (d Direction) String() string {
	if d < 0 || d >= DirectionCount {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Move returns a new coordinate moved one step in the given direction
func (c Coordinate) Move(direction Direction) Coordinate {
	return c.Add(direction.Offset())
}

// Neighbors returns the eight surrounding coordinates, indexed by Direction
func (c Coordinate) Neighbors() [DirectionCount]Coordinate {
	var out [DirectionCount]Coordinate
	for d := North; d < DirectionCount; d++ {
		out[d] = c.Move(d)
	}
	return out
}

// ValidNeighbors returns only the surrounding coordinates that are within the given bounds
func (c Coordinate) ValidNeighbors(width, height int) []Coordinate {
	valid := make([]Coordinate, 0, DirectionCount)
	for _, n := range c.Neighbors() {
		if n.IsValid(width, height) {
			valid = append(valid, n)
		}
	}
	return valid
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
