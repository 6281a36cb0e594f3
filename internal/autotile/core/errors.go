package core

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds       = errors.New("coordinates out of bounds")
	ErrBufferSize        = errors.New("buffer length does not match grid dimensions")
	ErrNilTerrainSet     = errors.New("terrain set is nil")
	ErrUnknownTerrainSet = errors.New("unknown terrain set")
	ErrUnknownTerrain    = errors.New("unknown terrain")
	ErrInvalidTarget     = errors.New("invalid paint target")
	ErrNoCandidate       = errors.New("no tile satisfies the constraints")
)

// WrapGridError adds grid dimension context to an error
func WrapGridError(w, h, length int, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("grid %dx%d (buffer %d): %w", w, h, length, err)
}

// WrapCellError adds cell context to an error
func WrapCellError(c Coordinate, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("cell %s %s: %w", c, operation, err)
}

// WrapTerrainError adds terrain set context to an error
func WrapTerrainError(setName string, terrain int, err error) error {
	if err == nil {
		return nil
	}
	if terrain < 0 {
		return fmt.Errorf("terrain set %q: %w", setName, err)
	}
	return fmt.Errorf("terrain set %q terrain %d: %w", setName, terrain, err)
}
