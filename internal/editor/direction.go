package editor

import (
	"fmt"
	"strings"

	"pagebuilder/internal/domain"
)

// Direction is a depth move. Front is the end of the sequence.
type Direction string

const (
	Front    Direction = "front"
	Back     Direction = "back"
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Front, Back, Forward, Backward:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidDirection, s)
}

// move returns the new position of the element at i in a sequence of n, and
// whether it moves at all.
func (d Direction) move(i, n int) (int, bool) {
	switch d {
	case Front:
		return n - 1, i != n-1
	case Back:
		return 0, i != 0
	case Forward:
		return i + 1, i < n-1
	case Backward:
		return i - 1, i > 0
	}
	return i, false
}
