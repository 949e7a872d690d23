package engine

import (
	. "github.com/gambitgo/gambit/internal/helpers"
)

// Difficulty tiers map onto search depth. Deeper than 3 gets slow without
// move ordering, which the search deliberately does not do.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

func (d Difficulty) Depth() int {
	switch d {
	case Easy:
		return 1
	case Medium:
		return 2
	case Hard:
		return 3
	}
	return 1
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return "easy"
}

func DifficultyFromString(s string) (Difficulty, Error) {
	switch s {
	case "easy":
		return Easy, NilError
	case "medium":
		return Medium, NilError
	case "hard":
		return Hard, NilError
	}
	return Easy, Errorf("unknown difficulty: %q", s)
}
