package quiz

import (
	"github.com/projectlearn/vocaquiz/internal/errors"
)

type Mode string

const (
	ModeMultipleChoice Mode = "multiple-choice"
	ModeFillInBlank    Mode = "fill-in-blank"
	ModeMatching       Mode = "matching"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeMultipleChoice, ModeFillInBlank, ModeMatching:
		return Mode(s), nil
	}
	return "", errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown quiz mode %q", s))
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), nil
	}
	return "", errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown difficulty %q", s))
}

// Fixed policy: question count and option count per difficulty.
func difficultyParams(d Difficulty) (questionCount, optionCount int) {
	switch d {
	case DifficultyEasy:
		return 5, 3
	case DifficultyMedium:
		return 8, 4
	default:
		return 10, 5
	}
}
