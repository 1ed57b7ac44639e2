package models

import (
	"fmt"
	"strconv"

	"github.com/coursetable/ferry/internal/pkg/apperrors"
)

// Term represents the term part of a season code
type Term string

// Term constants
const (
	TermSpring Term = "SPRING"
	TermSummer Term = "SUMMER"
	TermFall   Term = "FALL"
)

var termsByCode = map[string]Term{
	"01": TermSpring,
	"02": TermSummer,
	"03": TermFall,
}

// Season is one academic term, keyed by a six digit code YYYYTT.
type Season struct {
	Code string `json:"seasonCode" db:"season_code"`
	Term Term   `json:"term" db:"term"`
	Year int    `json:"year" db:"year"`
}

// ParseSeason derives the year and term of a season code.
func ParseSeason(code string) (Season, error) {
	if len(code) != 6 {
		return Season{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidSeason, code)
	}
	year, err := strconv.Atoi(code[:4])
	if err != nil {
		return Season{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidSeason, code)
	}
	term, ok := termsByCode[code[4:]]
	if !ok {
		return Season{}, fmt.Errorf("%w: unknown term in %q", apperrors.ErrInvalidSeason, code)
	}
	return Season{Code: code, Term: term, Year: year}, nil
}
