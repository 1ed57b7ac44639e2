package models

import (
	"cmp"
	"maps"
	"slices"
	"time"
)

// Drop reasons recorded in a Report.
const (
	DropMalformedListing   = "malformed_listing"
	DropDuplicateCRN       = "duplicate_crn"
	DropSeasonMismatch     = "season_mismatch"
	DropEmptyIdentity      = "empty_identity"
	DropMalformedQuestion  = "malformed_question"
	DropUnlinkedEvaluation = "unlinked_evaluation"
)

// Inconsistency and ambiguity kinds recorded in a Report.
const (
	InconsistentCrossListing = "crosslisting_inconsistency"
	InconsistentPhantomCRN   = "phantom_crn"
	InconsistentQuestionKind = "question_kind"
	InconsistentQuestionText = "question_text"
	AmbiguousProfessorEmail  = "professor_email"
)

// SkippedSeason is a season whose processing was aborted.
type SkippedSeason struct {
	SeasonCode string `json:"seasonCode"`
	Reason     string `json:"reason"`
}

// Report summarises one run: entity totals plus counts of the records that
// were dropped, flagged as inconsistent or resolved ambiguously.
type Report struct {
	Seasons          int             `json:"seasons"`
	SkippedSeasons   []SkippedSeason `json:"skippedSeasons"`
	Listings         int             `json:"listings"`
	Courses          int             `json:"courses"`
	Professors       int             `json:"professors"`
	CodeGroups       int             `json:"codeGroups"`
	SameCourseGroups int             `json:"sameCourseGroups"`
	SameCourseProfs  int             `json:"sameCourseAndProfsGroups"`
	EvaluatedCourses int             `json:"evaluatedCourses"`
	Dropped          map[string]int  `json:"dropped"`
	Inconsistent     map[string]int  `json:"inconsistent"`
	Ambiguous        map[string]int  `json:"ambiguous"`
	DurationMillis   int64           `json:"durationMillis"`
	CompletedAt      time.Time       `json:"completedAt"`
}

// NewReport returns an empty report with its maps allocated.
func NewReport() *Report {
	return &Report{
		Dropped:      make(map[string]int),
		Inconsistent: make(map[string]int),
		Ambiguous:    make(map[string]int),
	}
}

// Drop counts n records dropped for reason.
func (r *Report) Drop(reason string, n int) {
	if n > 0 {
		r.Dropped[reason] += n
	}
}

// Inconsistency counts n inconsistencies of the given kind.
func (r *Report) Inconsistency(kind string, n int) {
	if n > 0 {
		r.Inconsistent[kind] += n
	}
}

// Ambiguity counts n ambiguous resolutions of the given kind.
func (r *Report) Ambiguity(kind string, n int) {
	if n > 0 {
		r.Ambiguous[kind] += n
	}
}

// Skip records an aborted season.
func (r *Report) Skip(seasonCode, reason string) {
	r.SkippedSeasons = append(r.SkippedSeasons, SkippedSeason{SeasonCode: seasonCode, Reason: reason})
}

// Merge adds the counters of other into r. Skipped seasons are kept sorted.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	for k, v := range other.Dropped {
		r.Drop(k, v)
	}
	for k, v := range other.Inconsistent {
		r.Inconsistency(k, v)
	}
	for k, v := range other.Ambiguous {
		r.Ambiguity(k, v)
	}
	r.SkippedSeasons = append(r.SkippedSeasons, other.SkippedSeasons...)
	slices.SortFunc(r.SkippedSeasons, func(a, b SkippedSeason) int {
		return cmp.Compare(a.SeasonCode, b.SeasonCode)
	})
}

// TotalDropped sums every drop reason.
func (r *Report) TotalDropped() int {
	total := 0
	for _, v := range r.Dropped {
		total += v
	}
	return total
}

// Reasons lists the keys of a counter map in sorted order.
func Reasons(counts map[string]int) []string {
	return slices.Sorted(maps.Keys(counts))
}
