package services

import (
	"cmp"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/coursetable/ferry/internal/pkg/textdist"
	"github.com/rs/zerolog"
)

// ratingOptions is the length of a rating count vector; option k is worth k+1
const ratingOptions = 5

const (
	// texts of one question code may differ by less than this many edits
	questionDivergenceCutoff = 32
	// comments this short or shorter are dropped
	minCommentLength = 2
)

// boilerplate appended to some question texts; ignored when comparing texts
var questionBoilerplate = []string{
	"(Your anonymous response to this question may be viewed by Yale College students, faculty, and advisers to aid in course selection and evaluating teaching.)",
}

// AggregateInput is everything the aggregate stage reads. Courses must carry
// their global IDs, group labels and professor IDs.
type AggregateInput struct {
	Courses          []models.Course
	Listings         []models.Listing
	Professors       []models.Professor
	CourseProfessors []models.CourseProfessor
	Evaluations      []models.RawEvaluation
}

// AggregateOutput holds copies of the courses and professors with their
// computed fields filled in, plus the linked evaluation tables.
type AggregateOutput struct {
	Courses    []models.Course
	Professors []models.Professor
	Statistics []models.EvaluationStatistics
	Questions  []models.EvaluationQuestion
	Ratings    []models.EvaluationRating
	Narratives []models.EvaluationNarrative
	Report     *models.Report
}

// evaluationTables is what linkEvaluations derives from the raw records.
type evaluationTables struct {
	statistics []models.EvaluationStatistics
	ratings    []models.EvaluationRating
	narratives []models.EvaluationNarrative
}

// AggregateComputer derives ratings, workloads and historical lookups.
type AggregateComputer struct {
	log zerolog.Logger
}

func NewAggregateComputer() *AggregateComputer {
	return &AggregateComputer{log: logger.Component("aggregate_computer")}
}

type listingKey struct {
	season string
	crn    int64
}

// Compute links evaluations to courses and fills every aggregate field.
func (a *AggregateComputer) Compute(in AggregateInput) AggregateOutput {
	report := models.NewReport()

	questions := a.questionCatalog(in.Evaluations, report)
	tables := a.linkEvaluations(in.Listings, in.Evaluations, questions, report)
	stats := tables.statistics
	statsByCourse := make(map[int64]models.EvaluationStatistics, len(stats))
	for _, s := range stats {
		statsByCourse[s.CourseID] = s
	}

	professors := a.professorAggregates(in.Professors, in.CourseProfessors, statsByCourse)
	profRating := make(map[int64]*float64, len(professors))
	for _, p := range professors {
		profRating[p.ID] = p.AverageRating
	}

	courses := a.courseAggregates(in.Courses, statsByCourse, profRating)

	return AggregateOutput{
		Courses:    courses,
		Professors: professors,
		Statistics: stats,
		Questions:  questions,
		Ratings:    tables.ratings,
		Narratives: tables.narratives,
		Report:     report,
	}
}

// questionCatalog keeps one question per code, taken from the most recent
// season (smallest CRN within it). Codes used both as rating and narrative
// questions, or whose texts diverge, are counted as inconsistencies.
func (a *AggregateComputer) questionCatalog(evals []models.RawEvaluation, report *models.Report) []models.EvaluationQuestion {
	ordered := slices.Clone(evals)
	slices.SortStableFunc(ordered, func(x, y models.RawEvaluation) int {
		if d := cmp.Compare(y.SeasonCode, x.SeasonCode); d != 0 {
			return d
		}
		return cmp.Compare(x.CRN, y.CRN)
	})

	latest := make(map[string]models.EvaluationQuestion)
	kinds := make(map[string]map[bool]bool)
	texts := make(map[string]map[string]bool)
	for _, e := range ordered {
		for _, q := range e.Questions {
			if q.QuestionCode == "" {
				continue
			}
			if kinds[q.QuestionCode] == nil {
				kinds[q.QuestionCode] = make(map[bool]bool)
				texts[q.QuestionCode] = make(map[string]bool)
			}
			kinds[q.QuestionCode][q.IsNarrative] = true
			texts[q.QuestionCode][stripBoilerplate(q.QuestionText)] = true

			if _, ok := latest[q.QuestionCode]; ok {
				continue
			}
			options := q.Options
			if options == nil {
				options = []string{}
			}
			latest[q.QuestionCode] = models.EvaluationQuestion{
				QuestionCode: q.QuestionCode,
				IsNarrative:  q.IsNarrative,
				QuestionText: q.QuestionText,
				Options:      slices.Clone(options),
				Tag:          q.Tag,
			}
		}
	}

	out := make([]models.EvaluationQuestion, 0, len(latest))
	for _, code := range slices.Sorted(maps.Keys(latest)) {
		if len(kinds[code]) > 1 {
			a.log.Warn().Str("question", code).Msg("Question code is used for both ratings and narratives")
			report.Inconsistency(models.InconsistentQuestionKind, 1)
		}
		if d := maxPairwiseDistance(texts[code]); d >= questionDivergenceCutoff {
			a.log.Warn().Str("question", code).Int("distance", d).Msg("Question code has divergent texts")
			report.Inconsistency(models.InconsistentQuestionText, 1)
		}
		out = append(out, latest[code])
	}
	return out
}

func stripBoilerplate(text string) string {
	for _, b := range questionBoilerplate {
		text = strings.ReplaceAll(text, b, "")
	}
	return text
}

func maxPairwiseDistance(set map[string]bool) int {
	texts := slices.Sorted(maps.Keys(set))
	best := 0
	for i := range texts {
		for j := i + 1; j < len(texts); j++ {
			best = max(best, textdist.Levenshtein(texts[i], texts[j]))
		}
	}
	return best
}

// linkEvaluations maps evaluations to courses through (season, crn). Counts
// come from the record of the smallest CRN of a course. Rating questions are
// deduplicated by question code and narratives by (code, comment), first
// occurrence wins. Answers whose kind disagrees with the catalog are skipped.
func (a *AggregateComputer) linkEvaluations(listings []models.Listing, evals []models.RawEvaluation, questions []models.EvaluationQuestion, report *models.Report) evaluationTables {
	narrativeCode := make(map[string]bool, len(questions))
	for _, q := range questions {
		narrativeCode[q.QuestionCode] = q.IsNarrative
	}

	courseOf := make(map[listingKey]int64, len(listings))
	for _, l := range listings {
		courseOf[listingKey{season: l.SeasonCode, crn: l.CRN}] = l.CourseID
	}

	byCourse := make(map[int64][]models.RawEvaluation)
	for _, e := range evals {
		courseID, ok := courseOf[listingKey{season: e.SeasonCode, crn: e.CRN}]
		if !ok {
			a.log.Warn().Str("season", e.SeasonCode).Int64("crn", e.CRN).Msg("Dropping evaluation without a listing")
			report.Drop(models.DropUnlinkedEvaluation, 1)
			continue
		}
		byCourse[courseID] = append(byCourse[courseID], e)
	}

	courseIDs := make([]int64, 0, len(byCourse))
	for id := range byCourse {
		courseIDs = append(courseIDs, id)
	}
	slices.Sort(courseIDs)

	var tables evaluationTables
	tables.statistics = make([]models.EvaluationStatistics, 0, len(courseIDs))
	for _, courseID := range courseIDs {
		records := byCourse[courseID]
		slices.SortStableFunc(records, func(x, y models.RawEvaluation) int { return cmp.Compare(x.CRN, y.CRN) })

		first := records[0]
		stat := models.EvaluationStatistics{
			CourseID:   courseID,
			Enrollment: first.Enrollment,
			Enrolled:   first.Enrolled,
			Responses:  first.Responses,
			Declined:   first.Declined,
			NoResponse: first.NoResponse,
		}

		var overall, workload [ratingOptions]int
		seenQuestion := make(map[string]bool)
		seenComment := make(map[[2]string]bool)
		for _, rec := range records {
			for _, q := range rec.Questions {
				if q.QuestionCode == "" {
					report.Drop(models.DropMalformedQuestion, 1)
					continue
				}
				if q.IsNarrative != narrativeCode[q.QuestionCode] {
					continue
				}
				if q.IsNarrative {
					for _, comment := range q.Narratives {
						comment = strings.TrimSpace(comment)
						key := [2]string{q.QuestionCode, comment}
						if utf8.RuneCountInString(comment) <= minCommentLength || seenComment[key] {
							continue
						}
						seenComment[key] = true
						tables.narratives = append(tables.narratives, models.EvaluationNarrative{
							ID:           int64(len(tables.narratives) + 1),
							CourseID:     courseID,
							QuestionCode: q.QuestionCode,
							Comment:      comment,
						})
					}
					continue
				}

				if seenQuestion[q.QuestionCode] {
					continue
				}
				seenQuestion[q.QuestionCode] = true

				tagged := q.Tag == models.TagOverall || q.Tag == models.TagWorkload
				if tagged && len(q.Counts) != ratingOptions {
					a.log.Warn().Int64("course_id", courseID).Str("question", q.QuestionCode).
						Int("options", len(q.Counts)).Msg("Dropping rating question with malformed counts")
					report.Drop(models.DropMalformedQuestion, 1)
					continue
				}
				if len(q.Counts) == 0 {
					continue
				}
				tables.ratings = append(tables.ratings, models.EvaluationRating{
					ID:           int64(len(tables.ratings) + 1),
					CourseID:     courseID,
					QuestionCode: q.QuestionCode,
					Rating:       slices.Clone(q.Counts),
				})
				if !tagged {
					continue
				}

				target := &overall
				if q.Tag == models.TagWorkload {
					target = &workload
				}
				for k, n := range q.Counts {
					target[k] += n
				}
			}
		}
		stat.AvgRating = WeightedMean(overall[:])
		stat.AvgWorkload = WeightedMean(workload[:])
		tables.statistics = append(tables.statistics, stat)
	}
	return tables
}

// WeightedMean returns the mean option value of a count vector whose k-th
// entry counts answers of value k+1. No answers yields nil.
func WeightedMean(counts []int) *float64 {
	total, weighted := 0, 0
	for k, n := range counts {
		total += n
		weighted += (k + 1) * n
	}
	if total == 0 {
		return nil
	}
	mean := float64(weighted) / float64(total)
	return &mean
}

// mean averages the non-nil values; n is how many there were.
func mean(values []*float64) (*float64, int) {
	sum, n := 0.0, 0
	for _, v := range values {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil, 0
	}
	m := sum / float64(n)
	return &m, n
}

func (a *AggregateComputer) professorAggregates(professors []models.Professor, junction []models.CourseProfessor, stats map[int64]models.EvaluationStatistics) []models.Professor {
	courses := make(map[int64][]int64)
	for _, cp := range junction {
		courses[cp.ProfessorID] = append(courses[cp.ProfessorID], cp.CourseID)
	}

	out := make([]models.Professor, len(professors))
	for i, p := range professors {
		taught := courses[p.ID]
		ratings := make([]*float64, 0, len(taught))
		for _, courseID := range taught {
			ratings = append(ratings, stats[courseID].AvgRating)
		}
		p.AverageRating, p.AverageRatingN = mean(ratings)
		p.CoursesTaught = len(taught)
		out[i] = p
	}
	return out
}

type offering struct {
	id         int64
	season     string
	profKey    string
	enrollment *int
}

func (a *AggregateComputer) courseAggregates(courses []models.Course, stats map[int64]models.EvaluationStatistics, profRating map[int64]*float64) []models.Course {
	sameCourse := make(map[int64][]models.Course)
	sameProfs := make(map[int64][]models.Course)
	for _, c := range courses {
		sameCourse[c.SameCourseID] = append(sameCourse[c.SameCourseID], c)
		sameProfs[c.SameCourseAndProfsID] = append(sameProfs[c.SameCourseAndProfsID], c)
	}

	groupMean := func(members []models.Course, workload bool) (*float64, int) {
		values := make([]*float64, len(members))
		for i, m := range members {
			if workload {
				values[i] = stats[m.ID].AvgWorkload
			} else {
				values[i] = stats[m.ID].AvgRating
			}
		}
		return mean(values)
	}

	out := make([]models.Course, len(courses))
	for i, c := range courses {
		var agg models.CourseAggregates

		agg.AverageRating, agg.AverageRatingN = groupMean(sameCourse[c.SameCourseID], false)
		agg.AverageWorkload, agg.AverageWorkloadN = groupMean(sameCourse[c.SameCourseID], true)
		agg.AverageRatingSameProfessors, agg.AverageRatingSameProfessorsN = groupMean(sameProfs[c.SameCourseAndProfsID], false)
		agg.AverageWorkloadSameProfessors, agg.AverageWorkloadSameProfessorsN = groupMean(sameProfs[c.SameCourseAndProfsID], true)

		if agg.AverageRating != nil && agg.AverageWorkload != nil {
			gut := *agg.AverageRating - *agg.AverageWorkload
			agg.AverageGutRating = &gut
		}

		ratings := make([]*float64, 0, len(c.ProfessorIDs))
		for _, pid := range c.ProfessorIDs {
			ratings = append(ratings, profRating[pid])
		}
		agg.AverageProfessorRating, _ = mean(ratings)

		a.fillLastOffered(&agg, c, sameCourse[c.SameCourseID], stats)

		c.CourseAggregates = agg
		out[i] = c
	}
	return out
}

// fillLastOffered looks at strictly earlier offerings of the same-course
// group, newest first with ties going to the smaller course ID.
func (a *AggregateComputer) fillLastOffered(agg *models.CourseAggregates, c models.Course, group []models.Course, stats map[int64]models.EvaluationStatistics) {
	own := professorSetKey(c.ProfessorIDs)

	var earlier []offering
	for _, m := range group {
		if m.ID == c.ID || m.SeasonCode >= c.SeasonCode {
			continue
		}
		earlier = append(earlier, offering{
			id:         m.ID,
			season:     m.SeasonCode,
			profKey:    professorSetKey(m.ProfessorIDs),
			enrollment: stats[m.ID].Enrolled,
		})
	}
	if len(earlier) == 0 {
		return
	}
	slices.SortFunc(earlier, func(x, y offering) int {
		if d := cmp.Compare(y.season, x.season); d != 0 {
			return d
		}
		return cmp.Compare(x.id, y.id)
	})

	lastID := earlier[0].id
	agg.LastOfferedCourseID = &lastID

	var newest, newestSameProfs *offering
	for i := range earlier {
		o := &earlier[i]
		if o.enrollment == nil {
			continue
		}
		if newest == nil {
			newest = o
		}
		if newestSameProfs == nil && o.profKey == own {
			newestSameProfs = o
		}
	}

	if newestSameProfs != nil {
		id, season := newestSameProfs.id, newestSameProfs.season
		agg.LastSameProfessorsCourseID = &id
		agg.LastSameProfessorsEnrollment = newestSameProfs.enrollment
		agg.LastSameProfessorsSeasonCode = &season
	}

	// the enrollment lookup prefers an offering by the same professors
	pick := newestSameProfs
	if pick == nil {
		pick = newest
	}
	if pick == nil {
		return
	}
	id, season := pick.id, pick.season
	same := pick.profKey == own
	agg.LastEnrollmentCourseID = &id
	agg.LastEnrollment = pick.enrollment
	agg.LastEnrollmentSeasonCode = &season
	agg.LastEnrollmentSameProfessors = &same
}
