package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/metrics"
	"github.com/coursetable/ferry/internal/pkg/apperrors"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	SeasonWorkers int
	PrimarySchool string
	Matching      MatchingOptions
}

// DefaultPipelineOptions returns the options used when nothing is configured.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		SeasonWorkers: 4,
		PrimarySchool: DefaultPrimarySchool,
		Matching:      DefaultMatchingOptions(),
	}
}

// Pipeline runs the whole resolution from a raw corpus to a Result. Every run
// rebuilds all entities from scratch.
type Pipeline struct {
	opts        PipelineOptions
	normalizer  *ListingNormalizer
	crossLister *CrossListingResolver
	professors  *ProfessorResolver
	matcher     *SameCourseMatcher
	aggregates  *AggregateComputer
	log         zerolog.Logger
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	if opts.SeasonWorkers < 1 {
		opts.SeasonWorkers = 1
	}
	return &Pipeline{
		opts:        opts,
		normalizer:  NewListingNormalizer(opts.PrimarySchool),
		crossLister: NewCrossListingResolver(),
		professors:  NewProfessorResolver(),
		matcher:     NewSameCourseMatcher(opts.Matching),
		aggregates:  NewAggregateComputer(),
		log:         logger.Component("pipeline"),
	}
}

// seasonResult is the output of the per-season stage.
type seasonResult struct {
	season      models.Season
	courses     SeasonCourses
	refs        []models.ProfessorRef
	evaluations []models.RawEvaluation
	report      *models.Report
	err         error
}

// Run resolves the corpus. Seasons whose data is absent are skipped and
// listed in the report; only context cancellation fails the run.
func (p *Pipeline) Run(ctx context.Context, corpus models.Corpus) (*models.Result, error) {
	started := time.Now()
	report := models.NewReport()

	inputs := slices.Clone(corpus.Seasons)
	slices.SortStableFunc(inputs, func(a, b models.SeasonInput) int { return cmp.Compare(a.SeasonCode, b.SeasonCode) })

	// stage 1: per season, concurrently
	stageStart := time.Now()
	seasons := make([]seasonResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.SeasonWorkers)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seasons[i] = p.resolveSeason(in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolving seasons: %w", err)
	}
	metrics.ObserveStage("seasons", stageStart)

	var processed []seasonResult
	for _, s := range seasons {
		report.Merge(s.report)
		if s.err != nil {
			var serr *apperrors.SeasonError
			reason := s.err.Error()
			if errors.As(s.err, &serr) {
				reason = serr.Err.Error()
			}
			p.log.Warn().Err(s.err).Str("season", s.courses.SeasonCode).Msg("Skipping season")
			report.Skip(s.courses.SeasonCode, reason)
			continue
		}
		processed = append(processed, s)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// stage 2: barrier, global numbering
	result, refs, evaluations := assemble(processed)

	// stage 3: professor identities
	stageStart = time.Now()
	resolution := p.professors.Resolve(refs)
	profsByCourse := make(map[int64][]int64)
	for _, cp := range resolution.CourseProfessors {
		profsByCourse[cp.CourseID] = append(profsByCourse[cp.CourseID], cp.ProfessorID)
	}
	for i := range result.Courses {
		result.Courses[i].ProfessorIDs = profsByCourse[result.Courses[i].ID]
	}
	metrics.ObserveStage("professors", stageStart)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// stage 4: same-course matching
	stageStart = time.Now()
	matchInput := make([]MatchCourse, len(result.Courses))
	for i, c := range result.Courses {
		matchInput[i] = MatchCourse{ID: c.ID, Codes: c.Codes, Title: c.Title, Description: c.Description}
	}
	partition, err := p.matcher.Match(ctx, matchInput)
	if err != nil {
		return nil, err
	}
	sameProfs, sameProfGroups := p.matcher.SplitByProfessors(partition.SameCourse, resolution.CourseProfessors)
	for i := range result.Courses {
		id := result.Courses[i].ID
		result.Courses[i].CodeGroupID = partition.CodeGroup[id]
		result.Courses[i].SameCourseID = partition.SameCourse[id]
		result.Courses[i].SameCourseAndProfsID = sameProfs[id]
	}
	metrics.ObserveStage("same_courses", stageStart)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// stage 5: evaluations and aggregates
	stageStart = time.Now()
	out := p.aggregates.Compute(AggregateInput{
		Courses:          result.Courses,
		Listings:         result.Listings,
		Professors:       resolution.Professors,
		CourseProfessors: resolution.CourseProfessors,
		Evaluations:      evaluations,
	})
	report.Merge(out.Report)
	result.Courses = out.Courses
	result.Professors = out.Professors
	result.CourseProfessors = resolution.CourseProfessors
	result.Evaluations = out.Statistics
	result.Questions = out.Questions
	result.Ratings = out.Ratings
	result.Narratives = out.Narratives
	metrics.ObserveStage("aggregates", stageStart)

	// stage 6: summary
	report.Seasons = len(result.Seasons)
	report.Listings = len(result.Listings)
	report.Courses = len(result.Courses)
	report.Professors = len(result.Professors)
	report.CodeGroups = partition.CodeGroups
	report.SameCourseGroups = partition.Groups
	report.SameCourseProfs = sameProfGroups
	report.EvaluatedCourses = len(result.Evaluations)
	report.DurationMillis = time.Since(started).Milliseconds()
	report.CompletedAt = time.Now().UTC()
	result.Report = report

	p.logReport(report)
	metrics.ObserveReport(report)

	return result, nil
}

// resolveSeason normalizes, cross-lists and backfills one season.
func (p *Pipeline) resolveSeason(in models.SeasonInput) seasonResult {
	res := seasonResult{
		courses: SeasonCourses{SeasonCode: in.SeasonCode},
		report:  models.NewReport(),
	}

	season, err := models.ParseSeason(in.SeasonCode)
	if err != nil {
		res.err = &apperrors.SeasonError{SeasonCode: in.SeasonCode, Err: err}
		return res
	}
	res.season = season

	if !in.ListingsFound || len(in.Listings) == 0 {
		res.err = apperrors.NewSeasonMissingError(in.SeasonCode, "no listings")
		return res
	}

	listings, normReport := p.normalizer.NormalizeSeason(in.SeasonCode, in.Listings)
	res.report.Merge(normReport)

	res.courses = p.crossLister.ResolveSeason(in.SeasonCode, listings)
	res.report.Merge(res.courses.Report)

	var refs []models.ProfessorRef
	for ci, course := range res.courses.Courses {
		for _, ins := range courseInstructors(course) {
			refs = append(refs, models.ProfessorRef{
				SeasonCode: in.SeasonCode,
				CourseID:   int64(ci),
				Name:       ins.Name,
				Email:      ins.Email,
			})
		}
	}
	backfilled, stats := p.professors.Backfill(refs)
	res.refs = backfilled
	res.report.Drop(models.DropEmptyIdentity, stats.Dropped)
	res.report.Ambiguity(models.AmbiguousProfessorEmail, stats.Ambiguous)

	res.evaluations = in.Evaluations

	p.log.Debug().
		Str("season", in.SeasonCode).
		Int("listings", len(listings)).
		Int("courses", len(res.courses.Courses)).
		Int("instructor_refs", len(backfilled)).
		Int("emails_filled", stats.Filled).
		Msg("Resolved season")

	return res
}

// courseInstructors lists the instructors of a cross-listed course: the
// representative's first, then any others named only on sibling listings.
func courseInstructors(c SeasonCourse) []models.InstructorRef {
	out := slices.Clone(c.Representative.Attributes.Instructors)
	for _, l := range c.Listings {
		if l.CRN == c.Representative.CRN {
			continue
		}
		for _, ins := range l.Attributes.Instructors {
			if !slices.Contains(out, ins) {
				out = append(out, ins)
			}
		}
	}
	return out
}

// assemble numbers courses and listings in season order, then component
// order, and rewrites the season-local course indices of the references.
func assemble(seasons []seasonResult) (*models.Result, []models.ProfessorRef, []models.RawEvaluation) {
	result := &models.Result{}
	var refs []models.ProfessorRef
	var evaluations []models.RawEvaluation

	flagIDs := make(map[string]int64)
	var flagTexts []string
	var courseFlagTexts [][]string

	var courseID, listingID int64
	for _, s := range seasons {
		result.Seasons = append(result.Seasons, s.season)
		base := courseID

		for _, sc := range s.courses.Courses {
			courseID++
			course := models.Course{
				ID:               courseID,
				SeasonCode:       s.courses.SeasonCode,
				CourseAttributes: sc.Representative.Attributes,
				Codes:            sc.Codes(),
			}
			for _, l := range sc.Listings {
				listingID++
				l.ID = listingID
				l.CourseID = courseID
				result.Listings = append(result.Listings, l)
				course.CRNs = append(course.CRNs, l.CRN)
				course.ListingIDs = append(course.ListingIDs, listingID)
			}
			for _, f := range course.Flags {
				if _, ok := flagIDs[f]; !ok {
					flagIDs[f] = 0
					flagTexts = append(flagTexts, f)
				}
			}
			courseFlagTexts = append(courseFlagTexts, course.Flags)
			result.Courses = append(result.Courses, course)
		}

		for _, ref := range s.refs {
			ref.CourseID += base + 1
			refs = append(refs, ref)
		}
		evaluations = append(evaluations, s.evaluations...)
	}

	// flags are numbered alphabetically
	slices.Sort(flagTexts)
	for i, text := range flagTexts {
		flagIDs[text] = int64(i + 1)
		result.Flags = append(result.Flags, models.Flag{ID: int64(i + 1), Text: text})
	}
	for i, texts := range courseFlagTexts {
		for _, text := range texts {
			result.CourseFlags = append(result.CourseFlags, models.CourseFlag{
				CourseID: result.Courses[i].ID,
				FlagID:   flagIDs[text],
			})
		}
	}

	return result, refs, evaluations
}

func (p *Pipeline) logReport(r *models.Report) {
	ev := p.log.Info().
		Int("seasons", r.Seasons).
		Int("skipped_seasons", len(r.SkippedSeasons)).
		Int("listings", r.Listings).
		Int("courses", r.Courses).
		Int("professors", r.Professors).
		Int("same_course_groups", r.SameCourseGroups).
		Int("evaluated_courses", r.EvaluatedCourses).
		Int("dropped", r.TotalDropped()).
		Int64("duration_ms", r.DurationMillis)
	for _, reason := range models.Reasons(r.Dropped) {
		ev = ev.Int("dropped_"+reason, r.Dropped[reason])
	}
	for _, kind := range models.Reasons(r.Inconsistent) {
		ev = ev.Int("inconsistent_"+kind, r.Inconsistent[kind])
	}
	for _, kind := range models.Reasons(r.Ambiguous) {
		ev = ev.Int("ambiguous_"+kind, r.Ambiguous[kind])
	}
	ev.Msg("Pipeline run finished")
}
