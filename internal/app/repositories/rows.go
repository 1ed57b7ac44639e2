package repositories

import (
	"github.com/coursetable/ferry/internal/app/models"
)

// tableRows is the bulk-load input of one output table.
type tableRows struct {
	name    string
	columns []string
	rows    [][]any
}

// snapshotTables turns a result into rows, in an order that satisfies the
// foreign keys of the schema.
func snapshotTables(result *models.Result) []tableRows {
	return []tableRows{
		seasonRows(result.Seasons),
		courseRows(result.Courses),
		professorRows(result.Professors),
		listingRows(result.Listings),
		courseProfessorRows(result.CourseProfessors),
		flagRows(result.Flags),
		courseFlagRows(result.CourseFlags),
		evaluationRows(result.Evaluations),
		questionRows(result.Questions),
		ratingRows(result.Ratings),
		narrativeRows(result.Narratives),
	}
}

// truncateOrder lists the output tables children first.
var truncateOrder = []string{
	"evaluation_narratives",
	"evaluation_ratings",
	"evaluation_questions",
	"evaluation_statistics",
	"course_flags",
	"flags",
	"course_professors",
	"listings",
	"professors",
	"courses",
	"seasons",
}

func seasonRows(seasons []models.Season) tableRows {
	t := tableRows{name: "seasons", columns: []string{"season_code", "term", "year"}}
	for _, s := range seasons {
		t.rows = append(t.rows, []any{s.Code, string(s.Term), s.Year})
	}
	return t
}

func courseRows(courses []models.Course) tableRows {
	t := tableRows{name: "courses", columns: []string{
		"course_id", "season_code", "title", "short_title", "description", "school", "credits",
		"requirements", "skills", "areas", "times_by_day", "syllabus_url",
		"code_group_id", "same_course_id", "same_course_and_profs_id",
		"average_rating", "average_rating_n", "average_workload", "average_workload_n",
		"average_rating_same_professors", "average_rating_same_professors_n",
		"average_workload_same_professors", "average_workload_same_professors_n",
		"average_gut_rating", "average_professor_rating",
		"last_offered_course_id", "last_enrollment_course_id", "last_enrollment",
		"last_enrollment_season_code", "last_enrollment_same_professors",
		"last_same_professors_course_id", "last_same_professors_enrollment",
		"last_same_professors_season_code",
	}}
	for _, c := range courses {
		a := c.CourseAggregates
		t.rows = append(t.rows, []any{
			c.ID, c.SeasonCode, c.Title, c.ShortTitle, c.Description, c.School, c.Credits,
			c.Requirements, nonNilStrings(c.Skills), nonNilStrings(c.Areas), timesByDay(c.TimesByDay), nullString(c.SyllabusURL),
			c.CodeGroupID, c.SameCourseID, c.SameCourseAndProfsID,
			a.AverageRating, a.AverageRatingN, a.AverageWorkload, a.AverageWorkloadN,
			a.AverageRatingSameProfessors, a.AverageRatingSameProfessorsN,
			a.AverageWorkloadSameProfessors, a.AverageWorkloadSameProfessorsN,
			a.AverageGutRating, a.AverageProfessorRating,
			a.LastOfferedCourseID, a.LastEnrollmentCourseID, a.LastEnrollment,
			a.LastEnrollmentSeasonCode, a.LastEnrollmentSameProfessors,
			a.LastSameProfessorsCourseID, a.LastSameProfessorsEnrollment,
			a.LastSameProfessorsSeasonCode,
		})
	}
	return t
}

func listingRows(listings []models.Listing) tableRows {
	t := tableRows{name: "listings", columns: []string{
		"listing_id", "course_id", "season_code", "subject", "number", "course_code",
		"section", "crn", "school", "cross_listed_crns",
	}}
	for _, l := range listings {
		crns := l.CrossListedCRNs
		if crns == nil {
			crns = []int64{}
		}
		t.rows = append(t.rows, []any{
			l.ID, l.CourseID, l.SeasonCode, l.Subject, l.Number, l.CourseCode,
			l.Section, l.CRN, l.School, crns,
		})
	}
	return t
}

func professorRows(professors []models.Professor) tableRows {
	t := tableRows{name: "professors", columns: []string{
		"professor_id", "name", "email", "average_rating", "average_rating_n", "courses_taught",
	}}
	for _, p := range professors {
		t.rows = append(t.rows, []any{p.ID, p.Name, p.Email, p.AverageRating, p.AverageRatingN, p.CoursesTaught})
	}
	return t
}

func courseProfessorRows(links []models.CourseProfessor) tableRows {
	t := tableRows{name: "course_professors", columns: []string{"course_id", "professor_id"}}
	for _, cp := range links {
		t.rows = append(t.rows, []any{cp.CourseID, cp.ProfessorID})
	}
	return t
}

func flagRows(flags []models.Flag) tableRows {
	t := tableRows{name: "flags", columns: []string{"flag_id", "flag_text"}}
	for _, f := range flags {
		t.rows = append(t.rows, []any{f.ID, f.Text})
	}
	return t
}

func courseFlagRows(links []models.CourseFlag) tableRows {
	t := tableRows{name: "course_flags", columns: []string{"course_id", "flag_id"}}
	for _, cf := range links {
		t.rows = append(t.rows, []any{cf.CourseID, cf.FlagID})
	}
	return t
}

func evaluationRows(stats []models.EvaluationStatistics) tableRows {
	t := tableRows{name: "evaluation_statistics", columns: []string{
		"course_id", "enrollment", "enrolled", "responses", "declined", "no_response",
		"avg_rating", "avg_workload",
	}}
	for _, s := range stats {
		t.rows = append(t.rows, []any{
			s.CourseID, s.Enrollment, s.Enrolled, s.Responses, s.Declined, s.NoResponse,
			s.AvgRating, s.AvgWorkload,
		})
	}
	return t
}

func questionRows(questions []models.EvaluationQuestion) tableRows {
	t := tableRows{name: "evaluation_questions", columns: []string{
		"question_code", "is_narrative", "question_text", "options", "tag",
	}}
	for _, q := range questions {
		t.rows = append(t.rows, []any{q.QuestionCode, q.IsNarrative, q.QuestionText, nonNilStrings(q.Options), nullString(q.Tag)})
	}
	return t
}

func ratingRows(ratings []models.EvaluationRating) tableRows {
	t := tableRows{name: "evaluation_ratings", columns: []string{"id", "course_id", "question_code", "rating"}}
	for _, r := range ratings {
		t.rows = append(t.rows, []any{r.ID, r.CourseID, r.QuestionCode, r.Rating})
	}
	return t
}

func narrativeRows(narratives []models.EvaluationNarrative) tableRows {
	t := tableRows{name: "evaluation_narratives", columns: []string{"id", "course_id", "question_code", "comment"}}
	for _, n := range narratives {
		t.rows = append(t.rows, []any{n.ID, n.CourseID, n.QuestionCode, n.Comment})
	}
	return t
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNilStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// timesByDay keeps empty schedules NULL rather than an empty JSON object.
func timesByDay(times map[string][][]string) any {
	if len(times) == 0 {
		return nil
	}
	return times
}
