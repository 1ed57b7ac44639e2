package repositories

import (
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/google/uuid"
)

func sampleResult() *models.Result {
	email := "ada@yale.edu"
	rating := 4.5
	return &models.Result{
		Seasons: []models.Season{{Code: "202401", Term: models.TermSpring, Year: 2024}},
		Courses: []models.Course{{
			ID:         1,
			SeasonCode: "202401",
			CourseAttributes: models.CourseAttributes{
				Title:      "Intro to Computing",
				Skills:     []string{"QR"},
				TimesByDay: map[string][][]string{"Monday": {{"9:00", "10:15", "DL 220"}}},
			},
			CodeGroupID:          1,
			SameCourseID:         1,
			SameCourseAndProfsID: 1,
			CourseAggregates:     models.CourseAggregates{AverageRating: &rating, AverageRatingN: 1},
		}, {
			ID:         2,
			SeasonCode: "202401",
		}},
		Listings: []models.Listing{
			{ID: 1, CourseID: 1, SeasonCode: "202401", Subject: "CPSC", Number: "201", CourseCode: "CPSC 201", Section: "1", CRN: 100, CrossListedCRNs: []int64{101}},
			{ID: 2, CourseID: 2, SeasonCode: "202401", Subject: "HIST", Number: "101", CourseCode: "HIST 101", Section: "1", CRN: 200},
		},
		Professors:       []models.Professor{{ID: 1, Name: "Ada", Email: &email}},
		CourseProfessors: []models.CourseProfessor{{CourseID: 1, ProfessorID: 1}},
		Flags:            []models.Flag{{ID: 1, Text: "Writing"}},
		CourseFlags:      []models.CourseFlag{{CourseID: 1, FlagID: 1}},
		Evaluations:      []models.EvaluationStatistics{{CourseID: 1, AvgRating: &rating}},
		Questions: []models.EvaluationQuestion{
			{QuestionCode: "YC401", QuestionText: "Overall assessment", Options: []string{"poor", "fair", "good", "very good", "excellent"}, Tag: models.TagOverall},
			{QuestionCode: "YC409", IsNarrative: true, QuestionText: "Comments"},
		},
		Ratings:    []models.EvaluationRating{{ID: 1, CourseID: 1, QuestionCode: "YC401", Rating: []int{0, 1, 1, 3, 7}}},
		Narratives: []models.EvaluationNarrative{{ID: 1, CourseID: 1, QuestionCode: "YC409", Comment: "Great course"}},
	}
}

func TestSnapshotTablesShape(t *testing.T) {
	tables := snapshotTables(sampleResult())

	var names []string
	for _, table := range tables {
		names = append(names, table.name)
		for i, row := range table.rows {
			if len(row) != len(table.columns) {
				t.Errorf("%s row %d has %d values for %d columns", table.name, i, len(row), len(table.columns))
			}
		}
	}

	// every loaded table is truncated, and parents load before children
	reversed := slices.Clone(truncateOrder)
	slices.Reverse(reversed)
	if !reflect.DeepEqual(names, reversed) {
		t.Errorf("Expected load order %v but actual=%v", reversed, names)
	}
}

func TestCourseRowsNulls(t *testing.T) {
	rows := courseRows(sampleResult().Courses).rows
	columns := courseRows(nil).columns
	col := func(name string) int { return slices.Index(columns, name) }

	full, bare := rows[0], rows[1]
	if full[col("times_by_day")] == nil {
		t.Errorf("Expected a schedule to be kept")
	}
	if bare[col("times_by_day")] != nil {
		t.Errorf("Expected an empty schedule to be NULL but actual=%v", bare[col("times_by_day")])
	}
	if v, ok := bare[col("syllabus_url")].(*string); !ok || v != nil {
		t.Errorf("Expected an empty syllabus URL to be NULL but actual=%v", bare[col("syllabus_url")])
	}
	if v, ok := bare[col("skills")].([]string); !ok || v == nil {
		t.Errorf("Expected skills to be an empty array but actual=%v", bare[col("skills")])
	}
	if v, ok := bare[col("average_rating")].(*float64); !ok || v != nil {
		t.Errorf("Expected a missing rating to be NULL but actual=%v", bare[col("average_rating")])
	}
}

func TestListingRowsCrossListings(t *testing.T) {
	rows := listingRows(sampleResult().Listings).rows
	last := len(rows[0]) - 1
	if !reflect.DeepEqual(rows[0][last], []int64{101}) {
		t.Errorf("Unexpected cross-listings: %v", rows[0][last])
	}
	if v, ok := rows[1][last].([]int64); !ok || v == nil || len(v) != 0 {
		t.Errorf("Expected an empty array but actual=%v", rows[1][last])
	}
}

func TestEvaluationAnswerRows(t *testing.T) {
	result := sampleResult()

	questions := questionRows(result.Questions).rows
	if len(questions) != 2 {
		t.Fatalf("Expected 2 question rows but actual=%v", len(questions))
	}
	if v, ok := questions[1][3].([]string); !ok || v == nil || len(v) != 0 {
		t.Errorf("Expected narrative options to be an empty array but actual=%v", questions[1][3])
	}
	if v, ok := questions[1][4].(*string); !ok || v != nil {
		t.Errorf("Expected a missing tag to be NULL but actual=%v", questions[1][4])
	}

	ratings := ratingRows(result.Ratings).rows
	if len(ratings) != 1 || !reflect.DeepEqual(ratings[0][3], []int{0, 1, 1, 3, 7}) {
		t.Errorf("Unexpected rating rows: %v", ratings)
	}
	narratives := narrativeRows(result.Narratives).rows
	if len(narratives) != 1 || narratives[0][3] != "Great course" {
		t.Errorf("Unexpected narrative rows: %v", narratives)
	}
}

func TestRunQueries(t *testing.T) {
	r := NewRunRepository(nil)
	run := &models.PipelineRun{
		ID:        uuid.MustParse("6f1c2a4e-8a3b-4c1d-9e2f-0a1b2c3d4e5f"),
		Status:    models.RunRunning,
		Trigger:   "api",
		StartedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	sql, args, err := r.insertQuery(run)
	if err != nil {
		t.Fatalf("insertQuery: %s", err)
	}
	if !strings.HasPrefix(sql, "INSERT INTO pipeline_runs") || !strings.Contains(sql, "$5") {
		t.Errorf("Unexpected insert SQL: %s", sql)
	}
	if len(args) != 5 || args[1] != "RUNNING" {
		t.Errorf("Unexpected insert args: %v", args)
	}

	finished := time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC)
	run.Status = models.RunSucceeded
	run.FinishedAt = &finished
	run.Report = models.NewReport()
	run.Report.Courses = 3

	sql, args, err = r.finishQuery(run)
	if err != nil {
		t.Fatalf("finishQuery: %s", err)
	}
	if !strings.HasPrefix(sql, "UPDATE pipeline_runs SET") || !strings.Contains(sql, "WHERE id = $6") {
		t.Errorf("Unexpected update SQL: %s", sql)
	}
	var report []byte
	for _, a := range args {
		if b, ok := a.([]byte); ok {
			report = b
		}
	}
	if !strings.Contains(string(report), `"courses":3`) {
		t.Errorf("Expected the report to be stored as JSON, got %s", report)
	}
}
