package models

// Question tags consumed from the upstream classifier.
const (
	TagOverall  = "Overall"
	TagWorkload = "Workload"
)

// EvaluationStatistics are the evaluation counts of one course plus the
// weighted ratings computed from its tagged questions.
type EvaluationStatistics struct {
	CourseID    int64    `json:"courseId" db:"course_id"`
	Enrollment  *int     `json:"enrollment" db:"enrollment"`
	Enrolled    *int     `json:"enrolled" db:"enrolled"`
	Responses   *int     `json:"responses" db:"responses"`
	Declined    *int     `json:"declined" db:"declined"`
	NoResponse  *int     `json:"noResponse" db:"no_response"`
	AvgRating   *float64 `json:"avgRating" db:"avg_rating"`
	AvgWorkload *float64 `json:"avgWorkload" db:"avg_workload"`
}

// EvaluationQuestion is one question code with the text of its most recent
// season. A code is either a rating or a narrative question.
type EvaluationQuestion struct {
	QuestionCode string   `json:"questionCode" db:"question_code"`
	IsNarrative  bool     `json:"isNarrative" db:"is_narrative"`
	QuestionText string   `json:"questionText" db:"question_text"`
	Options      []string `json:"options" db:"options"`
	Tag          string   `json:"tag" db:"tag"`
}

// EvaluationRating is the answer distribution of one rating question for one
// course: Rating[k] counts answers of option k.
type EvaluationRating struct {
	ID           int64  `json:"id" db:"id"`
	CourseID     int64  `json:"courseId" db:"course_id"`
	QuestionCode string `json:"questionCode" db:"question_code"`
	Rating       []int  `json:"rating" db:"rating"`
}

// EvaluationNarrative is one written answer to a narrative question.
type EvaluationNarrative struct {
	ID           int64  `json:"id" db:"id"`
	CourseID     int64  `json:"courseId" db:"course_id"`
	QuestionCode string `json:"questionCode" db:"question_code"`
	Comment      string `json:"comment" db:"comment"`
}
