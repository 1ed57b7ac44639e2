package models

// Result is the full output of one pipeline run. Every slice is sorted by its
// primary key.
type Result struct {
	Seasons          []Season               `json:"seasons"`
	Courses          []Course               `json:"courses"`
	Listings         []Listing              `json:"listings"`
	Professors       []Professor            `json:"professors"`
	CourseProfessors []CourseProfessor      `json:"courseProfessors"`
	Flags            []Flag                 `json:"flags"`
	CourseFlags      []CourseFlag           `json:"courseFlags"`
	Evaluations      []EvaluationStatistics `json:"evaluationStatistics"`
	Questions        []EvaluationQuestion   `json:"evaluationQuestions"`
	Ratings          []EvaluationRating     `json:"evaluationRatings"`
	Narratives       []EvaluationNarrative  `json:"evaluationNarratives"`
	Report           *Report                `json:"report"`
}
