package models

// RawInstructor is an instructor reference as the crawler recorded it.
type RawInstructor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RawListing is one registration record of a season file.
type RawListing struct {
	SeasonCode   string                `json:"season_code" validate:"seasoncode"`
	Subject      string                `json:"subject" validate:"notblank"`
	Number       string                `json:"number" validate:"notblank"`
	Section      string                `json:"section"`
	CRN          int64                 `json:"crn" validate:"gt=0"`
	CRNs         []int64               `json:"crns" validate:"dive,gt=0"`
	Title        string                `json:"title"`
	ShortTitle   string                `json:"short_title"`
	Description  string                `json:"description"`
	School       string                `json:"school"`
	Credits      *float64              `json:"credits" validate:"omitnil,gte=0"`
	Requirements string                `json:"requirements"`
	Skills       []string              `json:"skills"`
	Areas        []string              `json:"areas"`
	TimesByDay   map[string][][]string `json:"times_by_day"`
	SyllabusURL  string                `json:"syllabus_url"`
	Flags        []string              `json:"flags"`
	Instructors  []RawInstructor       `json:"instructors"`
}

// RawQuestion is one evaluation question with either option counts or
// narrative answers. Tag is assigned upstream and used as-is.
type RawQuestion struct {
	QuestionCode string   `json:"question_code"`
	QuestionText string   `json:"question_text"`
	Tag          string   `json:"tag"`
	IsNarrative  bool     `json:"is_narrative"`
	Options      []string `json:"options"`
	Counts       []int    `json:"counts"`
	Narratives   []string `json:"narratives"`
}

// RawEvaluation is the evaluation record of one listing.
type RawEvaluation struct {
	SeasonCode string        `json:"season_code"`
	CRN        int64         `json:"crn"`
	Enrollment *int          `json:"enrollment"`
	Enrolled   *int          `json:"enrolled"`
	Responses  *int          `json:"responses"`
	Declined   *int          `json:"declined"`
	NoResponse *int          `json:"no_response"`
	Questions  []RawQuestion `json:"questions"`
}

// SeasonInput holds everything the crawler produced for one season.
// ListingsFound is false when the season's listing file does not exist.
type SeasonInput struct {
	SeasonCode    string
	ListingsFound bool
	Listings      []RawListing
	Evaluations   []RawEvaluation
}

// Corpus is the full input of one run.
type Corpus struct {
	Seasons []SeasonInput
}
