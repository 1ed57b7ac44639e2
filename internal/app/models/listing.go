package models

// InstructorRef is a cleaned instructor reference attached to a listing.
type InstructorRef struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// CourseAttributes are the descriptive fields a course takes over from its
// representative listing.
type CourseAttributes struct {
	Title        string                `json:"title" db:"title"`
	ShortTitle   string                `json:"shortTitle" db:"short_title"`
	Description  string                `json:"description" db:"description"`
	School       string                `json:"school" db:"school"`
	Credits      *float64              `json:"credits,omitempty" db:"credits"`
	Requirements string                `json:"requirements" db:"requirements"`
	Skills       []string              `json:"skills" db:"skills"`
	Areas        []string              `json:"areas" db:"areas"`
	TimesByDay   map[string][][]string `json:"timesByDay,omitempty" db:"times_by_day"`
	SyllabusURL  string                `json:"syllabusUrl,omitempty" db:"syllabus_url"`
	Flags        []string              `json:"flags" db:"-"`
	Instructors  []InstructorRef       `json:"-" db:"-"`
}

// Listing is one registration code of a course in a season, identified by
// (season_code, crn).
type Listing struct {
	ID              int64   `json:"listingId" db:"listing_id"`
	CourseID        int64   `json:"courseId" db:"course_id"`
	SeasonCode      string  `json:"seasonCode" db:"season_code"`
	Subject         string  `json:"subject" db:"subject"`
	Number          string  `json:"number" db:"number"`
	CourseCode      string  `json:"courseCode" db:"course_code"`
	Section         string  `json:"section" db:"section"`
	CRN             int64   `json:"crn" db:"crn"`
	School          string  `json:"school" db:"school"`
	CrossListedCRNs []int64 `json:"crossListedCrns" db:"cross_listed_crns"`

	// Primary marks listings offered by the primary undergraduate school
	Primary    bool             `json:"-" db:"-"`
	Attributes CourseAttributes `json:"-" db:"-"`
}
