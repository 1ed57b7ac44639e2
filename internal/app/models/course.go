package models

// Course is one offering of a course in one season; cross-listed registration
// codes of the offering share it.
type Course struct {
	ID         int64  `json:"courseId" db:"course_id"`
	SeasonCode string `json:"seasonCode" db:"season_code"`
	CourseAttributes

	// Codes, CRNs and ListingIDs are sorted ascending
	Codes        []string `json:"codes" db:"-"`
	CRNs         []int64  `json:"crns" db:"-"`
	ListingIDs   []int64  `json:"listingIds" db:"-"`
	ProfessorIDs []int64  `json:"professorIds" db:"-"`

	CodeGroupID          int64 `json:"codeGroupId" db:"code_group_id"`
	SameCourseID         int64 `json:"sameCourseId" db:"same_course_id"`
	SameCourseAndProfsID int64 `json:"sameCourseAndProfsId" db:"same_course_and_profs_id"`

	CourseAggregates
}

// CourseAggregates are the longitudinal fields derived from evaluations and
// the same-course partition. Nil means no data.
type CourseAggregates struct {
	AverageRating                  *float64 `json:"averageRating" db:"average_rating"`
	AverageRatingN                 int      `json:"averageRatingN" db:"average_rating_n"`
	AverageWorkload                *float64 `json:"averageWorkload" db:"average_workload"`
	AverageWorkloadN               int      `json:"averageWorkloadN" db:"average_workload_n"`
	AverageRatingSameProfessors    *float64 `json:"averageRatingSameProfessors" db:"average_rating_same_professors"`
	AverageRatingSameProfessorsN   int      `json:"averageRatingSameProfessorsN" db:"average_rating_same_professors_n"`
	AverageWorkloadSameProfessors  *float64 `json:"averageWorkloadSameProfessors" db:"average_workload_same_professors"`
	AverageWorkloadSameProfessorsN int      `json:"averageWorkloadSameProfessorsN" db:"average_workload_same_professors_n"`
	AverageGutRating               *float64 `json:"averageGutRating" db:"average_gut_rating"`
	AverageProfessorRating         *float64 `json:"averageProfessorRating" db:"average_professor_rating"`

	LastOfferedCourseID          *int64  `json:"lastOfferedCourseId" db:"last_offered_course_id"`
	LastEnrollmentCourseID       *int64  `json:"lastEnrollmentCourseId" db:"last_enrollment_course_id"`
	LastEnrollment               *int    `json:"lastEnrollment" db:"last_enrollment"`
	LastEnrollmentSeasonCode     *string `json:"lastEnrollmentSeasonCode" db:"last_enrollment_season_code"`
	LastEnrollmentSameProfessors *bool   `json:"lastEnrollmentSameProfessors" db:"last_enrollment_same_professors"`
	LastSameProfessorsCourseID   *int64  `json:"lastSameProfessorsCourseId" db:"last_same_professors_course_id"`
	LastSameProfessorsEnrollment *int    `json:"lastSameProfessorsEnrollment" db:"last_same_professors_enrollment"`
	LastSameProfessorsSeasonCode *string `json:"lastSameProfessorsSeasonCode" db:"last_same_professors_season_code"`
}
