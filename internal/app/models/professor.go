package models

// Professor is a canonical instructor identity.
type Professor struct {
	ID             int64    `json:"professorId" db:"professor_id"`
	Name           string   `json:"name" db:"name"`
	Email          *string  `json:"email" db:"email"`
	AverageRating  *float64 `json:"averageRating" db:"average_rating"`
	AverageRatingN int      `json:"averageRatingN" db:"average_rating_n"`
	CoursesTaught  int      `json:"coursesTaught" db:"courses_taught"`
}

// CourseProfessor links a course to one of its professors.
type CourseProfessor struct {
	CourseID    int64 `json:"courseId" db:"course_id"`
	ProfessorID int64 `json:"professorId" db:"professor_id"`
}

// ProfessorRef is one sighting of an instructor on a course. Before global
// IDs exist, CourseID holds the course's index within its season.
type ProfessorRef struct {
	SeasonCode string
	CourseID   int64
	Name       string
	Email      string
}
