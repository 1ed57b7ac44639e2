package models

type Flag struct {
	ID   int64  `json:"flagId" db:"flag_id"`
	Text string `json:"flagText" db:"flag_text"`
}

type CourseFlag struct {
	CourseID int64 `json:"courseId" db:"course_id"`
	FlagID   int64 `json:"flagId" db:"flag_id"`
}
