// Package services holds the resolution stages and the run orchestration.
//
// Services defined in this package:
//   - ListingNormalizer: validates raw listings and derives course codes
//   - CrossListingResolver: merges cross-listed listings into courses
//   - ProfessorResolver: resolves instructor references to professors
//   - SameCourseMatcher: groups courses offered across seasons
//   - AggregateComputer: evaluation statistics and course/professor averages
//   - Pipeline: runs the stages over a whole corpus
//   - RunService: starts runs one at a time and records their outcome
package services
