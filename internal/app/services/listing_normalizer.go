package services

import (
	"errors"
	"slices"
	"strings"
	"unicode"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/pkg/apperrors"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/coursetable/ferry/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// DefaultPrimarySchool is the school whose listings are preferred as
// representatives of a cross-listed course.
const DefaultPrimarySchool = "YC"

// defaultSection is used when a record carries no section
const defaultSection = "0"

// ListingNormalizer cleans raw registration records into Listings.
type ListingNormalizer struct {
	primarySchool string
	log           zerolog.Logger
}

// NewListingNormalizer creates a normalizer. An empty primarySchool falls
// back to DefaultPrimarySchool.
func NewListingNormalizer(primarySchool string) *ListingNormalizer {
	if primarySchool == "" {
		primarySchool = DefaultPrimarySchool
	}
	return &ListingNormalizer{
		primarySchool: primarySchool,
		log:           logger.Component("listing_normalizer"),
	}
}

// Normalize cleans a single record. Records failing validation return an
// *apperrors.ValidationError.
func (n *ListingNormalizer) Normalize(raw models.RawListing) (models.Listing, error) {
	clean := raw
	clean.SeasonCode = cleanText(raw.SeasonCode)
	clean.Subject = cleanText(raw.Subject)
	clean.Number = cleanText(raw.Number)
	clean.Section = cleanText(raw.Section)
	clean.School = cleanText(raw.School)

	if err := validation.Struct(&clean); err != nil {
		return models.Listing{}, err
	}

	section := clean.Section
	if section == "" {
		section = defaultSection
	}

	listing := models.Listing{
		SeasonCode:      clean.SeasonCode,
		Subject:         clean.Subject,
		Number:          clean.Number,
		CourseCode:      clean.Subject + " " + clean.Number,
		Section:         section,
		CRN:             clean.CRN,
		School:          clean.School,
		CrossListedCRNs: crossListedCRNs(clean.CRN, clean.CRNs),
		Primary:         n.IsPrimary(clean.School, clean.Number),
		Attributes: models.CourseAttributes{
			Title:        cleanText(raw.Title),
			ShortTitle:   cleanText(raw.ShortTitle),
			Description:  cleanText(raw.Description),
			School:       clean.School,
			Credits:      raw.Credits,
			Requirements: cleanText(raw.Requirements),
			Skills:       cleanList(raw.Skills, false),
			Areas:        cleanList(raw.Areas, false),
			TimesByDay:   cleanTimes(raw.TimesByDay),
			SyllabusURL:  cleanText(raw.SyllabusURL),
			Flags:        cleanList(raw.Flags, true),
			Instructors:  cleanInstructors(raw.Instructors),
		},
	}
	return listing, nil
}

// NormalizeSeason normalizes every record of one season file. Records that
// fail validation, repeat an earlier CRN or belong to another season are
// dropped and counted in the returned report. Listings keep input order.
func (n *ListingNormalizer) NormalizeSeason(seasonCode string, raws []models.RawListing) ([]models.Listing, *models.Report) {
	report := models.NewReport()
	listings := make([]models.Listing, 0, len(raws))
	seen := make(map[int64]bool, len(raws))

	for i, raw := range raws {
		listing, err := n.Normalize(raw)
		if err != nil {
			var verr *apperrors.ValidationError
			ev := n.log.Warn().Str("season", seasonCode).Int("record", i).Int64("crn", raw.CRN)
			if errors.As(err, &verr) {
				ev = ev.Str("field", verr.Field)
			}
			ev.Err(err).Msg("Dropping malformed listing")
			report.Drop(models.DropMalformedListing, 1)
			continue
		}

		if listing.SeasonCode != seasonCode {
			n.log.Warn().
				Str("season", seasonCode).
				Str("record_season", listing.SeasonCode).
				Int64("crn", listing.CRN).
				Msg("Dropping listing filed under another season")
			report.Drop(models.DropSeasonMismatch, 1)
			continue
		}

		if seen[listing.CRN] {
			n.log.Warn().Str("season", seasonCode).Int64("crn", listing.CRN).Msg("Dropping duplicate CRN")
			report.Drop(models.DropDuplicateCRN, 1)
			continue
		}
		seen[listing.CRN] = true
		listings = append(listings, listing)
	}

	return listings, report
}

// IsPrimary reports whether a listing belongs to the primary school. Listings
// without a school count when their number is in the 000-499 range.
func (n *ListingNormalizer) IsPrimary(school, number string) bool {
	if school == n.primarySchool {
		return true
	}
	if school != "" || number == "" {
		return false
	}
	if number[0] < '0' || number[0] > '4' {
		return false
	}
	digits := 0
	for _, r := range number {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits < 4
}

func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r", ""))
}

// cleanList trims entries and drops blanks. With sorted set, duplicates are
// removed and the result is ordered.
func cleanList(items []string, sortedSet bool) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = cleanText(item); item != "" {
			out = append(out, item)
		}
	}
	if sortedSet {
		slices.Sort(out)
		out = slices.Compact(out)
	}
	return out
}

func cleanTimes(times map[string][][]string) map[string][][]string {
	if len(times) == 0 {
		return nil
	}
	out := make(map[string][][]string, len(times))
	for day, slots := range times {
		cleaned := make([][]string, 0, len(slots))
		for _, slot := range slots {
			fields := make([]string, len(slot))
			for i, f := range slot {
				fields[i] = cleanText(f)
			}
			cleaned = append(cleaned, fields)
		}
		out[cleanText(day)] = cleaned
	}
	return out
}

func cleanInstructors(raw []models.RawInstructor) []models.InstructorRef {
	out := make([]models.InstructorRef, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.InstructorRef{
			Name:  cleanText(r.Name),
			Email: strings.ToLower(cleanText(r.Email)),
		})
	}
	return out
}

// crossListedCRNs returns the sorted, deduplicated same-as list including
// the listing's own CRN.
func crossListedCRNs(own int64, crns []int64) []int64 {
	out := make([]int64, 0, len(crns)+1)
	out = append(out, own)
	out = append(out, crns...)
	slices.Sort(out)
	return slices.Compact(out)
}
