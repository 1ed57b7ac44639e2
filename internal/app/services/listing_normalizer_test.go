package services

import (
	"errors"
	"reflect"
	"testing"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/pkg/apperrors"
)

func TestNormalizeCleansRecord(t *testing.T) {
	n := NewListingNormalizer("")
	raw := models.RawListing{
		SeasonCode:  " 202401\r",
		Subject:     "CPSC ",
		Number:      "201\r",
		CRN:         12,
		CRNs:        []int64{15, 12, 13, 15},
		Title:       "Intro\r to Computing ",
		School:      "YC",
		Skills:      []string{" QR", "", "QR"},
		Flags:       []string{"b", " a ", "b"},
		Instructors: []models.RawInstructor{{Name: " Ada Lovelace ", Email: " Ada@Yale.EDU "}},
	}

	listing, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %s", err)
	}
	if listing.CourseCode != "CPSC 201" {
		t.Errorf("Expected course code %q but actual=%q", "CPSC 201", listing.CourseCode)
	}
	if listing.Section != "0" {
		t.Errorf("Expected default section 0 but actual=%q", listing.Section)
	}
	if expected := []int64{12, 13, 15}; !reflect.DeepEqual(listing.CrossListedCRNs, expected) {
		t.Errorf("Expected cross-listed CRNs=%v but actual=%v", expected, listing.CrossListedCRNs)
	}
	if listing.Attributes.Title != "Intro to Computing" {
		t.Errorf("Expected cleaned title but actual=%q", listing.Attributes.Title)
	}
	if expected := []string{"QR", "QR"}; !reflect.DeepEqual(listing.Attributes.Skills, expected) {
		t.Errorf("Expected skills=%v but actual=%v", expected, listing.Attributes.Skills)
	}
	if expected := []string{"a", "b"}; !reflect.DeepEqual(listing.Attributes.Flags, expected) {
		t.Errorf("Expected flags=%v but actual=%v", expected, listing.Attributes.Flags)
	}
	expectedIns := []models.InstructorRef{{Name: "Ada Lovelace", Email: "ada@yale.edu"}}
	if !reflect.DeepEqual(listing.Attributes.Instructors, expectedIns) {
		t.Errorf("Expected instructors=%+v but actual=%+v", expectedIns, listing.Attributes.Instructors)
	}
	if !listing.Primary {
		t.Errorf("Expected a YC listing to be primary")
	}
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	n := NewListingNormalizer("")
	valid := models.RawListing{SeasonCode: "202401", Subject: "A", Number: "1", CRN: 1}

	testCases := []struct {
		mutate func(*models.RawListing)
		field  string
	}{
		{mutate: func(r *models.RawListing) { r.Subject = "  " }, field: "subject"},
		{mutate: func(r *models.RawListing) { r.Number = "" }, field: "number"},
		{mutate: func(r *models.RawListing) { r.SeasonCode = "2024" }, field: "season_code"},
		{mutate: func(r *models.RawListing) { r.SeasonCode = "202407" }, field: "season_code"},
		{mutate: func(r *models.RawListing) { r.CRN = 0 }, field: "crn"},
	}

	for i, testCase := range testCases {
		raw := valid
		testCase.mutate(&raw)
		_, err := n.Normalize(raw)
		if !errors.Is(err, apperrors.ErrValidationFailed) {
			t.Errorf("[i=%v] Expected ErrValidationFailed but actual=%v", i, err)
			continue
		}
		var verr *apperrors.ValidationError
		if !errors.As(err, &verr) || verr.Field != testCase.field {
			t.Errorf("[i=%v] Expected field %q but actual=%v", i, testCase.field, err)
		}
	}
}

func TestNormalizeSeasonDropsBadRecords(t *testing.T) {
	n := NewListingNormalizer("")
	raws := []models.RawListing{
		{SeasonCode: "202401", Subject: "A", Number: "1", CRN: 1},
		{SeasonCode: "202401", Subject: "B", Number: "2", CRN: 1},
		{SeasonCode: "202403", Subject: "C", Number: "3", CRN: 2},
		{SeasonCode: "202401", Subject: "", Number: "4", CRN: 3},
		{SeasonCode: "202401", Subject: "E", Number: "5", CRN: 4},
	}

	listings, report := n.NormalizeSeason("202401", raws)
	if len(listings) != 2 || listings[0].Subject != "A" || listings[1].CRN != 4 {
		t.Fatalf("Unexpected listings: %+v", listings)
	}
	expected := map[string]int{
		models.DropDuplicateCRN:     1,
		models.DropSeasonMismatch:   1,
		models.DropMalformedListing: 1,
	}
	if !reflect.DeepEqual(report.Dropped, expected) {
		t.Errorf("Expected drops=%v but actual=%v", expected, report.Dropped)
	}
}

func TestIsPrimary(t *testing.T) {
	n := NewListingNormalizer("YC")
	testCases := []struct {
		school, number string
		expected       bool
	}{
		{school: "YC", number: "900", expected: true},
		{school: "GS", number: "100", expected: false},
		{school: "", number: "490", expected: true},
		{school: "", number: "045L", expected: true},
		{school: "", number: "500", expected: false},
		{school: "", number: "4000", expected: false},
		{school: "", number: "S100", expected: false},
		{school: "", number: "", expected: false},
	}
	for i, testCase := range testCases {
		if actual := n.IsPrimary(testCase.school, testCase.number); actual != testCase.expected {
			t.Errorf("[i=%v] Expected IsPrimary(%q, %q)=%v but actual=%v", i, testCase.school, testCase.number, testCase.expected, actual)
		}
	}
}
