package services

import (
	"context"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/coursetable/ferry/internal/app/models"
)

func matchCourse(id int64, title, description string, codes ...string) MatchCourse {
	return MatchCourse{ID: id, Codes: codes, Title: title, Description: description}
}

func mustMatch(t *testing.T, m *SameCourseMatcher, courses []MatchCourse) SameCoursePartition {
	t.Helper()
	p, err := m.Match(context.Background(), courses)
	if err != nil {
		t.Fatalf("Match: %s", err)
	}
	return p
}

func TestMatchBridgesTitleDrift(t *testing.T) {
	m := NewSameCourseMatcher(DefaultMatchingOptions())
	courses := []MatchCourse{
		matchCourse(1, "Intro to Foo", "", "C 101"),
		matchCourse(2, "Foo in Practice", "", "D 205"),
		matchCourse(3, "Introduction to Foo", "", "C 101"),
	}

	p := mustMatch(t, m, courses)
	if p.SameCourse[1] != p.SameCourse[3] {
		t.Errorf("Expected courses 1 and 3 in one group, got %v", p.SameCourse)
	}
	if p.SameCourse[2] == p.SameCourse[1] {
		t.Errorf("Expected course 2 in its own group, got %v", p.SameCourse)
	}
	if p.Groups != 2 || p.CodeGroups != 2 {
		t.Errorf("Expected 2 groups and 2 code groups, got %v and %v", p.Groups, p.CodeGroups)
	}
	if p.Stats.TitleBridges != 1 {
		t.Errorf("Expected one title bridge but actual=%v", p.Stats.TitleBridges)
	}
}

func TestMatchTitleCollisionAcrossCodes(t *testing.T) {
	m := NewSameCourseMatcher(DefaultMatchingOptions())
	courses := []MatchCourse{
		matchCourse(1, "Foundations of X", "A survey of historical methods and sources.", "HIST 101"),
		matchCourse(2, "Foundations of X", "Classical mechanics with calculus for majors.", "PHYS 300"),
	}

	p := mustMatch(t, m, courses)
	if p.SameCourse[1] == p.SameCourse[2] {
		t.Errorf("Expected identical titles under unrelated codes to stay apart, got %v", p.SameCourse)
	}
	if p.CodeGroup[1] == p.CodeGroup[2] {
		t.Errorf("Expected separate code groups, got %v", p.CodeGroup)
	}
}

func TestMatchCodeGroupsFollowCrossListings(t *testing.T) {
	m := NewSameCourseMatcher(DefaultMatchingOptions())
	courses := []MatchCourse{
		matchCourse(1, "Data Structures", "", "CPSC 223"),
		matchCourse(2, "Data Structures", "", "CPSC 223", "S&DS 223"),
		matchCourse(3, "Data Structures", "", "S&DS 223"),
		matchCourse(4, "Data Structures", "", "ECON 223"),
	}

	p := mustMatch(t, m, courses)
	if p.CodeGroup[1] != p.CodeGroup[3] || p.SameCourse[1] != p.SameCourse[3] {
		t.Errorf("Expected a shared cross-listed code to bridge 1 and 3, got %v", p.SameCourse)
	}
	if p.CodeGroup[4] == p.CodeGroup[1] {
		t.Errorf("Expected ECON 223 in its own code group, got %v", p.CodeGroup)
	}
	if p.CodeGroup[1] != 1 || p.CodeGroup[4] != 2 {
		t.Errorf("Expected code groups numbered by smallest course ID, got %v", p.CodeGroup)
	}
}

func TestMatchDescriptionsAndFeatureless(t *testing.T) {
	long := "An exploration of the history and theory of computation."
	m := NewSameCourseMatcher(DefaultMatchingOptions())
	courses := []MatchCourse{
		matchCourse(1, "Theory of Computation", long, "CPSC 468"),
		matchCourse(2, "Computability and Logic", long+" Revised.", "CPSC 468"),
		matchCourse(3, "Complexity Theory", "Short blurb", "CPSC 468"),
		matchCourse(4, "Sem", "", "CPSC 468"),
		matchCourse(5, "Lab", "", "CPSC 468"),
	}

	p := mustMatch(t, m, courses)
	if p.SameCourse[1] != p.SameCourse[2] {
		t.Errorf("Expected similar long descriptions to bridge 1 and 2, got %v", p.SameCourse)
	}
	if p.SameCourse[3] == p.SameCourse[1] {
		t.Errorf("Expected course 3 to stay apart, got %v", p.SameCourse)
	}
	if p.SameCourse[4] != p.SameCourse[5] {
		t.Errorf("Expected featureless courses 4 and 5 to be merged, got %v", p.SameCourse)
	}
	if p.SameCourse[4] == p.SameCourse[1] || p.SameCourse[4] == p.SameCourse[3] {
		t.Errorf("Expected featureless courses to stay away from described ones, got %v", p.SameCourse)
	}
}

func TestMatchDoNotMergeVeto(t *testing.T) {
	courses := []MatchCourse{
		matchCourse(1, "Advanced Topics I", "", "MATH 500"),
		matchCourse(2, "Advanced Topics II", "", "MATH 500"),
	}

	testCases := []struct {
		overrides []DoNotMerge
		merged    bool
	}{
		{overrides: nil, merged: true},
		{overrides: []DoNotMerge{{TitleA: "Advanced Topics II", TitleB: "Advanced Topics I"}}, merged: false},
		{overrides: []DoNotMerge{{Code: "MATH 500", TitleA: "Advanced Topics I", TitleB: "Advanced Topics II"}}, merged: false},
		{overrides: []DoNotMerge{{Code: "PHYS 500", TitleA: "Advanced Topics I", TitleB: "Advanced Topics II"}}, merged: true},
	}

	for i, testCase := range testCases {
		opts := DefaultMatchingOptions()
		opts.DoNotMerge = testCase.overrides
		p := mustMatch(t, NewSameCourseMatcher(opts), courses)
		if merged := p.SameCourse[1] == p.SameCourse[2]; merged != testCase.merged {
			t.Errorf("[i=%v] Expected merged=%v but actual=%v", i, testCase.merged, merged)
		}
	}
}

func TestMatchPartitionIsTotalAndDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	titles := []string{"Organic Chemistry", "Organic Chemistry I", "Physical Chemistry", "Lab", "", "Seminar in Chemistry"}
	codes := []string{"CHEM 220", "CHEM 221", "CHEM 330", "MB&B 330", "ENV 100"}

	var courses []MatchCourse
	for id := int64(1); id <= 200; id++ {
		c := matchCourse(id, titles[rng.Intn(len(titles))], "", codes[rng.Intn(len(codes))])
		if rng.Intn(4) == 0 {
			c.Codes = append(c.Codes, codes[rng.Intn(len(codes))])
		}
		courses = append(courses, c)
	}

	serialOpts := DefaultMatchingOptions()
	serialOpts.Workers = 1
	serial := mustMatch(t, NewSameCourseMatcher(serialOpts), courses)

	shuffled := make([]MatchCourse, len(courses))
	copy(shuffled, courses)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	parallelOpts := DefaultMatchingOptions()
	parallelOpts.Workers = 16
	parallel := mustMatch(t, NewSameCourseMatcher(parallelOpts), shuffled)

	if !reflect.DeepEqual(serial.SameCourse, parallel.SameCourse) || !reflect.DeepEqual(serial.CodeGroup, parallel.CodeGroup) {
		t.Fatalf("Expected identical partitions regardless of scheduling")
	}

	if len(serial.SameCourse) != len(courses) {
		t.Fatalf("Expected every course to be labelled, got %v of %v", len(serial.SameCourse), len(courses))
	}
	smallest := make(map[int64]int64)
	for _, c := range courses {
		gid := serial.SameCourse[c.ID]
		if gid < 1 || gid > int64(serial.Groups) {
			t.Fatalf("Course %v has out-of-range group %v", c.ID, gid)
		}
		if _, ok := smallest[gid]; !ok {
			smallest[gid] = c.ID
		}
		if serial.CodeGroup[c.ID] == 0 {
			t.Fatalf("Course %v has no code group", c.ID)
		}
	}
	for gid := int64(2); gid <= int64(serial.Groups); gid++ {
		if smallest[gid] <= smallest[gid-1] {
			t.Fatalf("Expected groups numbered by smallest course ID, group %v starts at %v after %v", gid, smallest[gid], smallest[gid-1])
		}
	}
}

func TestMatchHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var courses []MatchCourse
	for i := int64(1); i <= 10; i++ {
		courses = append(courses, matchCourse(i, "Title", "", fmt.Sprintf("X %d", i)))
	}
	if _, err := NewSameCourseMatcher(DefaultMatchingOptions()).Match(ctx, courses); err == nil {
		t.Fatalf("Expected a cancelled context to fail matching")
	}
}

func TestSplitByProfessors(t *testing.T) {
	m := NewSameCourseMatcher(DefaultMatchingOptions())
	sameCourse := map[int64]int64{1: 1, 2: 1, 3: 1, 4: 2, 5: 2}
	junction := []models.CourseProfessor{
		{CourseID: 1, ProfessorID: 7},
		{CourseID: 1, ProfessorID: 8},
		{CourseID: 2, ProfessorID: 8},
		{CourseID: 2, ProfessorID: 7},
		{CourseID: 3, ProfessorID: 7},
		{CourseID: 4, ProfessorID: 7},
	}

	split, n := m.SplitByProfessors(sameCourse, junction)
	expected := map[int64]int64{1: 1, 2: 1, 3: 2, 4: 3, 5: 4}
	if !reflect.DeepEqual(split, expected) || n != 4 {
		t.Fatalf("Expected split=%v (4 groups) but actual=%v (%v groups)", expected, split, n)
	}
}
