package textdist

import (
	"math"
	"testing"
)

func TestInfix(t *testing.T) {
	testCases := []struct {
		s, t     string
		expected int
	}{
		{s: "", t: "abc", expected: 0},
		{s: "abc", t: "abc", expected: 0},
		{s: "bc", t: "abcd", expected: 0},
		{s: "abcd", t: "bc", expected: 0},
		{s: "kitten", t: "sitting", expected: 2},
		{s: "Intro to Foo", t: "Introduction to Foo", expected: 4},
		{s: "xyz", t: "abc", expected: 3},
		{s: "héllo", t: "say hello", expected: 1},
	}

	for i, testCase := range testCases {
		if actual := Infix(testCase.s, testCase.t); actual != testCase.expected {
			t.Errorf("[i=%v] Expected Infix(%q, %q)=%v but actual=%v", i, testCase.s, testCase.t, testCase.expected, actual)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	testCases := []struct {
		s, t     string
		expected int
	}{
		{s: "", t: "", expected: 0},
		{s: "", t: "abc", expected: 3},
		{s: "kitten", t: "sitting", expected: 3},
		{s: "bc", t: "abcd", expected: 2},
		{s: "Intro to Foo", t: "Introduction to Foo", expected: 7},
		{s: "héllo", t: "hello", expected: 1},
	}

	for i, testCase := range testCases {
		if actual := Levenshtein(testCase.s, testCase.t); actual != testCase.expected {
			t.Errorf("[i=%v] Expected Levenshtein(%q, %q)=%v but actual=%v", i, testCase.s, testCase.t, testCase.expected, actual)
		}
		if actual := Levenshtein(testCase.t, testCase.s); actual != testCase.expected {
			t.Errorf("[i=%v] Expected the distance to be symmetric but actual=%v", i, actual)
		}
	}
}

func TestNormalized(t *testing.T) {
	testCases := []struct {
		s, t     string
		expected float64
	}{
		{s: "", t: "", expected: 1},
		{s: "Intro", t: "", expected: 1},
		{s: "Foundations of X", t: "Foundations of X", expected: 0},
		{s: "Intro to Foo", t: "Introduction to Foo", expected: 4.0 / 12.0},
		{s: "Linear Algebra", t: "Topics in Linear Algebra", expected: 0},
		{s: "abc", t: "xyz", expected: 1},
	}

	for i, testCase := range testCases {
		actual := Normalized(testCase.s, testCase.t)
		if math.Abs(actual-testCase.expected) > 1e-9 {
			t.Errorf("[i=%v] Expected Normalized(%q, %q)=%v but actual=%v", i, testCase.s, testCase.t, testCase.expected, actual)
		}
		if reverse := Normalized(testCase.t, testCase.s); math.Abs(reverse-actual) > 1e-9 {
			t.Errorf("[i=%v] Expected Normalized to be symmetric but got %v and %v", i, actual, reverse)
		}
	}
}
