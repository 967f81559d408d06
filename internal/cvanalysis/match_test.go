package cvanalysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseExperienceRange(t *testing.T) {
	cases := []struct {
		in       string
		min, max int
	}{
		{"10+", 10, 20},
		{"3-5", 3, 5},
		{" 2 ", 2, 2},
		{"abc", 0, 0},
		{"", 0, 0},
		{"1-x", 0, 0},
		{"+", 0, 0},
	}
	for _, tc := range cases {
		lo, hi := ParseExperienceRange(tc.in)
		assert.Equal(t, tc.min, lo, tc.in)
		assert.Equal(t, tc.max, hi, tc.in)
	}
}

func TestExperienceMatch(t *testing.T) {
	assert.Equal(t, 30.0, ExperienceMatch("1-3", 2))
	assert.Equal(t, 0.0, ExperienceMatch("1-3", 0))
	assert.Equal(t, 26.0, ExperienceMatch("1-3", 5))
	assert.Equal(t, 20.0, ExperienceMatch("1-3", 20))
	assert.Equal(t, 0.0, ExperienceMatch("5+", 3))
	assert.Equal(t, 30.0, ExperienceMatch("5+", 12))
	for _, years := range []int{0, 3, 40} {
		assert.Equal(t, 30.0, ExperienceMatch("", years))
	}
}

func TestWithinExperienceRange(t *testing.T) {
	cases := []struct {
		required  string
		candidate int
		keep      bool
	}{
		{"3+", 20, false},
		{"3+", 13, true},
		{"3+", 2, false},
		{"10+", 15, true},
		{"5-15", 7, true},
		{"5-15", 16, false},
		{"1-3", 0, false},
		{"2", 2, true},
		{"", 4, false},
		{"", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.keep, WithinExperienceRange(tc.required, tc.candidate), "%q/%d", tc.required, tc.candidate)
	}
}

func TestRequiredSkills(t *testing.T) {
	assert.Equal(t, []string{"python", "sql", "machine learning"}, RequiredSkills(" Python, ,SQL ,Machine Learning,"))
	assert.Empty(t, RequiredSkills(""))
}

func TestJobMatchScore(t *testing.T) {
	job := JobCriteria{RequiredSkills: "python, sql"}
	score := JobMatchScore("Python SQL", Analysis{}, job)
	// 50 for skills, 30 for an empty requirement, 2 of 20 keywords.
	assert.InDelta(t, 82.0, score, 1e-9)

	job = JobCriteria{RequiredSkills: "python, rust", ExperienceRequired: "5+"}
	score = JobMatchScore("python", Analysis{ExperienceYears: 1}, job)
	assert.InDelta(t, 25.0+0+1, score, 1e-9)
}

func TestJobMatchScoreIsCapped(t *testing.T) {
	cv := "python java javascript react django machine learning data sql git agile scrum docker kubernetes api frontend backend database cloud aws azure"
	job := JobCriteria{RequiredSkills: "python, docker", ExperienceRequired: "2-4", Description: "cloud", Requirements: "api"}
	score := JobMatchScore(cv, Analysis{ExperienceYears: 3}, job)
	assert.Equal(t, 100.0, score)
}
