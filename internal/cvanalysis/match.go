package cvanalysis

import (
	"math"
	"strconv"
	"strings"
)

// Score weights of the job-match heuristic.
const (
	maxSkillsScore     = 50.0
	maxExperienceScore = 30.0
	maxKeywordScore    = 20.0
	maxMatchScore      = 100.0
)

// JobKeywords are the generic terms counted in the keyword component.
var JobKeywords = []string{
	"python", "java", "javascript", "react", "django", "machine learning",
	"data", "sql", "git", "agile", "scrum", "docker", "kubernetes", "api",
	"frontend", "backend", "database", "cloud", "aws", "azure",
}

// JobCriteria is the job side of a match.
type JobCriteria struct {
	Title              string `json:"title"`
	CompanyName        string `json:"company"`
	Description        string `json:"description"`
	Requirements       string `json:"requirements"`
	RequiredSkills     string `json:"required_skills"`
	ExperienceRequired string `json:"experience_required"`
}

// ParseExperienceRange parses "N+", "A-B" or "N". Anything else is [0,0].
func ParseExperienceRange(s string) (min, max int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0
	}
	if strings.HasSuffix(s, "+") {
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(s, "+")))
		if err != nil {
			return 0, 0
		}
		return n, n + 10
	}
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		a, err1 := strconv.Atoi(strings.TrimSpace(lo))
		b, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return a, b
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0
	}
	return n, n
}

// ExperienceMatch scores candidate years against a required range, 0..30.
func ExperienceMatch(required string, candidate int) float64 {
	if strings.TrimSpace(required) == "" {
		return maxExperienceScore
	}
	lo, hi := ParseExperienceRange(required)
	switch {
	case lo >= 1 && candidate < lo:
		return 0
	case candidate == 0 && lo > 0:
		return 0
	case candidate >= lo && candidate <= hi:
		return maxExperienceScore
	case candidate > hi:
		excess := float64(candidate - hi)
		return math.Max(maxExperienceScore-math.Min(2*excess, 10), 20)
	default:
		return 15
	}
}

// WithinExperienceRange is the hard filter used before ranking candidates
// for a specific job. It keeps candidates inside the parsed [min,max] range,
// so "3+" keeps 3..13 years and an empty or unparsable requirement keeps only
// candidates without stated experience.
func WithinExperienceRange(required string, candidate int) bool {
	lo, hi := ParseExperienceRange(required)
	return candidate >= lo && candidate <= hi
}

// RequiredSkills splits a comma-separated skill list into trimmed,
// lowercased, non-empty items.
func RequiredSkills(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JobMatchScore combines the skills, experience and keyword components,
// capped at 100.
func JobMatchScore(cvText string, a Analysis, job JobCriteria) float64 {
	lower := strings.ToLower(cvText)

	skills := 0.0
	if required := RequiredSkills(job.RequiredSkills); len(required) > 0 {
		matched := 0
		for _, s := range required {
			if strings.Contains(lower, s) {
				matched++
			}
		}
		skills = float64(matched) / float64(len(required)) * maxSkillsScore
	}

	experience := ExperienceMatch(job.ExperienceRequired, a.ExperienceYears)

	corpus := lower + " " + strings.ToLower(job.Description) + " " + strings.ToLower(job.Requirements)
	hits := 0
	for _, kw := range JobKeywords {
		if strings.Contains(corpus, kw) {
			hits++
		}
	}
	keywords := math.Min(float64(hits)/float64(len(JobKeywords))*maxKeywordScore, maxKeywordScore)

	return math.Min(skills+experience+keywords, maxMatchScore)
}
