package cvanalysis

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var snapshotHeader = []string{
	"filename", "text", "raw_text", "skills", "skills_count", "experience_years",
	"domain", "word_count", "file_path", "quality_score", "quality_label",
}

// WriteSnapshot writes the processed training records as CSV. Skills are
// joined with "; ".
func WriteSnapshot(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(snapshotHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Filename,
			r.Text,
			r.RawText,
			strings.Join(r.Skills, "; "),
			strconv.Itoa(r.SkillsCount),
			strconv.Itoa(r.ExperienceYears),
			r.Domain,
			strconv.Itoa(r.WordCount),
			r.FilePath,
			strconv.FormatFloat(r.QualityScore, 'f', 4, 64),
			r.QualityLabel,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// DatasetStats summarizes a set of training records.
type DatasetStats struct {
	Documents     int            `json:"documents"`
	ByDomain      map[string]int `json:"by_domain"`
	AvgExperience float64        `json:"avg_experience_years"`
	AvgSkills     float64        `json:"avg_skills"`
}

// Stats computes per-domain counts and feature averages.
func Stats(records []Record) DatasetStats {
	s := DatasetStats{Documents: len(records), ByDomain: map[string]int{}}
	if len(records) == 0 {
		return s
	}
	exp, skills := 0, 0
	for _, r := range records {
		s.ByDomain[r.Domain]++
		exp += r.ExperienceYears
		skills += r.SkillsCount
	}
	s.AvgExperience = float64(exp) / float64(len(records))
	s.AvgSkills = float64(skills) / float64(len(records))
	return s
}

// SortedDomains returns the domains of s, most documents first.
func (s DatasetStats) SortedDomains() []string {
	out := make([]string, 0, len(s.ByDomain))
	for d := range s.ByDomain {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if s.ByDomain[out[i]] != s.ByDomain[out[j]] {
			return s.ByDomain[out[i]] > s.ByDomain[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
