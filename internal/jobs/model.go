package jobs

import (
	"strings"
	"time"
)

// Job statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusClosed    = "closed"
	StatusPaused    = "paused"
)

// Contract types.
const (
	ContractCDI       = "cdi"
	ContractCDD       = "cdd"
	ContractStage     = "stage"
	ContractFreelance = "freelance"
	ContractInterim   = "interim"
)

const defaultMaxApplications = 100

type Job struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Category            string     `json:"category"`
	CompanyName         string     `json:"companyName"`
	Description         string     `json:"description"`
	Requirements        string     `json:"requirements"`
	Responsibilities    string     `json:"responsibilities"`
	Benefits            string     `json:"benefits"`
	Location            string     `json:"location"`
	IsRemote            bool       `json:"isRemote"`
	ContractType        string     `json:"contractType"`
	ExperienceRequired  string     `json:"experienceRequired"`
	SalaryMin           *int       `json:"salaryMin,omitempty"`
	SalaryMax           *int       `json:"salaryMax,omitempty"`
	SkillsRequired      string     `json:"skillsRequired"`
	Status              string     `json:"status"`
	PostedBy            string     `json:"postedBy"`
	ApplicationDeadline *time.Time `json:"applicationDeadline,omitempty"`
	MaxApplications     int        `json:"maxApplications"`
	ViewsCount          int        `json:"viewsCount"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// AcceptsApplications reports whether the job is published and its deadline
// has not passed at now.
func (j Job) AcceptsApplications(now time.Time) bool {
	if j.Status != StatusPublished {
		return false
	}
	return j.ApplicationDeadline == nil || now.Before(*j.ApplicationDeadline)
}

// Input carries the writable job fields. On create the required fields must
// be set; on update nil fields are left unchanged.
type Input struct {
	Title               *string    `json:"title"`
	Category            *string    `json:"category"`
	CompanyName         *string    `json:"companyName"`
	Description         *string    `json:"description"`
	Requirements        *string    `json:"requirements"`
	Responsibilities    *string    `json:"responsibilities"`
	Benefits            *string    `json:"benefits"`
	Location            *string    `json:"location"`
	IsRemote            *bool      `json:"isRemote"`
	ContractType        *string    `json:"contractType"`
	ExperienceRequired  *string    `json:"experienceRequired"`
	SalaryMin           *int       `json:"salaryMin"`
	SalaryMax           *int       `json:"salaryMax"`
	SkillsRequired      *string    `json:"skillsRequired"`
	ApplicationDeadline *time.Time `json:"applicationDeadline"`
	MaxApplications     *int       `json:"maxApplications"`
}

// Filter narrows job listings. Text filters match case-insensitively.
type Filter struct {
	Query        string
	Category     string
	Location     string
	ContractType string
	Experience   string
	Remote       *bool
	Skills       []string
	Status       string
	PostedBy     string
	Limit        int
	Offset       int
}

// Matches reports whether j satisfies every set filter field.
func (f Filter) Matches(j Job) bool {
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.PostedBy != "" && j.PostedBy != f.PostedBy {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		hit := false
		for _, field := range []string{j.Title, j.Description, j.CompanyName, j.SkillsRequired} {
			if strings.Contains(strings.ToLower(field), q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.Category != "" && !strings.EqualFold(j.Category, f.Category) {
		return false
	}
	if f.Location != "" && !containsFold(j.Location, f.Location) {
		return false
	}
	if f.ContractType != "" && j.ContractType != f.ContractType {
		return false
	}
	if f.Experience != "" && j.ExperienceRequired != f.Experience {
		return false
	}
	if f.Remote != nil && j.IsRemote != *f.Remote {
		return false
	}
	for _, skill := range f.Skills {
		if !containsFold(j.SkillsRequired, skill) {
			return false
		}
	}
	return true
}

// Stats summarizes the job board.
type Stats struct {
	TotalJobs         int             `json:"totalJobs"`
	ActiveJobs        int             `json:"activeJobs"`
	TotalApplications int             `json:"totalApplications"`
	TopCategories     []CategoryCount `json:"topCategories"`
	RecentJobs        []Job           `json:"recentJobs"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ValidContractType reports whether v is a known contract type.
func ValidContractType(v string) bool {
	switch v {
	case ContractCDI, ContractCDD, ContractStage, ContractFreelance, ContractInterim:
		return true
	}
	return false
}

// SplitSkills splits a comma separated skill list, dropping blanks.
func SplitSkills(raw string) []string {
	out := []string{}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
