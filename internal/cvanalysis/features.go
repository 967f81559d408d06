package cvanalysis

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Professional domains recognized by CategorizeDomain.
const (
	DomainTech      = "informatique"
	DomainEducation = "enseignement"
	DomainLaw       = "avocat"
	DomainMarketing = "marketing"
	DomainFinance   = "finance"
	DomainHealth    = "sante"
	DomainOther     = "autre"
)

// SkillVocabulary is the fixed list of technical terms searched in CVs.
// ExtractSkills reports matches in this order.
var SkillVocabulary = []string{
	// languages
	"python", "java", "javascript", "c++", "c#", "php", "ruby", "go", "rust",
	"html", "css", "sql", "r", "matlab", "scala", "kotlin", "swift",
	// frameworks and libraries
	"django", "flask", "react", "angular", "vue", "node.js", "express",
	"tensorflow", "pytorch", "scikit-learn", "pandas", "numpy",
	// databases
	"mysql", "postgresql", "mongodb", "redis", "elasticsearch",
	// tooling
	"docker", "kubernetes", "aws", "azure", "git", "jenkins", "linux",
	"apache", "nginx", "hadoop", "spark",
	// practices
	"agile", "scrum", "devops", "ci/cd", "machine learning", "deep learning",
	"data science", "big data", "intelligence artificielle",
}

var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*an[s]?\s*d['’]?experience`),
	regexp.MustCompile(`(\d+)\s*annee[s]?\s*d['’]?experience`),
	regexp.MustCompile(`experience\s*:\s*(\d+)\s*an[s]?`),
	regexp.MustCompile(`(\d+)\s*years?\s*of\s*experience`),
	regexp.MustCompile(`(\d+)\s*years?\s*experience`),
}

type domainKeywords struct {
	domain   string
	keywords []string
	skills   []string
}

// domainPriority is scanned in order; on equal scores the earlier domain wins.
var domainPriority = []domainKeywords{
	{
		domain:   DomainTech,
		keywords: []string{"développeur", "programmeur", "informatique", "software", "web", "mobile", "data", "ia", "intelligence artificielle", "python", "java", "javascript"},
		skills:   []string{"python", "java", "javascript", "react", "django", "sql", "html", "css"},
	},
	{
		domain:   DomainEducation,
		keywords: []string{"enseignant", "professeur", "éducation", "pédagogie", "formation", "école", "université", "mathématiques", "cours", "élève"},
	},
	{
		domain:   DomainLaw,
		keywords: []string{"avocat", "juriste", "droit", "juridique", "tribunal", "contentieux", "legal", "barreau", "cabinet"},
	},
	{
		domain:   DomainMarketing,
		keywords: []string{"marketing", "communication", "publicité", "digital", "social media", "seo", "campagne", "ads"},
	},
	{
		domain:   DomainFinance,
		keywords: []string{"comptable", "finance", "banque", "audit", "fiscalité", "contrôle de gestion"},
	},
	{
		domain:   DomainHealth,
		keywords: []string{"médecin", "infirmier", "santé", "médical", "pharmacie", "hôpital"},
	},
}

// CleanText NFC-normalizes text, replaces punctuation and symbols with
// spaces, collapses whitespace and lowercases the result.
func CleanText(text string) string {
	text = norm.NFC.String(text)
	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.Is(unicode.Mn, r) {
			b.WriteRune(unicode.ToLower(r))
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ExtractSkills returns the vocabulary terms contained in text, matched
// case-insensitively as substrings, in vocabulary order.
func ExtractSkills(text string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, skill := range SkillVocabulary {
		if strings.Contains(lower, skill) {
			found = append(found, skill)
		}
	}
	return found
}

// ExtractExperienceYears returns the number captured by the first matching
// experience pattern, or 0. Matching ignores case and accents.
func ExtractExperienceYears(text string) int {
	folded := foldAccents(strings.ToLower(text))
	for _, re := range experiencePatterns {
		m := re.FindStringSubmatch(folded)
		if m == nil {
			continue
		}
		years, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return years
	}
	return 0
}

// CategorizeDomain scores each domain by keyword hits in text (plus known
// tech skills for the tech domain) and returns the best one, or DomainOther
// when nothing matched.
func CategorizeDomain(text string, skills []string) string {
	lower := strings.ToLower(norm.NFC.String(text))
	have := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		have[s] = struct{}{}
	}

	best, bestScore := DomainOther, 0
	for _, d := range domainPriority {
		score := 0
		for _, kw := range d.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		for _, s := range d.skills {
			if _, ok := have[s]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = d.domain, score
		}
	}
	return best
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
