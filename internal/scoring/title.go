package scoring

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
)

// Seniority levels, ordered.
const (
	levelIntern = iota + 1
	levelJunior
	levelMid
	levelSenior
	levelLead
	levelStaff
	levelPrincipal
)

var seniorityWords = map[string]int{
	"intern":       levelIntern,
	"internship":   levelIntern,
	"junior":       levelJunior,
	"jr":           levelJunior,
	"entry":        levelJunior,
	"mid":          levelMid,
	"midlevel":     levelMid,
	"intermediate": levelMid,
	"senior":       levelSenior,
	"sr":           levelSenior,
	"lead":         levelLead,
	"staff":        levelStaff,
	"principal":    levelPrincipal,
}

// roleSynonyms maps a token to its canonical role word.
var roleSynonyms = map[string]string{
	"engineer":      "engineer",
	"engineering":   "engineer",
	"developer":     "engineer",
	"dev":           "engineer",
	"programmer":    "engineer",
	"swe":           "engineer",
	"manager":       "manager",
	"mgr":           "manager",
	"administrator": "administrator",
	"admin":         "administrator",
	"sysadmin":      "administrator",
	"scientist":     "scientist",
	"analyst":       "analyst",
	"designer":      "designer",
	"architect":     "architect",
}

// compounds are merged before tokenizing so spelling variants compare equal.
var compounds = strings.NewReplacer(
	"front end", "frontend",
	"back end", "backend",
	"full stack", "fullstack",
	"mid level", "midlevel",
	"dev ops", "devops",
	"machine learning", "ml",
	"site reliability", "sre",
)

var titleStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "or": {}, "the": {}, "of": {}, "for": {}, "in": {},
	"at": {}, "to": {}, "with": {}, "m": {}, "w": {}, "f": {}, "d": {}, "x": {},
}

type titleTerms struct {
	normalized string
	core       map[string]string // canonical -> raw token
	levels     map[int]struct{}
}

func parseTitle(value string) titleTerms {
	normalized := compounds.Replace(normalizeText(value))
	normalized = strings.ReplaceAll(normalized, ",", " ")
	terms := titleTerms{
		normalized: strings.Join(strings.Fields(normalized), " "),
		core:       map[string]string{},
		levels:     map[int]struct{}{},
	}
	for _, token := range strings.Fields(normalized) {
		if _, skip := titleStopWords[token]; skip {
			continue
		}
		if level, ok := seniorityWords[token]; ok {
			terms.levels[level] = struct{}{}
			continue
		}
		canonical := token
		if role, ok := roleSynonyms[token]; ok {
			canonical = role
		}
		if _, exists := terms.core[canonical]; !exists {
			terms.core[canonical] = token
		}
	}
	return terms
}

func sameLevels(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for level := range a {
		if _, ok := b[level]; !ok {
			return false
		}
	}
	return true
}

func levelsOverlap(a, b map[int]struct{}) bool {
	for level := range a {
		if _, ok := b[level]; ok {
			return true
		}
	}
	return false
}

// crossLevelCeiling caps titles whose seniority does not overlap the query.
const crossLevelCeiling = 70

// levelDistance is the smallest gap between a level of a and a level of b.
func levelDistance(a, b map[int]struct{}) int {
	best := levelPrincipal
	for x := range a {
		for y := range b {
			d := x - y
			if d < 0 {
				d = -d
			}
			best = min(best, d)
		}
	}
	return best
}

// ScoreTitleRelevance grades how well the job title matches the query.
func ScoreTitleRelevance(job models.RawJob, criteria models.SearchCriteria, _ time.Time) Result {
	if strings.TrimSpace(criteria.Query) == "" {
		return result(0, 0, "No search query provided")
	}
	query := parseTitle(criteria.Query)
	title := parseTitle(job.Title)

	if query.normalized == title.normalized {
		return withKeywords(result(100, 0.95, "Exact title match"), job, criteria)
	}

	matched := 0
	synonym := false
	for canonical, raw := range query.core {
		titleRaw, ok := title.core[canonical]
		if !ok {
			continue
		}
		matched++
		if titleRaw != raw {
			synonym = true
		}
	}

	var (
		score      float64
		confidence float64
		reasons    []string
	)

	switch {
	case len(query.core) > 0 && matched == len(query.core) && matched == len(title.core) && sameLevels(query.levels, title.levels):
		score, confidence = 95, 0.9
		reasons = append(reasons, "Near-exact title match")
	case len(query.core) == 0:
		score, confidence = 30, 0.3
		reasons = append(reasons, "Query has no descriptive keywords")
	default:
		coverage := float64(matched) / float64(len(query.core))
		precision := 0.0
		if len(title.core) > 0 {
			precision = float64(matched) / float64(len(title.core))
		}
		overlap := 100 * (0.8*coverage + 0.2*precision)
		switch {
		case coverage >= 0.75:
			score = clamp(overlap, 76, 96)
			confidence = 0.85
			reasons = append(reasons, "Strong keyword match")
		case matched > 0:
			score = clamp(overlap, 41, 74)
			confidence = 0.6
			reasons = append(reasons, fmt.Sprintf("Partial keyword match (%d of %d terms)", matched, len(query.core)))
		default:
			score = 10
			confidence = 0.7
			reasons = append(reasons, "No keyword overlap with title")
		}
	}

	if synonym {
		reasons = append(reasons, "Role synonym match")
		if score < 65 {
			score = 65
		}
	}

	if len(query.levels) > 0 && len(title.levels) > 0 {
		if levelsOverlap(query.levels, title.levels) {
			score += 5
			reasons = append(reasons, "Seniority level match")
		} else {
			// A title at another level stays below a partial match at the
			// requested level, losing more the further apart the levels are.
			score = min(score-15*float64(levelDistance(query.levels, title.levels)), crossLevelCeiling)
			reasons = append(reasons, "Seniority level mismatch")
			for i, reason := range reasons {
				if reason == "Strong keyword match" {
					reasons[i] = "Keywords match at a different seniority level"
				}
			}
			if matched > 0 && score < 20 {
				score = 20
			}
		}
	}

	return withKeywords(result(score, confidence, reasons...), job, criteria)
}

// withKeywords adds a bounded bonus for criteria keywords present in the posting.
func withKeywords(r Result, job models.RawJob, criteria models.SearchCriteria) Result {
	if len(criteria.Keywords) == 0 {
		return r
	}
	text := normalizeText(job.Title + " " + job.Description)
	var hits []string
	for _, keyword := range criteria.Keywords {
		keyword = normalizeText(keyword)
		if keyword == "" {
			continue
		}
		if strings.Contains(text, keyword) {
			hits = append(hits, keyword)
		}
	}
	if len(hits) == 0 {
		return r
	}
	sort.Strings(hits)
	bonus := clamp(float64(len(hits))*3, 0, 10)
	r.Score = round2(clamp(r.Score+bonus, 0, 100))
	r.Reasons = append(r.Reasons, "Matches keywords: "+strings.Join(hits, ", "))
	return r
}
