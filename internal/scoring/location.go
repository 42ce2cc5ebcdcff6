package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/xrash/smetrics"
)

const citySimilarityThreshold = 0.8

var remoteTerms = []string{
	"remote",
	"work from home",
	"wfh",
	"anywhere",
	"telecommute",
	"home office",
	"homeoffice",
}

var usStates = map[string]string{
	"alabama": "al", "alaska": "ak", "arizona": "az", "arkansas": "ar", "california": "ca",
	"colorado": "co", "connecticut": "ct", "delaware": "de", "florida": "fl", "georgia": "ga",
	"hawaii": "hi", "idaho": "id", "illinois": "il", "indiana": "in", "iowa": "ia",
	"kansas": "ks", "kentucky": "ky", "louisiana": "la", "maine": "me", "maryland": "md",
	"massachusetts": "ma", "michigan": "mi", "minnesota": "mn", "mississippi": "ms",
	"missouri": "mo", "montana": "mt", "nebraska": "ne", "nevada": "nv", "new hampshire": "nh",
	"new jersey": "nj", "new mexico": "nm", "new york": "ny", "north carolina": "nc",
	"north dakota": "nd", "ohio": "oh", "oklahoma": "ok", "oregon": "or", "pennsylvania": "pa",
	"rhode island": "ri", "south carolina": "sc", "south dakota": "sd", "tennessee": "tn",
	"texas": "tx", "utah": "ut", "vermont": "vt", "virginia": "va", "washington": "wa",
	"west virginia": "wv", "wisconsin": "wi", "wyoming": "wy", "district of columbia": "dc",
}

var stateCodes = func() map[string]struct{} {
	codes := make(map[string]struct{}, len(usStates))
	for _, code := range usStates {
		codes[code] = struct{}{}
	}
	return codes
}()

type place struct {
	raw    string
	city   string
	region string
	remote bool
}

func parsePlace(value string) place {
	normalized := normalizeText(value)
	p := place{raw: strings.ReplaceAll(normalized, ",", " ")}
	p.raw = strings.Join(strings.Fields(p.raw), " ")
	p.remote = containsAny(normalized, remoteTerms)

	var parts []string
	for _, part := range strings.Split(normalized, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return p
	}
	p.city = parts[0]
	if len(parts) > 1 {
		p.region = canonicalRegion(parts[1])
		return p
	}

	// A lone state ("Texas", "TX") is a region. The city is kept so
	// "New York" still matches the city of the same name.
	if region := canonicalRegion(p.city); isStateCode(region) {
		p.region = region
		return p
	}

	// "Austin TX" carries the region as a trailing code.
	words := strings.Fields(p.city)
	if len(words) > 1 {
		last := words[len(words)-1]
		if isStateCode(last) {
			p.city = strings.Join(words[:len(words)-1], " ")
			p.region = last
		}
	}
	return p
}

func canonicalRegion(value string) string {
	value = strings.TrimSpace(value)
	if code, ok := usStates[value]; ok {
		return code
	}
	return value
}

func isStateCode(value string) bool {
	_, ok := stateCodes[value]
	return ok
}

// knownLocation reports whether value carries an actual location rather than
// a blank or the placeholder set during normalization.
func knownLocation(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && value != models.UnknownLocation
}

func citySimilarity(a, b string) float64 {
	a = strings.ReplaceAll(a, " ", "")
	b = strings.ReplaceAll(b, " ", "")
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	distance := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return 1 - float64(distance)/float64(longest)
}

// ScoreLocation compares the job location with the criteria location and
// every preferred location, keeping the best match.
func ScoreLocation(job models.RawJob, criteria models.SearchCriteria, _ time.Time) Result {
	var targets []string
	if strings.TrimSpace(criteria.Location) != "" {
		targets = append(targets, criteria.Location)
	}
	for _, preferred := range criteria.PreferredLocations {
		if strings.TrimSpace(preferred) != "" {
			targets = append(targets, preferred)
		}
	}
	if len(targets) == 0 {
		return result(50, 0.5, "No location preference specified")
	}
	if !knownLocation(job.Location) {
		return result(40, 0.3, "Job location not specified")
	}

	jobPlace := parsePlace(job.Location)
	best := Result{Score: -1}
	for _, target := range targets {
		candidate := matchPlace(jobPlace, parsePlace(target), target)
		if candidate.Score > best.Score {
			best = candidate
		}
	}
	return best
}

func matchPlace(job place, target place, targetLabel string) Result {
	if job.remote {
		return result(100, 1.0, "Remote position, location independent")
	}
	if job.raw == target.raw {
		return result(100, 0.95, "Exact location match")
	}
	if target.remote {
		return result(25, 0.8, fmt.Sprintf("Different location: on-site in %s, remote preferred", strings.TrimSpace(job.city)))
	}

	regionsConflict := job.region != "" && target.region != "" && job.region != target.region
	if similarity := citySimilarity(job.city, target.city); similarity >= citySimilarityThreshold && !regionsConflict {
		score := 85 + 10*(similarity-citySimilarityThreshold)/(1-citySimilarityThreshold)
		return result(score, 0.7+0.2*similarity, "Location in the same city")
	}
	if job.region != "" && job.region == target.region {
		return result(70, 0.7, fmt.Sprintf("Location in the same state/region (%s)", strings.ToUpper(job.region)))
	}
	return result(25, 0.8, fmt.Sprintf("Different location than %s", strings.TrimSpace(targetLabel)))
}
