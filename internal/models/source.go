package models

import "strings"

// Source identifies the external job board a posting was retrieved from.
type Source string

const (
	SourceLinkedIn     Source = "linkedin"
	SourceIndeed       Source = "indeed"
	SourceGlassdoor    Source = "glassdoor"
	SourceZipRecruiter Source = "ziprecruiter"
	SourceStepstone    Source = "stepstone"
	SourceAdzuna       Source = "adzuna"
)

// AllSources lists every known source in their canonical order.
var AllSources = []Source{
	SourceLinkedIn,
	SourceIndeed,
	SourceGlassdoor,
	SourceZipRecruiter,
	SourceStepstone,
	SourceAdzuna,
}

// ParseSource resolves a user supplied source name, accepting a few aliases.
func ParseSource(value string) (Source, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.TrimPrefix(value, "www.")
	switch value {
	case "zip", "zip-recruiter":
		value = string(SourceZipRecruiter)
	case "stepstone.de", "stepstone-de":
		value = string(SourceStepstone)
	}
	for _, source := range AllSources {
		if string(source) == value {
			return source, true
		}
	}
	return "", false
}

func (s Source) String() string {
	return string(s)
}
