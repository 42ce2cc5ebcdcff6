package scraper

import (
	"errors"
	"testing"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/rs/zerolog"
)

func TestNewDefaultRegistry(t *testing.T) {
	registry, err := NewDefaultRegistry(Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	defer registry.Close()

	sources := registry.Sources()
	if len(sources) != len(models.AllSources) {
		t.Fatalf("expected %d scrapers, got %d", len(models.AllSources), len(sources))
	}
	for i, source := range models.AllSources {
		if sources[i] != source {
			t.Fatalf("expected %s at position %d, got %s", source, i, sources[i])
		}
		s, ok := registry.Get(source)
		if !ok || s.Name() != source {
			t.Fatalf("expected scraper for %s", source)
		}
	}
}

func TestNewDefaultRegistrySubset(t *testing.T) {
	registry, err := NewDefaultRegistry(Options{}, models.SourceStepstone, models.SourceIndeed)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	sources := registry.Sources()
	if len(sources) != 2 || sources[0] != models.SourceStepstone || sources[1] != models.SourceIndeed {
		t.Fatalf("unexpected sources: %v", sources)
	}
	if _, ok := registry.Get(models.SourceLinkedIn); ok {
		t.Fatalf("linkedin should not be registered")
	}
}

func TestNewUnknownSource(t *testing.T) {
	_, err := New(models.Source("monster"), Options{})
	if !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestBaseURLOverride(t *testing.T) {
	opts := Options{BaseURLs: map[models.Source]string{models.SourceIndeed: "http://127.0.0.1:9999"}}
	if got := opts.baseURL(models.SourceIndeed, indeedBaseURL); got != "http://127.0.0.1:9999" {
		t.Fatalf("expected override, got %s", got)
	}
	if got := opts.baseURL(models.SourceGlassdoor, glassdoorBaseURL); got != glassdoorBaseURL {
		t.Fatalf("expected fallback, got %s", got)
	}
}
