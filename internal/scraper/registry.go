package scraper

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/MrJJimenez/jobscout/internal/network"
	"github.com/rs/zerolog"
)

// ErrUnknownSource is returned for a source without a registered scraper.
var ErrUnknownSource = errors.New("unknown source")

// AdzunaCredentials authenticate against the Adzuna search API.
type AdzunaCredentials struct {
	AppID   string
	AppKey  string
	Country string
}

// Options configures every scraper built by NewDefaultRegistry.
type Options struct {
	Rotator    *network.Rotator
	HTTP       network.Options
	Retry      RetryPolicy
	Logger     zerolog.Logger
	Now        func() time.Time
	ChromePath string
	Adzuna     AdzunaCredentials

	// BaseURLs overrides the site root per source.
	BaseURLs map[models.Source]string
}

func (o Options) openClient() (*network.Client, error) {
	return network.NewClient(o.Rotator, o.HTTP)
}

func (o Options) baseURL(source models.Source, fallback string) string {
	if value, ok := o.BaseURLs[source]; ok && value != "" {
		return value
	}
	return fallback
}

// Registry holds one scraper per source in a fixed order.
type Registry struct {
	scrapers map[models.Source]Scraper
	order    []models.Source
}

// NewRegistry registers the given scrapers. A later scraper for the same
// source replaces an earlier one.
func NewRegistry(scrapers ...Scraper) *Registry {
	r := &Registry{scrapers: make(map[models.Source]Scraper, len(scrapers))}
	for _, s := range scrapers {
		if _, ok := r.scrapers[s.Name()]; !ok {
			r.order = append(r.order, s.Name())
		}
		r.scrapers[s.Name()] = s
	}
	return r
}

// NewDefaultRegistry builds the scrapers for sources, or for every known
// source when none are given.
func NewDefaultRegistry(opts Options, sources ...models.Source) (*Registry, error) {
	if len(sources) == 0 {
		sources = models.AllSources
	}
	scrapers := make([]Scraper, 0, len(sources))
	for _, source := range sources {
		s, err := New(source, opts)
		if err != nil {
			return nil, err
		}
		scrapers = append(scrapers, s)
	}
	return NewRegistry(scrapers...), nil
}

// New builds the scraper for source.
func New(source models.Source, opts Options) (Scraper, error) {
	switch source {
	case models.SourceLinkedIn:
		return NewLinkedIn(opts), nil
	case models.SourceIndeed:
		return NewIndeed(opts), nil
	case models.SourceGlassdoor:
		return NewGlassdoor(opts), nil
	case models.SourceZipRecruiter:
		return NewZipRecruiter(opts), nil
	case models.SourceStepstone:
		return NewStepstone(opts), nil
	case models.SourceAdzuna:
		return NewAdzuna(opts), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
}

// Get returns the scraper registered for source.
func (r *Registry) Get(source models.Source) (Scraper, bool) {
	s, ok := r.scrapers[source]
	return s, ok
}

// Sources lists registered sources in registration order.
func (r *Registry) Sources() []models.Source {
	return append([]models.Source(nil), r.order...)
}

// Close releases every scraper and reports the first failure.
func (r *Registry) Close() error {
	var first error
	for _, source := range r.order {
		if err := r.scrapers[source].Close(); err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", source, err)
		}
	}
	return first
}
