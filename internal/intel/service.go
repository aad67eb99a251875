package intel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hmiddleton/schoolpitch/internal/dataset"
	"github.com/hmiddleton/schoolpitch/internal/errors"
	"github.com/hmiddleton/schoolpitch/internal/models"
	"github.com/hmiddleton/schoolpitch/internal/ofsted"
	"github.com/hmiddleton/schoolpitch/internal/starters"
)

// ErrSchoolNotFound is returned by lookups for identifiers outside the
// loaded dataset.
var ErrSchoolNotFound = errors.NewSentinel("school not found")

// Analysis is one research result for a school: the merged record with
// starters attached, plus the report analysis when it was requested. Error
// carries any partial failure in plain words; an Analysis with a non-empty
// Error is still usable.
type Analysis struct {
	School        *models.School               `json:"school"`
	Starters      []models.ConversationStarter `json:"conversation_starters"`
	Summary       string                       `json:"summary,omitempty"`
	SalesPriority models.Priority              `json:"sales_priority"`
	Ofsted        *models.OfstedAnalysis       `json:"ofsted,omitempty"`
	Error         string                       `json:"error,omitempty"`
	GeneratedAt   time.Time                    `json:"generated_at"`
}

// Service owns the dataset snapshot and the analysis pipeline. Reads hit the
// current snapshot without locking it; Refresh builds a new snapshot and
// swaps it in. Analyses are cached per school because report discovery and
// text generation are slow and cost money.
type Service struct {
	logger    *slog.Logger
	loader    *dataset.Loader
	analyzer  *ofsted.Analyzer
	generator *starters.Generator

	mu    sync.RWMutex
	store *dataset.Store

	cacheMu sync.Mutex
	cache   map[string]*Analysis
}

func NewService(logger *slog.Logger, loader *dataset.Loader, analyzer *ofsted.Analyzer, generator *starters.Generator) *Service {
	return &Service{
		logger:    logger,
		loader:    loader,
		analyzer:  analyzer,
		generator: generator,
		cache:     make(map[string]*Analysis),
	}
}

// LoadAll performs the initial dataset load. The Service is not usable
// before LoadAll has succeeded once.
func (s *Service) LoadAll() error {
	store, err := s.loader.Load()
	if err != nil {
		return errors.Wrap(err, "load dataset")
	}
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
	return nil
}

// Refresh rebuilds the dataset from the source files and swaps it in. The
// analysis cache is dropped because cached results point at the old records.
// On failure the previous snapshot stays live.
func (s *Service) Refresh() (dataset.Statistics, error) {
	store, err := s.loader.Load()
	if err != nil {
		return dataset.Statistics{}, errors.Wrap(err, "refresh dataset")
	}
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()

	s.cacheMu.Lock()
	s.cache = make(map[string]*Analysis)
	s.cacheMu.Unlock()

	s.logger.Info("dataset refreshed", slog.Int("schools", store.Count()))
	return store.Statistics(), nil
}

func (s *Service) snapshot() *dataset.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

func (s *Service) ByURN(urn string) (*models.School, error) {
	school, ok := s.snapshot().ByURN(urn)
	if !ok {
		return nil, errors.Wrap(ErrSchoolNotFound, "look up school", slog.String("urn", urn))
	}
	return school, nil
}

func (s *Service) ByName(name string) (*models.School, error) {
	school, ok := s.snapshot().ByName(name)
	if !ok {
		return nil, errors.Wrap(ErrSchoolNotFound, "look up school", slog.String("name", name))
	}
	return school, nil
}

func (s *Service) Search(query string) []*models.School {
	return s.snapshot().Search(query)
}

func (s *Service) Names() []string {
	return s.snapshot().Names()
}

func (s *Service) All() []*models.School {
	return s.snapshot().All()
}

func (s *Service) Statistics() dataset.Statistics {
	return s.snapshot().Statistics()
}

func (s *Service) ByLocalAuthority(name string) []*models.School {
	return s.snapshot().ByLocalAuthority(name)
}

func (s *Service) LocalAuthorities() []string {
	return s.snapshot().LocalAuthorities()
}

func (s *Service) TopSpenders(limit int) []*models.School {
	return s.snapshot().TopSpenders(limit)
}

func (s *Service) TopSENDSchools(limit int) []*models.School {
	return s.snapshot().TopSENDSchools(limit)
}

// AnalyzedSchool returns the school with its cached conversation starters
// attached, preferring the analysis that includes the inspection report.
// Without a cached analysis the plain dataset record is returned.
func (s *Service) AnalyzedSchool(urn string) (*models.School, error) {
	school, err := s.ByURN(urn)
	if err != nil {
		return nil, err
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if cached, ok := s.cache[school.URN+"+ofsted"]; ok {
		return cached.School, nil
	}
	if cached, ok := s.cache[school.URN]; ok {
		return cached.School, nil
	}
	return school, nil
}

// Analyze produces starters for a school from its dataset record. Channel
// failures degrade: a school is never unanalyzable, the worst case is an
// Analysis with no starters and an explanation in Error.
func (s *Service) Analyze(ctx context.Context, urn string, count int, force bool) (*Analysis, error) {
	return s.analyze(ctx, urn, count, force, false)
}

// AnalyzeWithOfsted additionally runs the inspection-report pipeline. When
// report discovery fails, Ofsted stays nil and Error says why; the dataset
// channels still contribute.
func (s *Service) AnalyzeWithOfsted(ctx context.Context, urn string, count int, force bool) (*Analysis, error) {
	return s.analyze(ctx, urn, count, force, true)
}

func (s *Service) analyze(ctx context.Context, urn string, count int, force, includeOfsted bool) (*Analysis, error) {
	school, err := s.ByURN(urn)
	if err != nil {
		return nil, err
	}

	key := school.URN
	if includeOfsted {
		key += "+ofsted"
	}
	if !force {
		s.cacheMu.Lock()
		cached, ok := s.cache[key]
		s.cacheMu.Unlock()
		if ok {
			return cached, nil
		}
	}

	analysis := &Analysis{
		SalesPriority: school.SalesPriority(),
		GeneratedAt:   time.Now(),
	}
	var failures []error

	record := *school
	record.ConversationStarters = nil
	record.Ofsted = nil

	if includeOfsted {
		result, err := s.analyzer.Analyze(ctx, school.Name)
		if err != nil {
			s.logger.Warn("inspection report analysis failed",
				slog.String("urn", school.URN),
				errors.SlogError(err))
			failures = append(failures, err)
		} else {
			analysis.Ofsted = result
			record.Ofsted = result.OfstedData()
			analysis.Starters = append(analysis.Starters, starters.FromOfsted(result)...)
		}
	}

	financial, err := s.generator.Financial(ctx, &record, count)
	if err != nil {
		s.logger.Warn("financial starters unavailable",
			slog.String("urn", school.URN),
			errors.SlogError(err))
		failures = append(failures, err)
	} else {
		analysis.Starters = append(analysis.Starters, financial.Starters...)
		analysis.Summary = financial.Summary
	}

	analysis.Starters = append(analysis.Starters, starters.FromSEND(school.SEND)...)

	if len(failures) > 0 {
		analysis.Error = errors.Join(failures...).Error()
	}

	record.ConversationStarters = analysis.Starters
	analysis.School = &record

	s.cacheMu.Lock()
	s.cache[key] = analysis
	s.cacheMu.Unlock()
	return analysis, nil
}
