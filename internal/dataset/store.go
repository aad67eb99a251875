package dataset

import (
	"sort"
	"strings"

	"github.com/hmiddleton/schoolpitch/internal/models"
)

// Store is an immutable snapshot of the merged dataset. A refresh builds a
// new Store and swaps the reference; nothing mutates a Store after newStore
// returns, so reads need no locking.
type Store struct {
	schools []*models.School
	byURN   map[string]*models.School
	byName  map[string]*models.School
}

func newStore(schools []*models.School) *Store {
	s := &Store{
		schools: schools,
		byURN:   make(map[string]*models.School, len(schools)),
		byName:  make(map[string]*models.School, len(schools)),
	}
	for _, school := range schools {
		s.byURN[school.URN] = school
		s.byName[strings.ToLower(school.Name)] = school
	}
	return s
}

// All returns every school, sorted by name. Callers must not mutate the
// returned slice or the schools it points to.
func (s *Store) All() []*models.School {
	return s.schools
}

func (s *Store) Count() int {
	return len(s.schools)
}

// ByURN looks a school up by its cleaned identifier. Raw identifiers with
// spreadsheet float artefacts are accepted.
func (s *Store) ByURN(urn string) (*models.School, bool) {
	school, ok := s.byURN[CleanURN(urn)]
	return school, ok
}

// ByName looks a school up by exact name, case-insensitively.
func (s *Store) ByName(name string) (*models.School, bool) {
	school, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	return school, ok
}

// Names returns every school name in sorted order, for autocompletion.
func (s *Store) Names() []string {
	names := make([]string, len(s.schools))
	for i, school := range s.schools {
		names[i] = school.Name
	}
	return names
}

// Search returns schools whose name contains the query, case-insensitively.
// An empty query matches nothing.
func (s *Store) Search(query string) []*models.School {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var matches []*models.School
	for _, school := range s.schools {
		if strings.Contains(strings.ToLower(school.Name), query) {
			matches = append(matches, school)
		}
	}
	return matches
}

// ByPriority returns schools whose financial sales priority matches.
func (s *Store) ByPriority(priority models.Priority) []*models.School {
	var matches []*models.School
	for _, school := range s.schools {
		if school.SalesPriority() == priority {
			matches = append(matches, school)
		}
	}
	return matches
}

// ByLocalAuthority returns schools in the named local authority.
func (s *Store) ByLocalAuthority(name string) []*models.School {
	name = strings.ToLower(strings.TrimSpace(name))
	var matches []*models.School
	for _, school := range s.schools {
		if strings.ToLower(school.LAName) == name {
			matches = append(matches, school)
		}
	}
	return matches
}

// LocalAuthorities returns the distinct local authority names, sorted.
func (s *Store) LocalAuthorities() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, school := range s.schools {
		if school.LAName == "" {
			continue
		}
		if _, ok := seen[school.LAName]; !ok {
			seen[school.LAName] = struct{}{}
			names = append(names, school.LAName)
		}
	}
	sort.Strings(names)
	return names
}

// TopSpenders returns up to limit schools ordered by total teaching and
// support staff costs, highest first. Schools without the figure are skipped.
func (s *Store) TopSpenders(limit int) []*models.School {
	var reported []*models.School
	for _, school := range s.schools {
		if school.Financial != nil && school.Financial.TotalTeachingSupportCosts != nil {
			reported = append(reported, school)
		}
	}
	sort.SliceStable(reported, func(i, j int) bool {
		return *reported[i].Financial.TotalTeachingSupportCosts > *reported[j].Financial.TotalTeachingSupportCosts
	})
	if len(reported) > limit {
		reported = reported[:limit]
	}
	return reported
}

// TopSENDSchools returns up to limit schools ordered by SEND priority score,
// highest first. Schools with a zero score are skipped.
func (s *Store) TopSENDSchools(limit int) []*models.School {
	var scored []*models.School
	for _, school := range s.schools {
		if school.SEND.PriorityScore() > 0 {
			scored = append(scored, school)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].SEND.PriorityScore() > scored[j].SEND.PriorityScore()
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Statistics summarises the loaded dataset for the stats endpoint and CLI.
type Statistics struct {
	TotalSchools     int `json:"total_schools"`
	WithFinancial    int `json:"with_financial"`
	WithSEND         int `json:"with_send"`
	HighPriority     int `json:"high_priority"`
	MediumPriority   int `json:"medium_priority"`
	LowPriority      int `json:"low_priority"`
	UnknownPriority  int `json:"unknown_priority"`
	SENDHighPriority int `json:"send_high_priority"`
	WithSENUnit      int `json:"with_sen_unit"`
}

func (s *Store) Statistics() Statistics {
	stats := Statistics{TotalSchools: len(s.schools)}
	for _, school := range s.schools {
		if school.Financial.HasData() {
			stats.WithFinancial++
		}
		if school.SEND.HasData() {
			stats.WithSEND++
		}
		switch school.SalesPriority() {
		case models.PriorityHigh:
			stats.HighPriority++
		case models.PriorityMedium:
			stats.MediumPriority++
		case models.PriorityLow:
			stats.LowPriority++
		default:
			stats.UnknownPriority++
		}
		if school.SEND != nil {
			if school.SEND.PriorityLevel() == models.PriorityHigh {
				stats.SENDHighPriority++
			}
			if school.SEND.HasSENUnit {
				stats.WithSENUnit++
			}
		}
	}
	return stats
}
