// Package matching decides which volunteers are eligible for an event. It works on
// plain values and performs no I/O; callers load events and profiles and hand them in.
package matching

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// Event is the subset of an event consulted by the criteria.
type Event struct {
	ID             string
	Date           time.Time
	Location       string
	RequiredSkills []string
}

// Volunteer is a match candidate.
type Volunteer struct {
	ID             string
	Name           string
	Skills         []string
	City           string
	State          string
	AvailableFrom  *time.Time
	AvailableUntil *time.Time
}

// Criterion is a single eligibility predicate. All criteria must accept a volunteer
// for it to be eligible.
type Criterion interface {
	Name() string
	Accept(event Event, volunteer Volunteer) bool
}

// Step describes the result of applying one filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Engine applies the already-assigned exclusion followed by its criteria.
type Engine struct {
	criteria []Criterion
	logger   *zap.Logger
}

// DefaultCriteria returns skill coverage, availability and location, in that order.
func DefaultCriteria() []Criterion {
	return []Criterion{SkillCoverage{}, Availability{}, Location{}}
}

// NewEngine builds an engine. When no criteria are supplied DefaultCriteria is used.
func NewEngine(logger *zap.Logger, criteria ...Criterion) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(criteria) == 0 {
		criteria = DefaultCriteria()
	}
	return &Engine{criteria: criteria, logger: logger}
}

// Filter returns the candidates that are not in assigned and satisfy every
// criterion. Candidate order is preserved.
func (e *Engine) Filter(event Event, candidates []Volunteer, assigned map[string]struct{}) []Volunteer {
	remaining := make([]Volunteer, 0, len(candidates))
	for _, v := range candidates {
		if _, ok := assigned[v.ID]; ok {
			continue
		}
		remaining = append(remaining, v)
	}
	e.logStep(event, "already_assigned", Step{
		Initial: len(candidates),
		Dropped: len(candidates) - len(remaining),
		Left:    len(remaining),
	})

	for _, criterion := range e.criteria {
		initial := len(remaining)
		kept := remaining[:0]
		for _, v := range remaining {
			if criterion.Accept(event, v) {
				kept = append(kept, v)
			}
		}
		remaining = kept
		e.logStep(event, criterion.Name(), Step{Initial: initial, Dropped: initial - len(remaining), Left: len(remaining)})
	}

	return remaining
}

func (e *Engine) logStep(event Event, name string, step Step) {
	e.logger.Debug("match step",
		zap.String("event_id", event.ID),
		zap.String("name", name),
		zap.Int("initial", step.Initial),
		zap.Int("dropped", step.Dropped),
		zap.Int("left", step.Left),
	)
}

// SkillCoverage requires every event skill to be present in the volunteer's set.
type SkillCoverage struct{}

func (SkillCoverage) Name() string { return "skills" }

func (SkillCoverage) Accept(event Event, volunteer Volunteer) bool {
	if len(event.RequiredSkills) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(volunteer.Skills))
	for _, s := range volunteer.Skills {
		have[s] = struct{}{}
	}
	for _, required := range event.RequiredSkills {
		if _, ok := have[required]; !ok {
			return false
		}
	}
	return true
}

// Availability requires the event date to fall inside the volunteer's inclusive
// window, compared by calendar day in UTC. A window missing either bound is open.
type Availability struct{}

func (Availability) Name() string { return "availability" }

func (Availability) Accept(event Event, volunteer Volunteer) bool {
	if volunteer.AvailableFrom == nil || volunteer.AvailableUntil == nil {
		return true
	}
	if event.Date.IsZero() {
		return false
	}
	day := truncateDay(event.Date)
	return !day.Before(truncateDay(*volunteer.AvailableFrom)) && !day.After(truncateDay(*volunteer.AvailableUntil))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Location requires the volunteer's city and state to both appear in the event's
// free-text location. The comparison is a case-sensitive substring test.
type Location struct{}

func (Location) Name() string { return "location" }

func (Location) Accept(event Event, volunteer Volunteer) bool {
	city := strings.TrimSpace(volunteer.City)
	state := strings.TrimSpace(volunteer.State)
	if city == "" || state == "" {
		return false
	}
	return strings.Contains(event.Location, city) && strings.Contains(event.Location, state)
}
