package health

import (
	"context"
	"sort"
	"time"
)

const pingTimeout = 2 * time.Second

// Check pings one dependency.
type Check func(ctx context.Context) error

// Service encapsulates health-related checks.
type Service struct {
	checks map[string]Check
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: map[string]Check{}}
}

// Register adds a named dependency check. A nil check is ignored.
func (s *Service) Register(name string, check Check) {
	if check == nil {
		return
	}
	s.checks[name] = check
}

// Report is the health payload.
type Report struct {
	OK           bool              `json:"ok"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Status runs every registered check. OK is false if any check fails.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true}
	if len(s.checks) == 0 {
		return report
	}
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report.Dependencies = make(map[string]string, len(names))
	for _, name := range names {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := s.checks[name](pingCtx)
		cancel()
		if err != nil {
			report.OK = false
			report.Dependencies[name] = "down"
			continue
		}
		report.Dependencies[name] = "up"
	}
	return report
}
