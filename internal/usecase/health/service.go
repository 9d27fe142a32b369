package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the database answers but search is not ready.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckDatabase = "database"
	CheckIndex    = "search_index"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db    DBPinger
	index IndexChecker
}

// New creates a Service. index can be nil.
func New(db DBPinger, index IndexChecker) *Service {
	return &Service{db: db, index: index}
}

// Check runs health checks against all components. The index is only checked
// when the database answers.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks[CheckDatabase] = CheckError
		if s.index != nil {
			checks[CheckIndex] = CheckError
		}
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks[CheckDatabase] = CheckOK

	status := Healthy
	if s.index != nil {
		ok, err := s.index.IndexReady(ctx)
		if err != nil || !ok {
			checks[CheckIndex] = CheckError
			status = Degraded
		} else {
			checks[CheckIndex] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
