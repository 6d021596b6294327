package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.db.dsn").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

var metricsBackends = map[string]bool{"": true, "none": true, "pushgateway": true, "datadog": true}

// Validate performs static checks over cfg. storageKinds lists the storage
// kinds compiled into the binary; a nil list skips the storage kind check.
func Validate(cfg Run, storageKinds []string) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, a ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	if strings.TrimSpace(cfg.Job) == "" {
		add(SeverityWarning, "job", "job is empty; metrics and history rows will have no job label")
	}
	if strings.TrimSpace(cfg.Input.Path) == "" {
		add(SeverityError, "input.path", "input path is required")
	}
	if cfg.Runtime.Workers < 0 {
		add(SeverityError, "runtime.workers", "workers must be >= 0, got %d", cfg.Runtime.Workers)
	}

	switch b := cfg.Metrics.Backend; {
	case !metricsBackends[b]:
		add(SeverityError, "metrics.backend", "unknown metrics backend %q (want none, pushgateway, datadog)", b)
	case b == "pushgateway" && cfg.Metrics.PushgatewayURL == "":
		add(SeverityError, "metrics.pushgateway_url", "pushgateway backend needs a URL")
	case b == "datadog" && cfg.Metrics.DatadogAddr == "":
		add(SeverityError, "metrics.datadog_addr", "datadog backend needs an agent address")
	}

	if kind := cfg.Storage.Kind; kind != "" {
		if storageKinds != nil && !contains(storageKinds, kind) {
			add(SeverityError, "storage.kind", "unsupported storage kind %q (have %s)", kind, strings.Join(storageKinds, ", "))
		}
		if strings.TrimSpace(cfg.Storage.DB.DSN) == "" {
			add(SeverityError, "storage.db.dsn", "storage kind %q needs a DSN", kind)
		}
		if strings.TrimSpace(cfg.Storage.DB.Table) == "" {
			add(SeverityError, "storage.db.table", "storage kind %q needs a table", kind)
		}
	}

	if cfg.Watch.DebounceMS < 0 {
		add(SeverityError, "watch.debounce_ms", "debounce must be >= 0, got %d", cfg.Watch.DebounceMS)
	}
	return issues
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
