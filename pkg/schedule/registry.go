// Package schedule holds the static registry of recurring background tasks.
// Descriptors are code-registered; execution belongs to the external workers.
package schedule

import (
	"strings"
	"time"

	"tripops/internal/model"

	"github.com/robfig/cron/v3"
)

// deepSuffix marks the deep-crawl variant of a schedule. The label keeps the
// suffix for display; history lookups match on the stripped type.
const deepSuffix = " (deep)"

// Descriptor is one registered recurring task.
type Descriptor struct {
	JobType     string // display label; may carry the deep-variant suffix
	Schedule    string // cron expression, five fields
	Description string
	Tracked     bool // false when the worker never writes job rows for this type
}

// Type returns the stored job type this descriptor's history is keyed by.
func (d Descriptor) Type() model.JobType {
	return Normalize(d.JobType)
}

// Normalize strips the deep-variant suffix from a schedule label.
func Normalize(label string) model.JobType {
	return model.JobType(strings.TrimSuffix(label, deepSuffix))
}

// Registry enumerates the platform's scheduled jobs.
type Registry struct {
	entries []Descriptor
	parser  cron.Parser
}

// NewRegistry creates the registry with the platform's schedule table.
func NewRegistry() *Registry {
	return &Registry{
		entries: []Descriptor{
			{
				JobType:     string(model.JobTypeContentRefresh),
				Schedule:    "0 3 * * *",
				Description: "Refresh tenant experience content from partner feeds",
				Tracked:     true,
			},
			{
				JobType:     string(model.JobTypeSEOOpportunityScan),
				Schedule:    "30 4 * * *",
				Description: "Scan search data for keyword opportunities",
				Tracked:     true,
			},
			{
				JobType:     string(model.JobTypeSEOOpportunityScan) + deepSuffix,
				Schedule:    "0 6 * * 1",
				Description: "Weekly deep-crawl variant of the opportunity scan",
				Tracked:     true,
			},
			{
				JobType:     string(model.JobTypeGSCSync),
				Schedule:    "0 * * * *",
				Description: "Pull Search Console metrics for all sites",
				Tracked:     true,
			},
			{
				JobType:     string(model.JobTypeSiteHealthCheck),
				Schedule:    "*/15 * * * *",
				Description: "Check tenant site reachability and certificate expiry",
				Tracked:     true,
			},
			{
				JobType:     string(model.JobTypeDomainRenewalCheck),
				Schedule:    "0 8 * * *",
				Description: "Flag domains approaching their renewal window",
				Tracked:     true,
			},
			{
				JobType:     string(model.JobTypeAnalyticsRollup),
				Schedule:    "15 1 * * *",
				Description: "Roll up per-site analytics into daily aggregates",
				Tracked:     true,
			},
			{
				JobType:     string(model.JobTypeABTestEvaluate),
				Schedule:    "45 2 * * *",
				Description: "Evaluate running A/B experiments for significance",
				Tracked:     true,
			},
			{
				JobType:     string(model.JobTypeAutonomousRoadmap),
				Schedule:    "0 7 * * 1",
				Description: "Plan the content roadmap; runs entirely inside its worker",
				Tracked:     false,
			},
			{
				JobType:     string(model.JobTypeWeeklyBlogGenerate),
				Schedule:    "0 9 * * 2",
				Description: "Generate the weekly blog digest; runs entirely inside its worker",
				Tracked:     false,
			},
		},
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// List returns all registered descriptors in display order.
func (r *Registry) List() []Descriptor {
	return append([]Descriptor(nil), r.entries...)
}

// NextRun computes the next firing time of a schedule after now, or nil when
// the expression does not parse.
func (r *Registry) NextRun(d Descriptor, now time.Time) *time.Time {
	sched, err := r.parser.Parse(d.Schedule)
	if err != nil {
		return nil
	}
	next := sched.Next(now)
	if next.IsZero() {
		return nil
	}
	return &next
}
