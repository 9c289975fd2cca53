// Package store persists completed opportunity reports. Two drivers are
// provided: sqlite for single-host deployments and postgres for shared ones.
package store

import (
	"context"

	"github.com/sells-group/market-scout/internal/model"
)

// ReportFilter specifies criteria for listing saved reports.
type ReportFilter struct {
	BusinessTerm string `json:"businessTerm,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for analysis reports.
type Store interface {
	SaveReport(ctx context.Context, businessTerm string, report model.OpportunityReport) (*model.SavedReport, error)
	GetReport(ctx context.Context, id string) (*model.SavedReport, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]model.SavedReport, error)

	Migrate(ctx context.Context) error
	Close() error
}
