package metasearch

import (
	"github.com/kailas-cloud/metasearch/internal/domain"
	healthuc "github.com/kailas-cloud/metasearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/metasearch/internal/usecase/search"
	statsuc "github.com/kailas-cloud/metasearch/internal/usecase/stats"
)

// Entity names a searchable record type.
type Entity = domain.Entity

// Searchable entities.
const (
	Granules              = domain.EntityGranule
	Collections           = domain.EntityCollection
	Providers             = domain.EntityProvider
	Pdrs                  = domain.EntityPdr
	Executions            = domain.EntityExecution
	AsyncOperations       = domain.EntityAsyncOperation
	ReconciliationReports = domain.EntityReconciliationReport
	Rules                 = domain.EntityRule
)

// Response types shared with the HTTP API.
type (
	// Response is one page of translated records plus meta.
	Response = searchuc.Response
	// Meta describes a search response.
	Meta = searchuc.Meta
	// AggregateResponse lists field groups by count descending.
	AggregateResponse = statsuc.AggregateResponse
	// Bucket is one aggregate group.
	Bucket = statsuc.Bucket
	// Summary is the granule metric bundle.
	Summary = statsuc.Summary
	// Metric is one summary figure.
	Metric = statsuc.Metric
	// HealthReport aggregates backend checks.
	HealthReport = healthuc.Report
)

// CollectionID builds the "name___version" identifier used by collectionId filters.
func CollectionID(name, version string) string {
	return domain.ConstructCollectionID(name, version)
}
