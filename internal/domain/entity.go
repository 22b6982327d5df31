package domain

import (
	"fmt"
	"strings"
)

// Entity names a searchable record type.
type Entity string

// Searchable entities. Values double as HTTP path segments.
const (
	EntityGranule              Entity = "granules"
	EntityCollection           Entity = "collections"
	EntityProvider             Entity = "providers"
	EntityPdr                  Entity = "pdrs"
	EntityExecution            Entity = "executions"
	EntityAsyncOperation       Entity = "asyncOperations"
	EntityReconciliationReport Entity = "reconciliationReports"
	EntityRule                 Entity = "rules"
)

// Entities lists every searchable entity in a stable order.
func Entities() []Entity {
	return []Entity{
		EntityGranule, EntityCollection, EntityProvider, EntityPdr,
		EntityExecution, EntityAsyncOperation, EntityReconciliationReport, EntityRule,
	}
}

// ParseEntity accepts the plural path form and the singular aggregate "type" form.
func ParseEntity(s string) (Entity, error) {
	for _, e := range Entities() {
		if s == string(e) || s == strings.TrimSuffix(string(e), "s") {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
}

// CollectionIDSeparator joins collection name and version into one identifier.
const CollectionIDSeparator = "___"

// ConstructCollectionID builds the external collection identifier.
func ConstructCollectionID(name, version string) string {
	return name + CollectionIDSeparator + version
}

// DeconstructCollectionID splits an identifier on its last separator.
func DeconstructCollectionID(id string) (name, version string, err error) {
	i := strings.LastIndex(id, CollectionIDSeparator)
	if i < 0 {
		return "", "", fmt.Errorf("%w: collection id %q has no version", ErrInvalidParameter, id)
	}
	return id[:i], id[i+len(CollectionIDSeparator):], nil
}
