package property

import (
	"github.com/kailas-cloud/propsales/internal/db"
	"github.com/kailas-cloud/propsales/internal/domain/search/query"
)

// addressTagSeparator keeps each address a single tag: addresses contain
// commas, the FT.CREATE default separator.
const addressTagSeparator = "|"

// buildIndex declares the filterable and sortable fields of a property document.
func buildIndex(name, prefix string) *db.IndexDefinition {
	return db.NewIndex(name).
		OnJSON().
		Prefix(prefix).
		TagWithOpts("$."+query.FieldAddress, addressTagSeparator, false).As(query.FieldAddress).
		Tag("$."+query.FieldCounty).As(query.FieldCounty).
		Tag("$."+query.FieldSecondHand).As(query.FieldSecondHand).
		Numeric("$."+query.FieldSaleTS).As(query.FieldSaleTS).Sortable().
		Numeric("$."+query.FieldPrice).As(query.FieldPrice).
		MustBuild()
}
