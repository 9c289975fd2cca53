package overpass

import (
	"fmt"

	"github.com/sells-group/market-scout/internal/model"
)

// Overpass derives area ids for relations by adding this offset to the
// relation id.
const areaIDOffset = 3600000000

// aroundQuery builds an Overpass QL query for all nodes and ways carrying
// the tag within radiusMeters of the center point.
func aroundQuery(tag model.CategoryTag, lat, lon float64, radiusMeters int, includeLocations bool) string {
	filter := fmt.Sprintf(`["%s"="%s"](around:%d,%f,%f)`, tag.Key, tag.Value, radiusMeters, lat, lon)
	return fmt.Sprintf("[out:json];(node%s;way%s;);%s", filter, filter, outClause(includeLocations))
}

// areaLookupQuery builds the query that resolves a zip code to its
// postal_code boundary relation.
func areaLookupQuery(zip string) string {
	return fmt.Sprintf(`[out:json];relation["postal_code"="%s"];out ids;`, zip)
}

// inAreaQuery builds the query for all nodes and ways carrying the tag
// inside the area derived from relationID.
func inAreaQuery(tag model.CategoryTag, relationID int64, includeLocations bool) string {
	filter := fmt.Sprintf(`["%s"="%s"](area)`, tag.Key, tag.Value)
	return fmt.Sprintf("[out:json];area(%d);(node%s;way%s;);%s", relationID+areaIDOffset, filter, filter, outClause(includeLocations))
}

// outClause selects geometry output when callers want point detail, and the
// cheaper count summary otherwise.
func outClause(includeLocations bool) string {
	if includeLocations {
		return "out geom;"
	}
	return "out count;"
}
