package facet

import (
	"fmt"
	"strings"

	"github.com/machiya/archidb/internal/record"
	"github.com/machiya/archidb/internal/resultcache"
)

// builtQuery is a query ready for the normalize→cache→optimize→execute
// pipeline, with the intent its builder assigned.
type builtQuery struct {
	sql    string
	named  map[string]any
	intent resultcache.Intent
}

// whereBuilder accumulates AND-joined conditions with their named
// parameters. Values are never interpolated into the SQL text.
type whereBuilder struct {
	conds []string
	named map[string]any
}

func newWhereBuilder() *whereBuilder {
	return &whereBuilder{named: make(map[string]any)}
}

func (w *whereBuilder) add(cond string, params map[string]any) {
	w.conds = append(w.conds, cond)
	for k, v := range params {
		w.named[k] = v
	}
}

// clause returns " WHERE ..." or "" when no conditions were added.
func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// buildingWhere translates the structured filter dimensions into conditions.
func buildingWhere(fs FilterState) *whereBuilder {
	w := newWhereBuilder()

	if fs.Query != "" {
		w.add("(title LIKE :q OR architect LIKE :q OR address LIKE :q)",
			map[string]any{"q": "%" + fs.Query + "%"})
	}
	if fs.Prefecture != "" {
		w.add("prefecture = :prefecture", map[string]any{"prefecture": fs.Prefecture})
	}
	if fs.Category != "" {
		w.add("category = :category", map[string]any{"category": fs.Category})
	}
	if fs.YearFrom != 0 {
		w.add("year >= :year_from", map[string]any{"year_from": int64(fs.YearFrom)})
	}
	if fs.YearTo != 0 {
		w.add("year <= :year_to", map[string]any{"year_to": int64(fs.YearTo)})
	}

	// Tags from the same facet combine with OR; the group joins the other
	// dimensions with AND.
	if len(fs.Tags) > 0 {
		var ors []string
		params := make(map[string]any, len(fs.Tags))
		for i, token := range fs.Tags {
			name := fmt.Sprintf("tag_%d", i)
			ors = append(ors, "'/' || tag || '/' LIKE :"+name)
			params[name] = ParseTag(token).likePattern(token)
		}
		w.add("("+strings.Join(ors, " OR ")+")", params)
	}

	if fs.GeoBounds != nil {
		w.add("lat >= :min_lat AND lat <= :max_lat AND lng >= :min_lng AND lng <= :max_lng",
			map[string]any{
				"min_lat": fs.GeoBounds.MinLat,
				"max_lat": fs.GeoBounds.MaxLat,
				"min_lng": fs.GeoBounds.MinLng,
				"max_lng": fs.GeoBounds.MaxLng,
			})
	}

	return w
}

// orderBy returns the ORDER BY clause with the primary key as tiebreaker so
// paginated results are deterministic.
func orderBy(fs FilterState) string {
	col := fs.Sort
	if sortColumns[col] {
		col += " COLLATE BINARY"
	}
	dir := strings.ToUpper(string(fs.Order))
	return " ORDER BY " + col + " " + dir + ", id ASC"
}

// buildBuildingSearch produces the page query and the COUNT query sharing
// one WHERE clause. fs must already have defaults applied.
func buildBuildingSearch(fs FilterState) (page, count builtQuery) {
	w := buildingWhere(fs)

	intent := resultcache.IntentList
	if fs.GeoBounds != nil {
		intent = resultcache.IntentGeo
	}

	pageNamed := make(map[string]any, len(w.named)+2)
	for k, v := range w.named {
		pageNamed[k] = v
	}
	pageNamed["limit"] = int64(fs.PageSize)
	pageNamed["offset"] = int64((fs.Page - 1) * fs.PageSize)

	page = builtQuery{
		sql: "SELECT " + record.BuildingColumns + " FROM architecture" +
			w.clause() + orderBy(fs) + " LIMIT :limit OFFSET :offset",
		named:  pageNamed,
		intent: intent,
	}
	count = builtQuery{
		sql:    "SELECT COUNT(*) FROM architecture" + w.clause(),
		named:  w.named,
		intent: intent,
	}
	return page, count
}

// buildArchitectSearch is the architect-table analog of
// buildBuildingSearch. fs must already have defaults applied.
func buildArchitectSearch(fs ArchitectFilterState) (page, count builtQuery) {
	w := newWhereBuilder()

	if fs.Query != "" {
		w.add("name LIKE :q", map[string]any{"q": "%" + fs.Query + "%"})
	}
	if fs.Nationality != "" {
		w.add("nationality = :nationality", map[string]any{"nationality": fs.Nationality})
	}
	if fs.School != "" {
		w.add("school = :school", map[string]any{"school": fs.School})
	}

	pageNamed := make(map[string]any, len(w.named)+2)
	for k, v := range w.named {
		pageNamed[k] = v
	}
	pageNamed["limit"] = int64(fs.PageSize)
	pageNamed["offset"] = int64((fs.Page - 1) * fs.PageSize)

	page = builtQuery{
		sql: "SELECT " + record.ArchitectColumns + " FROM architect" +
			w.clause() + " ORDER BY name COLLATE BINARY ASC, id ASC LIMIT :limit OFFSET :offset",
		named:  pageNamed,
		intent: resultcache.IntentList,
	}
	count = builtQuery{
		sql:    "SELECT COUNT(*) FROM architect" + w.clause(),
		named:  w.named,
		intent: resultcache.IntentList,
	}
	return page, count
}

// distinctQueries maps a facet dimension to its enumeration query.
var distinctQueries = map[string]string{
	"prefecture":  "SELECT DISTINCT prefecture FROM architecture WHERE prefecture != '' ORDER BY prefecture ASC",
	"category":    "SELECT DISTINCT category FROM architecture WHERE category != '' ORDER BY category ASC",
	"nationality": "SELECT DISTINCT nationality FROM architect WHERE nationality != '' ORDER BY nationality ASC",
	"school":      "SELECT DISTINCT school FROM architect WHERE school != '' ORDER BY school ASC",
}

// buildDistinct returns the reference enumeration for a dimension.
func buildDistinct(dimension string) (builtQuery, bool) {
	sql, ok := distinctQueries[dimension]
	if !ok {
		return builtQuery{}, false
	}
	return builtQuery{
		sql:    sql,
		named:  map[string]any{},
		intent: resultcache.IntentReference,
	}, true
}

// buildTagEnum enumerates the raw compound tag column; tokens are split and
// de-duplicated by the service.
func buildTagEnum() builtQuery {
	return builtQuery{
		sql:    "SELECT DISTINCT tag FROM architecture",
		named:  map[string]any{},
		intent: resultcache.IntentTagEnum,
	}
}

// buildBuildingDetail is a single-row lookup by primary key.
func buildBuildingDetail(id int64) builtQuery {
	return builtQuery{
		sql:    "SELECT " + record.BuildingColumns + " FROM architecture WHERE id = :id LIMIT 1",
		named:  map[string]any{"id": id},
		intent: resultcache.IntentDetail,
	}
}

// buildArchitectDetail is a single-row lookup by primary key.
func buildArchitectDetail(id int64) builtQuery {
	return builtQuery{
		sql:    "SELECT " + record.ArchitectColumns + " FROM architect WHERE id = :id LIMIT 1",
		named:  map[string]any{"id": id},
		intent: resultcache.IntentDetail,
	}
}
