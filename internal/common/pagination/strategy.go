package pagination

// PaginationStrategy abstracts how a page maps to a query, so handlers
// and services would not change if a cursor or keyset strategy were
// added later.
type PaginationStrategy interface {
	// CalculateQuery translates the requested page into query parameters.
	CalculateQuery(params Params) QueryParams

	// BuildMetadata derives the response metadata from query results.
	// hasMore only matters for cursor strategies.
	BuildMetadata(params Params, total int64, hasMore bool) Metadata
}

// QueryParams carries the calculated values for the database query.
// Cursor and After stay nil under offset pagination.
type QueryParams struct {
	Offset int
	Limit  int
	Cursor *string
	After  *string
}

// OffsetStrategy is classic OFFSET/LIMIT pagination, the strategy every
// list endpoint currently uses.
type OffsetStrategy struct{}

func (s OffsetStrategy) CalculateQuery(params Params) QueryParams {
	return QueryParams{
		Offset: CalculateOffset(params.Page, params.Limit),
		Limit:  params.Limit,
	}
}

func (s OffsetStrategy) BuildMetadata(params Params, total int64, hasMore bool) Metadata {
	return Metadata{
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: CalculateTotalPages(total, params.Limit),
	}
}

// A cursor strategy for the session timeline would encode
// base64(session_date + session_id) and report hasMore instead of a
// total count; it has not been needed yet.
