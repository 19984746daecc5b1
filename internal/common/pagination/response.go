package pagination

// Response wraps one page of items with its pagination metadata. T is
// the item DTO, a ClientDTO or AppointmentDTO in practice.
type Response[T any] struct {
	Data       []T      `json:"data"`
	Pagination Metadata `json:"pagination"`
}

// NewResponse builds a Response from a page of data and its metadata.
func NewResponse[T any](data []T, metadata Metadata) Response[T] {
	return Response[T]{
		Data:       data,
		Pagination: metadata,
	}
}
