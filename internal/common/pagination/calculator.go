package pagination

// CalculateOffset maps a 1-based page number to the database OFFSET:
// page 1 starts at row 0, page 2 at row limit, and so on.
func CalculateOffset(page, limit int) int {
	return (page - 1) * limit
}

// CalculateTotalPages returns ceil(total/limit), with a floor of one
// page so an empty client list still renders as page 1 of 1.
func CalculateTotalPages(total int64, limit int) int {
	if total == 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
