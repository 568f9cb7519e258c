package records

// Pagination mirrors the backend's pagination envelope.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Page is one page of rows from a table.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// HasNext reports whether another page follows this one.
func (p *Page[T]) HasNext() bool {
	return p.Pagination.Page < p.Pagination.TotalPages
}

// DeleteResult is the backend's bulk delete confirmation.
type DeleteResult struct {
	Message string `json:"message"`
}

// NotificationResult is returned by the push notification endpoints.
type NotificationResult struct {
	Message      string `json:"message"`
	SuccessCount int    `json:"successCount"`
	FailureCount int    `json:"failureCount"`
}
