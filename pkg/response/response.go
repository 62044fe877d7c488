package response

// Response is the common result envelope. Callers check Success rather than
// relying on errors crossing the boundary.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Meta describes pagination of a list result
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Paginated wraps list data together with its pagination metadata
type Paginated struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Pagination Meta        `json:"pagination"`
}

// Success returns a success response wrapping the data
func Success(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// Error returns a failure response wrapping the message
func Error(err string) Response {
	return Response{Success: false, Error: err}
}

// List returns a success response for paginated data
func List(data interface{}, total int64, page, limit int) Paginated {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Paginated{
		Success: true,
		Data:    data,
		Pagination: Meta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	}
}
