// internal/api/types/response.go
package types

// Envelope is the body of every non-paginated response:
// {success:true, data:...} or {success:false, error:"..."}.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PaginatedResponse defines a generic structure for paginated API responses.
// T represents the type of data contained in the 'Data' slice.
type PaginatedResponse[T any] struct {
	Success bool  `json:"success"`
	Data    []T   `json:"data"`
	Total   int64 `json:"total"`
	Page    *int  `json:"page,omitempty"`
	Limit   int   `json:"limit"`
	Offset  *int  `json:"offset,omitempty"`
}

// OK wraps data in a success envelope.
func OK(message string, data interface{}) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// Fail builds an error envelope.
func Fail(message string) Envelope {
	return Envelope{Success: false, Error: message}
}
