package shared

import "math"

// Response is the envelope returned by every operation, successful or not.
type Response[T any] struct {
	Succeeded bool     `json:"succeeded"`
	Message   string   `json:"message"`
	Errors    []string `json:"errors,omitempty"`
	Data      T        `json:"data"`
}

// NewResponse wraps data in a successful envelope.
func NewResponse[T any](data T) Response[T] {
	return Response[T]{Succeeded: true, Data: data}
}

// NewResponseWithMessage wraps data in a successful envelope carrying a message.
func NewResponseWithMessage[T any](data T, message string) Response[T] {
	return Response[T]{Succeeded: true, Message: message, Data: data}
}

// NewFailure builds a failed envelope. errs is copied.
func NewFailure(message string, errs []string) Response[any] {
	var copied []string
	if len(errs) > 0 {
		copied = make([]string, len(errs))
		copy(copied, errs)
	}
	return Response[any]{Succeeded: false, Message: message, Errors: copied}
}

// PagedResponse is a successful envelope around one page of a sequence.
type PagedResponse[T any] struct {
	Response[[]T]
	PageNumber   int `json:"pageNumber"`
	PageSize     int `json:"pageSize"`
	TotalPages   int `json:"totalPages"`
	TotalRecords int `json:"totalRecords"`
}

// NewPagedResponse wraps items together with the paging metadata of the request.
func NewPagedResponse[T any](items []T, page Page, totalRecords int) PagedResponse[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if page.Size > 0 && totalRecords > 0 {
		totalPages = int(math.Ceil(float64(totalRecords) / float64(page.Size)))
	}
	return PagedResponse[T]{
		Response:     NewResponse(items),
		PageNumber:   page.Number,
		PageSize:     page.Size,
		TotalPages:   totalPages,
		TotalRecords: totalRecords,
	}
}
