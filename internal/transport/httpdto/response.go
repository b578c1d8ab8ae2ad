package httpdto

// Response is the envelope every REST endpoint returns. Data is set on
// success; Error carries the human-readable message and Code the stable
// taxonomy code on failure.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data}
}

func NewErrorResponse(message, code string) Response[any] {
	return Response[any]{Success: false, Error: message, Code: code}
}
