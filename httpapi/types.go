package httpapi

import "fmt"

type (
	// Client issues JSON requests against one backend base URL.
	Client struct {
		base    string
		headers []Header
	}

	Header struct {
		Key   string
		Value string
	}

	// StatusError is returned for non-2xx responses. Message is filled in
	// when the response body parsed as the backend's error shape.
	StatusError struct {
		Code    int
		Message string
	}

	// errorBody is the error shape the backend endpoints use.
	errorBody struct {
		Error string `json:"error"`
	}
)

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.Code)
}
