package models

// CommandResponse is the body returned for every command
type CommandResponse struct {
	Data   *ResponseData          `json:"data,omitempty"`
	Status map[string]interface{} `json:"status,omitempty"`
	Errors []ModelError           `json:"errors,omitempty"`
}

type ResponseData struct {
	Docs          []map[string]interface{} `json:"docs"`
	NextPageState string                   `json:"nextPageState,omitempty"`
}

// A description of an error state
type ModelError struct {

	// A human readable description of the error state
	Message string `json:"message"`

	// The error code referencing the error state
	ErrorCode string `json:"errorCode"`
}
