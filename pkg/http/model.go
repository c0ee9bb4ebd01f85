package http

// ErrorBody is the JSON error envelope of every API route.
type ErrorBody struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string                 `json:"code"`
	Field   string                 `json:"field,omitempty"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
