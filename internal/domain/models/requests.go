package models

// TimeFrameRequest binds the timeFrame query parameter of the history routes.
// Unknown values are accepted here and resolved to the default window downstream.
type TimeFrameRequest struct {
	TimeFrame string `query:"timeFrame" default:"1M"`
}

// MessageBody acknowledges a write route.
type MessageBody struct {
	Message string `json:"message"`
}
