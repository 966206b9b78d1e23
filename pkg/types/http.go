package types

// ListBody is the HTTP body of a successful list response.
type ListBody[T any] struct {
	Data       []T        `json:"data"`
	Count      int        `json:"count"`
	Pagination Pagination `json:"pagination"`
}

// ItemBody is the HTTP body of a successful single-record response.
type ItemBody[T any] struct {
	Data T `json:"data"`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
}

// ErrorBody is the HTTP body of every failed request.
type ErrorBody struct {
	Error string `json:"error"`
}

// ---------------------------------------------------------------------------
// Action request bodies
// ---------------------------------------------------------------------------

// ApproveRequest is the body of approve actions.
type ApproveRequest struct {
	ApprovedBy string `json:"approved_by"`
}

// RejectRequest is the body of reject actions.
type RejectRequest struct {
	RejectedBy string `json:"rejected_by"`
	Reason     string `json:"reason"`
}

// CancelRequest is the body of the room booking cancel action.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// ReturnRequest is the body of the equipment return action.
type ReturnRequest struct {
	Condition string `json:"condition"`
	Notes     string `json:"notes"`
}

// SafetyCheckResult is the body of the complete safety check action.
type SafetyCheckResult struct {
	Inspector string `json:"inspector"`
	Result    string `json:"result"`
	Notes     string `json:"notes"`
}

// AssignRequest is the body of the request assign action.
type AssignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// ResolveRequest is the body of the request resolve action.
type ResolveRequest struct {
	Resolution string `json:"resolution"`
}

// StatusRequest is the body of status change actions.
type StatusRequest struct {
	Status string `json:"status"`
}

// EditMessageRequest is the body of the chat message edit action.
type EditMessageRequest struct {
	Content string `json:"content"`
}
