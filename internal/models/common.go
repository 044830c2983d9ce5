package models

// APIResponse is the envelope returned by all JSON endpoints.
type APIResponse struct {
	Status bool        `json:"status"`
	Msg    string      `json:"msg"`
	Obj    interface{} `json:"obj"`
}

// ConsumeResult is the wire shape of a token consumption outcome.
// Exactly one of the two shapes crosses the API boundary: success with the
// authoritative balance, or failure with a message.
type ConsumeResult struct {
	Success bool `json:"success"`
	// Always serialized: a debit that spends the last token reports
	// newBalance 0, not an absent field.
	NewBalance int    `json:"newBalance"`
	Error      string `json:"error,omitempty"`
}
