package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// Action is a forward navigation offered to the shopper.
type Action struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Href  string `json:"href"`
}

type APIError struct {
	Code      string  `json:"code"`
	Message   string  `json:"message"`
	Retryable bool    `json:"retryable,omitempty"`
	Details   any     `json:"details,omitempty"`
	Action    *Action `json:"action,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
