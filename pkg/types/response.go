package types

// SuccessEnvelope wraps every successful API payload.
type SuccessEnvelope struct {
	StatusCode int `json:"status_code"`
	Data       any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	StatusCode int      `json:"status_code"`
	Error      APIError `json:"error"`
}
