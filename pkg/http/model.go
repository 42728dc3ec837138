package http

// ValidationError is one field-level failure from request validation. The
// 400 body is a bare array of these.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"gid"`
	Message string                 `json:"message,omitempty" example:"gid is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
