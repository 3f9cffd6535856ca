package utils

// APIResponse is the JSON envelope every endpoint returns.
// Success : { "status": true,  "message": "Login successful", "data": { ... } }
// Failure : { "status": false, "message": "Login failed",     "errors": "invalid credentials" }
type APIResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// BuildResponseSuccess is used for 2xx responses.
func BuildResponseSuccess(message string, data interface{}) APIResponse {
	return APIResponse{
		Status:  true,
		Message: message,
		Data:    data,
	}
}

// BuildResponseFailed is used for 4xx/5xx responses.
// err is the machine-readable detail (string or field map); data is usually nil.
func BuildResponseFailed(message string, err interface{}, data interface{}) APIResponse {
	return APIResponse{
		Status:  false,
		Message: message,
		Errors:  err,
		Data:    data,
	}
}
