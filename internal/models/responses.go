package models

// GetResponse is the key/value wire format: {"<key>": "<value>"}.
type GetResponse map[string]string

type SetResponse struct {
	Key     string `json:"key"`
	Existed bool   `json:"existed"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Phase   string `json:"phase"`
	Keys    int    `json:"keys"`
	Pending int    `json:"pending"`
}
