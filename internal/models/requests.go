package models

// SetRequest is the body of POST /set: a JSON object holding exactly one
// key/value pair, e.g. {"color": "blue"}.
type SetRequest map[string]string

// Pair returns the single pair of the request, or false when the request
// holds zero or several pairs.
func (r SetRequest) Pair() (key, value string, ok bool) {
	if len(r) != 1 {
		return "", "", false
	}
	for k, v := range r {
		key, value = k, v
	}
	return key, value, true
}

// DeleteRequest is the body of DELETE /set: a bare JSON string naming the key.
type DeleteRequest string
