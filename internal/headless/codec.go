package headless

import "encoding/json"

// DecodeRequest parses one input line. On failure it returns a terse
// error message suitable for an error result; when the line parsed far
// enough to carry an id, the partial request is returned alongside the
// error so the caller can address its reply.
func DecodeRequest(line []byte) (*Request, string) {
	var raw any
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, "Invalid JSON"
	}
	if _, ok := raw.(map[string]any); !ok {
		return nil, "Expected JSON object"
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, "Invalid JSON"
	}
	if req.Type == "" {
		return &req, "Missing 'type' field"
	}
	if req.ID == "" {
		return &req, "Missing 'id' field"
	}
	return &req, ""
}

// EncodeResponse marshals a response frame as compact JSON without a
// trailing newline.
func EncodeResponse(v any) ([]byte, error) {
	return json.Marshal(v)
}
