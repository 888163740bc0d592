package upload

import (
	"encoding/base64"
	"fmt"
	"net/http"
)

// Response is a status, flat header map and body chunks that the coordinator
// mutates before it reaches a client.
type Response struct {
	Status  int
	Headers map[string]string
	Body    [][]byte
}

// NewResponse returns an empty 200 response.
func NewResponse() *Response {
	return &Response{
		Status:  http.StatusOK,
		Headers: map[string]string{},
	}
}

// Apply copies the response onto w.
func (r *Response) Apply(w http.ResponseWriter) error {
	for k, v := range r.Headers {
		w.Header().Set(k, v)
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	for _, chunk := range r.Body {
		if _, err := w.Write(chunk); err != nil {
			return fmt.Errorf("write response body: %w", err)
		}
	}
	return nil
}

// EncodeProfileData is the transport encoding used for the profile data header.
func EncodeProfileData(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeProfileData reverses EncodeProfileData.
func DecodeProfileData(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode profile data: %w", err)
	}
	return raw, nil
}

// Bool returns a pointer to v, for the autoredirect argument of Call.
func Bool(v bool) *bool {
	return &v
}
