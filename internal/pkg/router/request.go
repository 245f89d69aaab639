package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
)

// maxBodyBytes bounds every JSON request body; the largest accepted payload
// is an enrollment with a hex key.
const maxBodyBytes = 64 << 10

// Request is what a Handler receives.
type Request struct {
	*http.Request
}

// DecodeBody strictly decodes a single JSON object into dst. Unknown fields,
// trailing data and oversized bodies are reported as an invalid format.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}
