// Package http includes handlers and utilities shared by the intake server.
package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// ReadAllAndReplaceBody reads all of r.Body and replaces it with a new byte buffer
// so that later handlers may read it again.
func ReadAllAndReplaceBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return b, err
	}
	defer r.Body.Close()
	r.Body = io.NopCloser(bytes.NewBuffer(b))
	return b, nil
}

// DumpHandler writes the method, path, and body of every request with
// a body (i.e. page form submissions) to output before calling next.
func DumpHandler(next http.Handler, output io.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.Body != http.NoBody {
			body, err := ReadAllAndReplaceBody(r)
			if err == nil && len(body) > 0 {
				fmt.Fprintf(output, "%s %s\n%s\n", r.Method, r.URL.RequestURI(), body)
			}
		}
		next.ServeHTTP(w, r)
	}
}
