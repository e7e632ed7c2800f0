package testutil

import (
	"net/http"

	"casetransfer/pkg/requestcontext"
)

// WithCredential puts a bearer token and actor on the request context, the
// way the auth middleware does for authenticated requests.
func WithCredential(req *http.Request, token, actor string) *http.Request {
	return req.WithContext(requestcontext.WithCredential(req.Context(), token, actor))
}
