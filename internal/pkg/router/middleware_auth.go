package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/jwt"
)

var (
	errAuthRequired = goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	errAuthInvalid  = goerror.NewBusiness("Invalid or expired token", goerror.CodeUnauthorized)
)

// authentication requires a bearer token on every route not listed in
// public (method -> route pattern) and stores its claims in the context.
// Whether the second factor is satisfied is decided later, per route.
func (r *Router) authentication(verifier jwt.JWT, public map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if _, ok := public[req.Method][matchedRoutePath(req)]; ok {
				next.ServeHTTP(w, req)
				return
			}

			scheme, token, _ := strings.Cut(strings.TrimSpace(req.Header.Get("Authorization")), " ")
			token = strings.TrimSpace(token)
			if !strings.EqualFold(scheme, "Bearer") || token == "" {
				r.writeError(w, errAuthRequired)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				r.writeError(w, errAuthInvalid)
				return
			}

			next.ServeHTTP(w, req.WithContext(jwt.SetAuth(req.Context(), claims)))
		})
	}
}
