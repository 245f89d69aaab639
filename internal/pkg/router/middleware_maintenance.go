package router

import (
	"net/http"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gotfa/internal/pkg/config"
	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
)

var errMaintenance = goerror.NewBusiness("service is under maintenance", goerror.CodeUnavailable)

// maintenance answers 503 for the route patterns in app.maintenance.endpoints,
// for example to freeze enrollment while a key rotation runs.
func (r *Router) maintenance(cfg config.Config) Middleware {
	var blocked map[string]struct{}
	if cfg != nil {
		blocked = lo.SliceToMap(cfg.GetArray("app.maintenance.endpoints"), func(p string) (string, struct{}) {
			return p, struct{}{}
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if _, ok := blocked[matchedRoutePath(req)]; ok {
				r.writeError(w, errMaintenance)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
