package article

import (
	"net/http"

	"newsportal/internal/common/pagination"
	"newsportal/internal/handler/http/middleware"
	artUC "newsportal/internal/usecase/article"
)

// Deps are the collaborators of the article routes.
type Deps struct {
	Svc        *artUC.Service
	Hosts      HostResolver
	Pagination pagination.Config
	// SearchLimiter guards the search routes when set.
	SearchLimiter *middleware.RateLimiter
	// DraftGuard, when set, mounts GET /admin/channels/{channel}/articles
	// behind it. That route accepts status=draft.
	DraftGuard func(http.Handler) http.Handler
}

// Register mounts the article routes on mux.
func Register(mux *http.ServeMux, d Deps) {
	mount(mux, "/channels/{channel}", d, PathScope)
	if d.Hosts != nil {
		mount(mux, "", d, HostScope(d.Hosts))
	}
	if d.DraftGuard != nil {
		mux.Handle("GET /admin/channels/{channel}/articles", d.DraftGuard(ListHandler{
			Svc: d.Svc, Scope: PathScope, PaginationCfg: d.Pagination, Drafts: true,
		}))
	}
}

func mount(mux *http.ServeMux, prefix string, d Deps, scope Scope) {
	var search http.Handler = SearchHandler{Svc: d.Svc, Scope: scope, PaginationCfg: d.Pagination}
	if d.SearchLimiter != nil {
		search = d.SearchLimiter.Middleware(search)
	}

	mux.Handle("GET "+prefix+"/articles", ListHandler{Svc: d.Svc, Scope: scope, PaginationCfg: d.Pagination})
	mux.Handle("GET "+prefix+"/articles/{slug}", GetHandler{Svc: d.Svc, Scope: scope})
	mux.Handle("GET "+prefix+"/articles/{slug}/related", RelatedHandler{Svc: d.Svc, Scope: scope})
	mux.Handle("GET "+prefix+"/search", search)
	mux.Handle("GET "+prefix+"/categories", CategoriesHandler{Svc: d.Svc, Scope: scope})
	mux.Handle("GET "+prefix+"/featured", FeaturedHandler{Svc: d.Svc, Scope: scope})
}
