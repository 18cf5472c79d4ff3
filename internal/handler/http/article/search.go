package article

import (
	"net/http"

	"newsportal/internal/common/pagination"
	"newsportal/internal/handler/http/respond"
	artUC "newsportal/internal/usecase/article"
)

// maxQueryLength bounds the q parameter.
const maxQueryLength = 200

// SearchHandler serves full-text search over a channel's published articles.
type SearchHandler struct {
	Svc           *artUC.Service
	Scope         Scope
	PaginationCfg pagination.Config
}

func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	channelID, err := h.Scope(r)
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	q := r.URL.Query().Get("q")
	if len(q) > maxQueryLength {
		respond.Error(w, http.StatusBadRequest, "query is too long")
		return
	}
	params, err := pagination.ParseQueryParams(r, h.PaginationCfg)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	articles, err := h.Svc.Search(r.Context(), channelID, q)
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, pagination.Map(pagination.Paginate(articles, params), summary))
}
