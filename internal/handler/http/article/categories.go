package article

import (
	"net/http"

	"newsportal/internal/handler/http/respond"
	artUC "newsportal/internal/usecase/article"
)

// CategoriesHandler serves the channel's categories with article counts.
type CategoriesHandler struct {
	Svc   *artUC.Service
	Scope Scope
}

func (h CategoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	channelID, err := h.Scope(r)
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	cats, err := h.Svc.Categories(r.Context(), channelID)
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string][]CategoryDTO{"data": cats})
}

// FeaturedHandler serves the channel's featured articles.
type FeaturedHandler struct {
	Svc   *artUC.Service
	Scope Scope
}

func (h FeaturedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	channelID, err := h.Scope(r)
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	articles, err := h.Svc.Featured(r.Context(), channelID, limit)
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"data": toDTOs(articles)})
}
