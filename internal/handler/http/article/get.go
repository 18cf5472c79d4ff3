package article

import (
	"net/http"

	"newsportal/internal/handler/http/respond"
	artUC "newsportal/internal/usecase/article"
)

// GetHandler serves one published article by slug or alias.
type GetHandler struct {
	Svc   *artUC.Service
	Scope Scope
}

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	channelID, err := h.Scope(r)
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	requested := r.PathValue("slug")
	a, err := h.Svc.BySlug(r.Context(), channelID, requested)
	if err != nil {
		respond.SafeError(w, err)
		return
	}

	out := DetailDTO{DTO: toDTO(a, true)}
	if a.Slug != requested {
		out.Canonical = a.Slug
	}
	respond.JSON(w, http.StatusOK, out)
}

// RelatedHandler serves articles of the same category as the given one.
type RelatedHandler struct {
	Svc   *artUC.Service
	Scope Scope
}

func (h RelatedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	a, err := h.Svc.BySlug(r.Context(), channelID, r.PathValue("slug"))
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	related, err := h.Svc.Related(r.Context(), channelID, a.Category, a.Slug, limit)
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"data": toDTOs(related)})
}
