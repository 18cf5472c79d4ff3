package article

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"newsportal/internal/common/pagination"
	"newsportal/internal/domain/entity"
	"newsportal/internal/handler/http/respond"
	artUC "newsportal/internal/usecase/article"
)

// ListHandler serves a channel's articles, optionally filtered by category
// or status, one page at a time. Drafts are listed only when Drafts is set,
// which Register does for the guarded admin route.
type ListHandler struct {
	Svc           *artUC.Service
	Scope         Scope
	PaginationCfg pagination.Config
	Drafts        bool
}

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	channelID, err := h.Scope(r)
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	params, err := pagination.ParseQueryParams(r, h.PaginationCfg)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	status, err := parseStatus(q.Get("status"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if status == entity.StatusDraft && !h.Drafts {
		respond.Error(w, http.StatusForbidden, "draft articles are not listed publicly")
		return
	}

	var articles []*entity.Article
	if category := strings.TrimSpace(q.Get("category")); category != "" {
		if status != entity.StatusPublished {
			respond.Error(w, http.StatusBadRequest, "category filter must be used with published articles")
			return
		}
		articles, err = h.Svc.ByCategory(r.Context(), channelID, category)
	} else {
		articles, err = h.Svc.ListAll(r.Context(), channelID, artUC.ListOptions{Status: status})
	}
	if err != nil {
		respond.SafeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, pagination.Map(pagination.Paginate(articles, params), summary))
}

func parseStatus(raw string) (entity.Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(entity.StatusPublished):
		return entity.StatusPublished, nil
	case string(entity.StatusDraft):
		return entity.StatusDraft, nil
	default:
		return "", fmt.Errorf("invalid status %q: must be published or draft", raw)
	}
}

// parseLimit reads the optional limit parameter. Zero means the service default.
func parseLimit(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit %q: must be a positive integer", s)
	}
	return n, nil
}
