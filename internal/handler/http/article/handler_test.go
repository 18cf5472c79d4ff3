package article_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsportal/internal/channel"
	"newsportal/internal/common/pagination"
	"newsportal/internal/domain/entity"
	harticle "newsportal/internal/handler/http/article"
	"newsportal/internal/handler/http/auth"
	"newsportal/internal/handler/http/middleware"
	"newsportal/internal/infra/adapter/persistence/memory"
	"newsportal/internal/repository"
	artUC "newsportal/internal/usecase/article"
)

/* ───────── fixtures ───────── */

var base = time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)

func newRegistry(t *testing.T) *channel.Registry {
	t.Helper()
	reg, err := channel.New([]entity.Channel{
		{ID: "nasional", Name: "Nasional", Categories: []string{"Politik", "Ekonomi"}},
		{ID: "olahraga", Subdomain: "sport", Name: "Olahraga", Categories: []string{"Sepak Bola"}},
	})
	require.NoError(t, err)
	return reg
}

func seed(t *testing.T, repo repository.ArticleRepository) {
	t.Helper()
	articles := []*entity.Article{
		{ChannelID: "nasional", Slug: "x", Title: "Sidang kabinet", Category: "Politik", Content: "<p>isi</p>",
			Aliases: []string{"sidang-lama"}, PublishedAt: base.Add(3 * time.Hour)},
		{ChannelID: "nasional", Slug: "koalisi", Title: "Koalisi baru", Category: "Politik", PublishedAt: base.Add(2 * time.Hour)},
		{ChannelID: "nasional", Slug: "pemilu", Title: "Hasil pemilu", Category: "Politik", PublishedAt: base.Add(time.Hour)},
		{ChannelID: "nasional", Slug: "rupiah", Title: "Rupiah menguat", Category: "Ekonomi", Featured: true, PublishedAt: base},
		{ChannelID: "nasional", Slug: "draf", Title: "Draf", Category: "Politik", Status: entity.StatusDraft, PublishedAt: base},
		{ChannelID: "olahraga", Slug: "final", Title: "Final piala", Category: "Sepak Bola", PublishedAt: base},
	}
	for _, a := range articles {
		a.UpdatedAt = base
		_, err := repo.Upsert(context.Background(), a)
		require.NoError(t, err)
	}
}

func newMux(t *testing.T, repo repository.ArticleRepository, limiter *middleware.RateLimiter) *http.ServeMux {
	t.Helper()
	reg := newRegistry(t)
	cache, err := artUC.NewCache(32)
	require.NoError(t, err)

	mux := http.NewServeMux()
	harticle.Register(mux, harticle.Deps{
		Svc:           artUC.NewService(reg, repo, cache),
		Hosts:         reg,
		Pagination:    pagination.Config{DefaultPage: 1, DefaultLimit: 2, MaxLimit: 10},
		SearchLimiter: limiter,
	})
	return mux
}

func get(t *testing.T, h http.Handler, host, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	if host != "" {
		r.Host = host
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

type page struct {
	Data       []harticle.DTO      `json:"data"`
	Pagination pagination.Metadata `json:"pagination"`
}

type listBody struct {
	Data []harticle.DTO `json:"data"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func slugs(dtos []harticle.DTO) []string {
	out := make([]string, len(dtos))
	for i, d := range dtos {
		out[i] = d.Slug
	}
	return out
}

/* ───────── list ───────── */

func TestListHandler(t *testing.T) {
	repo := memory.NewArticleRepo()
	seed(t, repo)
	mux := newMux(t, repo, nil)

	w := get(t, mux, "", "/channels/nasional/articles")
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[page](t, w)
	assert.Equal(t, []string{"x", "koalisi"}, slugs(p.Data))
	assert.Equal(t, pagination.Metadata{Total: 4, Page: 1, Limit: 2, TotalPages: 2}, p.Pagination)
	assert.Empty(t, p.Data[0].Content, "listings omit content")

	p = decode[page](t, get(t, mux, "", "/channels/nasional/articles?page=2"))
	assert.Equal(t, []string{"pemilu", "rupiah"}, slugs(p.Data))

	w = get(t, mux, "", "/channels/nasional/articles?status=draft")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "draf\"")

	w = get(t, mux, "sport.example.com", "/articles?status=draft")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListHandler_AdminDrafts(t *testing.T) {
	secret := []byte("article-test-secret-at-least-32-chars")
	repo := memory.NewArticleRepo()
	seed(t, repo)

	mux := http.NewServeMux()
	harticle.Register(mux, harticle.Deps{
		Svc:        artUC.NewService(newRegistry(t), repo, nil),
		Pagination: pagination.Config{DefaultPage: 1, DefaultLimit: 2, MaxLimit: 10},
		DraftGuard: auth.RequireRole(secret, auth.RoleAdmin),
	})

	assert.Equal(t, http.StatusUnauthorized, get(t, mux, "", "/admin/channels/nasional/articles?status=draft").Code)

	token, err := auth.IssueToken(secret, "ops", auth.RoleAdmin, time.Hour, time.Now())
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodGet, "/admin/channels/nasional/articles?status=draft", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"draf"}, slugs(decode[page](t, w).Data))
}

func TestListHandler_NoDraftRouteWithoutGuard(t *testing.T) {
	repo := memory.NewArticleRepo()
	seed(t, repo)
	mux := newMux(t, repo, nil)
	assert.Equal(t, http.StatusNotFound, get(t, mux, "", "/admin/channels/nasional/articles?status=draft").Code)
}

func TestListHandler_Category(t *testing.T) {
	repo := memory.NewArticleRepo()
	seed(t, repo)
	mux := newMux(t, repo, nil)

	p := decode[page](t, get(t, mux, "", "/channels/nasional/articles?category=ekonomi"))
	assert.Equal(t, []string{"rupiah"}, slugs(p.Data))

	w := get(t, mux, "", "/channels/nasional/articles?category=Olahraga")
	require.Equal(t, http.StatusOK, w.Code)
	p = decode[page](t, w)
	assert.NotNil(t, p.Data)
	assert.Empty(t, p.Data)
	assert.JSONEq(t, `[]`, string(mustField(t, w, "data")))
}

func mustField(t *testing.T, w *httptest.ResponseRecorder, field string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m[field]
}

func TestListHandler_BadRequests(t *testing.T) {
	mux := newMux(t, memory.NewArticleRepo(), nil)

	for _, target := range []string{
		"/channels/nasional/articles?page=0",
		"/channels/nasional/articles?limit=11",
		"/channels/nasional/articles?status=archived",
		"/channels/nasional/articles?status=draft&category=politik",
	} {
		t.Run(target, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, get(t, mux, "", target).Code)
		})
	}
}

/* ───────── detail and related ───────── */

func TestGetHandler(t *testing.T) {
	repo := memory.NewArticleRepo()
	seed(t, repo)
	mux := newMux(t, repo, nil)

	w := get(t, mux, "", "/channels/nasional/articles/x")
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[harticle.DetailDTO](t, w)
	assert.Equal(t, "Sidang kabinet", d.Title)
	assert.Equal(t, "<p>isi</p>", d.Content)
	assert.Empty(t, d.Canonical)

	d = decode[harticle.DetailDTO](t, get(t, mux, "", "/channels/nasional/articles/sidang-lama"))
	assert.Equal(t, "x", d.Slug)
	assert.Equal(t, "x", d.Canonical)

	for _, target := range []string{
		"/channels/nasional/articles/draf",
		"/channels/nasional/articles/final",
		"/channels/olahraga/articles/x",
	} {
		w := get(t, mux, "", target)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.JSONEq(t, `{"error":"article not found"}`, w.Body.String())
	}
}

func TestRelatedHandler(t *testing.T) {
	repo := memory.NewArticleRepo()
	seed(t, repo)
	mux := newMux(t, repo, nil)

	w := get(t, mux, "", "/channels/nasional/articles/x/related?limit=3")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[listBody](t, w)
	assert.Equal(t, []string{"koalisi", "pemilu"}, slugs(body.Data))

	assert.Equal(t, http.StatusBadRequest, get(t, mux, "", "/channels/nasional/articles/x/related?limit=abc").Code)
	assert.Equal(t, http.StatusNotFound, get(t, mux, "", "/channels/nasional/articles/nope/related").Code)
}

/* ───────── search, categories, featured ───────── */

func TestSearchHandler(t *testing.T) {
	repo := memory.NewArticleRepo()
	seed(t, repo)
	mux := newMux(t, repo, nil)

	p := decode[page](t, get(t, mux, "", "/channels/nasional/search?q=PEMILU"))
	assert.Equal(t, []string{"pemilu"}, slugs(p.Data))

	p = decode[page](t, get(t, mux, "", "/channels/nasional/search?q="))
	assert.Empty(t, p.Data)

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	assert.Equal(t, http.StatusBadRequest, get(t, mux, "", "/channels/nasional/search?q="+string(long)).Code)
}

func TestSearchHandler_RateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{Name: "article-test", PerMinute: 60, Burst: 1}, nil)
	mux := newMux(t, memory.NewArticleRepo(), limiter)

	assert.Equal(t, http.StatusOK, get(t, mux, "", "/channels/nasional/search?q=a").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, mux, "", "/channels/nasional/search?q=a").Code)
	assert.Equal(t, http.StatusOK, get(t, mux, "", "/channels/nasional/articles").Code, "only search is limited")
}

func TestCategoriesAndFeatured(t *testing.T) {
	repo := memory.NewArticleRepo()
	seed(t, repo)
	mux := newMux(t, repo, nil)

	w := get(t, mux, "", "/channels/nasional/categories")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[
		{"name":"Politik","count":3,"configured":true},
		{"name":"Ekonomi","count":1,"configured":true}
	]}`, w.Body.String())

	w = get(t, mux, "", "/channels/nasional/featured")
	require.Equal(t, http.StatusOK, w.Code)
	feat := decode[listBody](t, w)
	assert.Equal(t, []string{"rupiah"}, slugs(feat.Data))
}

/* ───────── channel scoping ───────── */

func TestHostScopedRoutes(t *testing.T) {
	repo := memory.NewArticleRepo()
	seed(t, repo)
	mux := newMux(t, repo, nil)

	p := decode[page](t, get(t, mux, "sport.example.com:8080", "/articles"))
	assert.Equal(t, []string{"final"}, slugs(p.Data))
	for _, d := range p.Data {
		assert.Equal(t, "olahraga", d.Channel)
	}

	assert.Equal(t, http.StatusOK, get(t, mux, "sport.example.com", "/articles/final").Code)
	assert.Equal(t, http.StatusNotFound, get(t, mux, "sport.example.com", "/articles/x").Code)
	assert.Equal(t, http.StatusNotFound, get(t, mux, "www.example.com", "/articles").Code)
}

func TestUnknownChannel(t *testing.T) {
	mux := newMux(t, memory.NewArticleRepo(), nil)

	w := get(t, mux, "", "/channels/hiburan/articles")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "channel not found")
	assert.NotContains(t, w.Body.String(), "entity")
}

type downRepo struct{ repository.ArticleRepository }

func (downRepo) List(context.Context, string, repository.ArticleFilter) ([]*entity.Article, error) {
	return nil, &entity.StoreUnavailableError{Op: "List", Err: errors.New("connection refused")}
}

func TestStoreUnavailable(t *testing.T) {
	mux := newMux(t, downRepo{}, nil)

	w := get(t, mux, "", "/channels/nasional/articles")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"service unavailable"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "refused")
}
