package article_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsportal/internal/channel"
	"newsportal/internal/domain/entity"
	"newsportal/internal/infra/adapter/persistence/memory"
	"newsportal/internal/repository"
	artUC "newsportal/internal/usecase/article"
)

/* ───────── fixtures ───────── */

var base = time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)

func registry(t *testing.T) *channel.Registry {
	t.Helper()
	reg, err := channel.New([]entity.Channel{
		{ID: "nasional", Name: "Nasional", Categories: []string{"Politik", "Ekonomi", "Hukum"}},
		{ID: "olahraga", Subdomain: "sport", Name: "Olahraga", Categories: []string{"Sepak Bola"}},
	})
	require.NoError(t, err)
	return reg
}

type seed struct {
	channel, slug, title, category string
	offset                         time.Duration
	mutate                         func(*entity.Article)
}

func seedRepo(t *testing.T, seeds ...seed) *memory.ArticleRepo {
	t.Helper()
	repo := memory.NewArticleRepo()
	for _, s := range seeds {
		a := &entity.Article{
			ChannelID:   s.channel,
			Slug:        s.slug,
			Title:       s.title,
			Excerpt:     "ringkasan " + s.slug,
			Category:    s.category,
			Status:      entity.StatusPublished,
			PublishedAt: base.Add(s.offset),
			UpdatedAt:   base,
		}
		if s.mutate != nil {
			s.mutate(a)
		}
		_, err := repo.Upsert(context.Background(), a)
		require.NoError(t, err)
	}
	return repo
}

func portalSeeds() []seed {
	return []seed{
		{channel: "nasional", slug: "x", title: "Sidang kabinet", category: "Politik", offset: 3 * time.Hour},
		{channel: "nasional", slug: "koalisi", title: "Koalisi baru", category: "politik", offset: 2 * time.Hour},
		{channel: "nasional", slug: "pemilu", title: "Hasil pemilu", category: "Politik", offset: time.Hour},
		{channel: "nasional", slug: "rupiah", title: "Rupiah menguat", category: "Ekonomi", offset: 4 * time.Hour,
			mutate: func(a *entity.Article) { a.Tags = []string{"pemilu"}; a.Featured = true }},
		{channel: "nasional", slug: "draf", title: "Draf pemilu", category: "Politik", offset: 5 * time.Hour,
			mutate: func(a *entity.Article) { a.Status = entity.StatusDraft }},
		{channel: "nasional", slug: "opini", title: "Opini", category: "Kolom", offset: 0},
		{channel: "olahraga", slug: "pemilu-pssi", title: "Pemilu PSSI", category: "Sepak Bola", offset: 6 * time.Hour},
	}
}

func slugs(articles []*entity.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Slug
	}
	return out
}

func newService(t *testing.T, repo repository.ArticleRepository) *artUC.Service {
	t.Helper()
	cache, err := artUC.NewCache(64)
	require.NoError(t, err)
	return artUC.NewService(registry(t), repo, cache)
}

/* ───────── listings ───────── */

func TestService_ListAll(t *testing.T) {
	svc := newService(t, seedRepo(t, portalSeeds()...))
	ctx := context.Background()

	got, err := svc.ListAll(ctx, "nasional", artUC.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"rupiah", "x", "koalisi", "pemilu", "opini"}, slugs(got))

	drafts, err := svc.ListAll(ctx, "nasional", artUC.ListOptions{Status: entity.StatusDraft})
	require.NoError(t, err)
	assert.Equal(t, []string{"draf"}, slugs(drafts))
}

func TestService_ByCategory(t *testing.T) {
	svc := newService(t, seedRepo(t, portalSeeds()...))
	ctx := context.Background()

	got, err := svc.ByCategory(ctx, "nasional", "POLITIK")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "koalisi", "pemilu"}, slugs(got))

	empty, err := svc.ByCategory(ctx, "nasional", "Olahraga")
	require.NoError(t, err, "unknown category is not an error")
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestService_Related(t *testing.T) {
	svc := newService(t, seedRepo(t, portalSeeds()...))
	ctx := context.Background()

	got, err := svc.Related(ctx, "nasional", "Politik", "x", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"koalisi", "pemilu"}, slugs(got), "only two other Politik articles exist")

	got, err = svc.Related(ctx, "nasional", "Politik", "x", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.Related(ctx, "nasional", "", "x", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_RelatedLimits(t *testing.T) {
	var seeds []seed
	for i := 0; i < 30; i++ {
		seeds = append(seeds, seed{
			channel: "nasional", slug: "p-" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
			title: "Politik", category: "Politik", offset: time.Duration(i) * time.Minute,
		})
	}
	svc := newService(t, seedRepo(t, seeds...))
	ctx := context.Background()

	got, err := svc.Related(ctx, "nasional", "Politik", "", 0)
	require.NoError(t, err)
	assert.Len(t, got, artUC.DefaultRelatedLimit)

	got, err = svc.Related(ctx, "nasional", "Politik", "", 500)
	require.NoError(t, err)
	assert.Len(t, got, artUC.MaxLimit)
}

func TestService_Featured(t *testing.T) {
	svc := newService(t, seedRepo(t, portalSeeds()...))

	got, err := svc.Featured(context.Background(), "nasional", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"rupiah"}, slugs(got))
}

func TestService_Categories(t *testing.T) {
	svc := newService(t, seedRepo(t, portalSeeds()...))

	got, err := svc.Categories(context.Background(), "nasional")
	require.NoError(t, err)
	assert.Equal(t, []artUC.CategoryCount{
		{Name: "Politik", Count: 3, Configured: true},
		{Name: "Ekonomi", Count: 1, Configured: true},
		{Name: "Hukum", Count: 0, Configured: true},
		{Name: "kolom", Count: 1},
	}, got)
}

/* ───────── slug lookups ───────── */

func TestService_BySlug(t *testing.T) {
	repo := seedRepo(t,
		seed{channel: "nasional", slug: "pemilu-2025", title: "Pemilu", category: "Politik",
			mutate: func(a *entity.Article) { a.Aliases = []string{"pemilu", "old"} }},
		seed{channel: "nasional", slug: "pemilu", title: "Canonical", category: "Politik"},
		seed{channel: "nasional", slug: "rahasia", title: "Draft", category: "Politik",
			mutate: func(a *entity.Article) { a.Status = entity.StatusDraft }},
	)
	svc := newService(t, repo)
	ctx := context.Background()

	got, err := svc.BySlug(ctx, "nasional", "pemilu")
	require.NoError(t, err)
	assert.Equal(t, "Canonical", got.Title, "canonical slug wins over alias")

	got, err = svc.BySlug(ctx, "nasional", "old")
	require.NoError(t, err)
	assert.Equal(t, "pemilu-2025", got.Slug)

	got, err = svc.BySlug(ctx, "nasional", "  Pemilu-2025 ")
	require.NoError(t, err)
	assert.Equal(t, "pemilu-2025", got.Slug)

	for _, missing := range []string{"rahasia", "nothing", "!!!"} {
		_, err = svc.BySlug(ctx, "nasional", missing)
		assert.ErrorIs(t, err, artUC.ErrArticleNotFound, missing)
		assert.ErrorIs(t, err, entity.ErrNotFound, missing)
	}
}

/* ───────── search ───────── */

func TestService_Search(t *testing.T) {
	svc := newService(t, seedRepo(t, portalSeeds()...))
	ctx := context.Background()

	got, err := svc.Search(ctx, "nasional", "  PEMILU ")
	require.NoError(t, err)
	assert.Equal(t, []string{"pemilu", "rupiah"}, slugs(got),
		"title match ranks before the newer tag-only match; drafts and other channels are excluded")

	empty, err := svc.Search(ctx, "nasional", "   ")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

/* ───────── isolation and errors ───────── */

func TestService_ChannelIsolation(t *testing.T) {
	svc := newService(t, seedRepo(t, portalSeeds()...))
	ctx := context.Background()

	checks := map[string]func() ([]*entity.Article, error){
		"list":     func() ([]*entity.Article, error) { return svc.ListAll(ctx, "sport", artUC.ListOptions{}) },
		"category": func() ([]*entity.Article, error) { return svc.ByCategory(ctx, "olahraga", "sepak bola") },
		"search":   func() ([]*entity.Article, error) { return svc.Search(ctx, "olahraga", "pemilu") },
	}
	for name, fn := range checks {
		t.Run(name, func(t *testing.T) {
			got, err := fn()
			require.NoError(t, err)
			require.NotEmpty(t, got)
			for _, a := range got {
				assert.Equal(t, "olahraga", a.ChannelID)
			}
		})
	}

	_, err := svc.BySlug(ctx, "nasional", "pemilu-pssi")
	assert.ErrorIs(t, err, artUC.ErrArticleNotFound)
}

func TestService_UnknownChannel(t *testing.T) {
	svc := newService(t, seedRepo(t))
	ctx := context.Background()

	_, err := svc.ListAll(ctx, "hiburan", artUC.ListOptions{})
	assert.ErrorIs(t, err, channel.ErrChannelNotFound)
	_, err = svc.ByCategory(ctx, "hiburan", "x")
	assert.ErrorIs(t, err, channel.ErrChannelNotFound)
	_, err = svc.BySlug(ctx, "hiburan", "x")
	assert.ErrorIs(t, err, channel.ErrChannelNotFound)
	_, err = svc.Related(ctx, "hiburan", "x", "", 0)
	assert.ErrorIs(t, err, channel.ErrChannelNotFound)
	_, err = svc.Search(ctx, "hiburan", "x")
	assert.ErrorIs(t, err, channel.ErrChannelNotFound)
	_, err = svc.Featured(ctx, "hiburan", 0)
	assert.ErrorIs(t, err, channel.ErrChannelNotFound)
	_, err = svc.Categories(ctx, "hiburan")
	assert.ErrorIs(t, err, channel.ErrChannelNotFound)
}

type unavailableRepo struct {
	repository.ArticleRepository
}

func (unavailableRepo) List(context.Context, string, repository.ArticleFilter) ([]*entity.Article, error) {
	return nil, &entity.StoreUnavailableError{Op: "List", Err: errors.New("connection refused")}
}

func TestService_StoreUnavailable(t *testing.T) {
	svc := newService(t, unavailableRepo{})

	_, err := svc.ListAll(context.Background(), "nasional", artUC.ListOptions{})
	assert.ErrorIs(t, err, entity.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, entity.ErrNotFound)
}

/* ───────── cache ───────── */

func TestService_CacheReturnsCopiesAndHonorsInvalidation(t *testing.T) {
	repo := seedRepo(t, portalSeeds()...)
	cache, err := artUC.NewCache(16)
	require.NoError(t, err)
	svc := artUC.NewService(registry(t), repo, cache)
	ctx := context.Background()

	first, err := svc.ListAll(ctx, "nasional", artUC.ListOptions{})
	require.NoError(t, err)
	first[0].Title = "mutated by caller"
	first[0].Tags[0] = "mutated"

	second, err := svc.ListAll(ctx, "nasional", artUC.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Rupiah menguat", second[0].Title)
	assert.Equal(t, []string{"pemilu"}, second[0].Tags)

	_, err = repo.Upsert(ctx, &entity.Article{
		ChannelID: "nasional", Slug: "baru", Title: "Baru", Category: "Politik",
		Status: entity.StatusPublished, PublishedAt: base.Add(10 * time.Hour), UpdatedAt: base,
	})
	require.NoError(t, err)

	stale, err := svc.ListAll(ctx, "nasional", artUC.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, stale, 5, "cached until the channel is invalidated")

	cache.Invalidate("nasional")
	fresh, err := svc.ListAll(ctx, "nasional", artUC.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "baru", fresh[0].Slug)
}

type blockingRepo struct {
	repository.ArticleRepository
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingRepo) List(context.Context, string, repository.ArticleFilter) ([]*entity.Article, error) {
	b.calls.Add(1)
	<-b.release
	return []*entity.Article{{ChannelID: "nasional", Slug: "a"}}, nil
}

func TestService_ConcurrentMissesShareOneLoad(t *testing.T) {
	repo := &blockingRepo{release: make(chan struct{})}
	svc := newService(t, repo)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.ListAll(context.Background(), "nasional", artUC.ListOptions{})
			assert.NoError(t, err)
			assert.Len(t, got, 1)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestService_NilCache(t *testing.T) {
	svc := artUC.NewService(registry(t), seedRepo(t, portalSeeds()...), nil)

	got, err := svc.ListAll(context.Background(), "nasional", artUC.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}
