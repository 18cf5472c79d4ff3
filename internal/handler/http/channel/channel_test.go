package channel_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsportal/internal/channel"
	"newsportal/internal/domain/entity"
	hchannel "newsportal/internal/handler/http/channel"
)

func newMux(t *testing.T) *http.ServeMux {
	t.Helper()
	reg, err := channel.New([]entity.Channel{
		{ID: "nasional", Name: "Nasional", Layout: entity.LayoutPortal, Categories: []string{"Politik"}},
		{ID: "olahraga", Subdomain: "sport", Name: "Olahraga"},
	})
	require.NoError(t, err)
	mux := http.NewServeMux()
	hchannel.Register(mux, reg)
	return mux
}

func TestListHandler(t *testing.T) {
	w := httptest.NewRecorder()
	newMux(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/channels", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[
		{"id":"nasional","subdomain":"nasional","name":"Nasional","layout":"portal","categories":["Politik"],"social_links":{}},
		{"id":"olahraga","subdomain":"sport","name":"Olahraga","layout":"classic","categories":[],"social_links":{}}
	]}`, w.Body.String())
}

func TestGetHandler(t *testing.T) {
	mux := newMux(t)

	tests := []struct {
		path   string
		code   int
		wantID string
	}{
		{"/channels/nasional", http.StatusOK, "nasional"},
		{"/channels/sport", http.StatusOK, "olahraga"},
		{"/channels/OLAHRAGA", http.StatusOK, "olahraga"},
		{"/channels/hiburan", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.code, w.Code)
			if tt.wantID != "" {
				assert.Contains(t, w.Body.String(), `"id":"`+tt.wantID+`"`)
			}
		})
	}
}
