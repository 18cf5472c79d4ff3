// Package channel serves the configured channels.
package channel

import (
	"net/http"

	"newsportal/internal/domain/entity"
	"newsportal/internal/handler/http/respond"
)

// Lister is the subset of *channel.Registry the handlers need.
type Lister interface {
	List() []entity.Channel
	Resolve(identifier string) (entity.Channel, error)
}

// DTO is the JSON form of a channel.
type DTO struct {
	ID          string             `json:"id"`
	Subdomain   string             `json:"subdomain"`
	Name        string             `json:"name"`
	Tagline     string             `json:"tagline,omitempty"`
	Description string             `json:"description,omitempty"`
	Layout      string             `json:"layout"`
	Categories  []string           `json:"categories"`
	Keywords    []string           `json:"keywords,omitempty"`
	SocialLinks entity.SocialLinks `json:"social_links"`
}

func toDTO(ch entity.Channel) DTO {
	cats := ch.Categories
	if cats == nil {
		cats = []string{}
	}
	return DTO{
		ID:          ch.ID,
		Subdomain:   ch.Subdomain,
		Name:        ch.Name,
		Tagline:     ch.Tagline,
		Description: ch.Description,
		Layout:      string(ch.Layout),
		Categories:  cats,
		Keywords:    ch.Keywords,
		SocialLinks: ch.SocialLinks,
	}
}

// Register mounts GET /channels and GET /channels/{channel}.
func Register(mux *http.ServeMux, channels Lister) {
	mux.Handle("GET /channels", ListHandler{Channels: channels})
	mux.Handle("GET /channels/{channel}", GetHandler{Channels: channels})
}

type ListHandler struct{ Channels Lister }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	list := h.Channels.List()
	out := make([]DTO, len(list))
	for i, ch := range list {
		out[i] = toDTO(ch)
	}
	respond.JSON(w, http.StatusOK, map[string][]DTO{"data": out})
}

type GetHandler struct{ Channels Lister }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ch, err := h.Channels.Resolve(r.PathValue("channel"))
	if err != nil {
		respond.SafeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(ch))
}
