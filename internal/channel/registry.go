// Package channel holds the registry of channels served by the portal.
//
// A Registry is built once at process start and never mutated, so it is safe
// for concurrent use without locking. It is passed to its consumers explicitly.
package channel

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"newsportal/internal/domain/entity"
)

// Registry maps channel ids and subdomains to channel descriptors.
type Registry struct {
	channels    []entity.Channel
	byID        map[string]int
	bySubdomain map[string]int
}

// New validates the channels and builds a registry that preserves their order.
// Ids and subdomains are compared case-insensitively and must be unique across
// both namespaces, except that a channel may use its own id as subdomain.
// A channel without a subdomain uses its id. Unknown layouts fall back to the
// default layout.
func New(channels []entity.Channel) (*Registry, error) {
	r := &Registry{
		channels:    make([]entity.Channel, 0, len(channels)),
		byID:        make(map[string]int, len(channels)),
		bySubdomain: make(map[string]int, len(channels)),
	}

	for _, ch := range channels {
		ch = normalize(ch)
		if err := ch.Validate(); err != nil {
			return nil, fmt.Errorf("channel %q: %w", ch.ID, err)
		}

		idx := len(r.channels)
		if _, dup := r.byID[ch.ID]; dup {
			return nil, fmt.Errorf("%w: id %q", ErrDuplicateChannel, ch.ID)
		}
		if _, dup := r.bySubdomain[ch.Subdomain]; dup {
			return nil, fmt.Errorf("%w: subdomain %q", ErrDuplicateChannel, ch.Subdomain)
		}
		if other, ok := r.bySubdomain[ch.ID]; ok {
			return nil, fmt.Errorf("%w: id %q is the subdomain of %q", ErrDuplicateChannel, ch.ID, r.channels[other].ID)
		}
		if other, ok := r.byID[ch.Subdomain]; ok && ch.Subdomain != ch.ID {
			return nil, fmt.Errorf("%w: subdomain %q is the id of %q", ErrDuplicateChannel, ch.Subdomain, r.channels[other].ID)
		}

		r.byID[ch.ID] = idx
		r.bySubdomain[ch.Subdomain] = idx
		r.channels = append(r.channels, ch)
	}
	return r, nil
}

func normalize(ch entity.Channel) entity.Channel {
	ch.ID = strings.ToLower(strings.TrimSpace(ch.ID))
	ch.Subdomain = strings.ToLower(strings.TrimSpace(ch.Subdomain))
	if ch.Subdomain == "" {
		ch.Subdomain = ch.ID
	}
	ch.Layout = entity.ParseLayoutType(string(ch.Layout))
	ch.Categories = slices.Clone(ch.Categories)
	ch.Keywords = dedupeFold(ch.Keywords)
	return ch
}

func dedupeFold(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		k := strings.ToLower(v)
		if v == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// Resolve finds a channel by id or subdomain, case-insensitively.
func (r *Registry) Resolve(identifier string) (entity.Channel, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))
	if idx, ok := r.byID[key]; ok {
		return r.clone(idx), nil
	}
	if idx, ok := r.bySubdomain[key]; ok {
		return r.clone(idx), nil
	}
	return entity.Channel{}, fmt.Errorf("resolve %q: %w", identifier, ErrChannelNotFound)
}

// ResolveHost resolves the channel named by the left-most label of a request
// host such as "olahraga.example.com:8080".
func (r *Registry) ResolveHost(host string) (entity.Channel, error) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		return entity.Channel{}, fmt.Errorf("resolve host %q: %w", host, ErrChannelNotFound)
	}
	idx, ok := r.bySubdomain[strings.ToLower(label)]
	if !ok {
		return entity.Channel{}, fmt.Errorf("resolve host %q: %w", host, ErrChannelNotFound)
	}
	return r.clone(idx), nil
}

// Has reports whether id names a channel.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[strings.ToLower(strings.TrimSpace(id))]
	return ok
}

// List returns all channels in configured order.
func (r *Registry) List() []entity.Channel {
	out := make([]entity.Channel, len(r.channels))
	for i := range r.channels {
		out[i] = r.clone(i)
	}
	return out
}

// IDs returns the channel ids in configured order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.channels))
	for i, ch := range r.channels {
		ids[i] = ch.ID
	}
	return ids
}

// Len returns the number of channels.
func (r *Registry) Len() int {
	return len(r.channels)
}

func (r *Registry) clone(idx int) entity.Channel {
	ch := r.channels[idx]
	ch.Categories = slices.Clone(ch.Categories)
	ch.Keywords = slices.Clone(ch.Keywords)
	return ch
}
