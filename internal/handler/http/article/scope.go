package article

import (
	"net/http"

	"newsportal/internal/domain/entity"
)

// HostResolver maps a request host to its channel. *channel.Registry implements it.
type HostResolver interface {
	ResolveHost(host string) (entity.Channel, error)
}

// Scope extracts the channel identifier a request is addressed to.
type Scope func(r *http.Request) (string, error)

// PathScope reads the {channel} path wildcard.
func PathScope(r *http.Request) (string, error) {
	return r.PathValue("channel"), nil
}

// HostScope resolves the channel from the request host.
func HostScope(hosts HostResolver) Scope {
	return func(r *http.Request) (string, error) {
		ch, err := hosts.ResolveHost(r.Host)
		if err != nil {
			return "", err
		}
		return ch.ID, nil
	}
}
