package channel

import (
	"errors"

	"newsportal/internal/domain/entity"
)

// ErrChannelNotFound is returned when an identifier matches no channel.
// It is an expected outcome and matches entity.ErrNotFound.
var ErrChannelNotFound error = &entity.NotFoundError{Kind: "channel"}

// ErrDuplicateChannel is returned by New when two channels share an id or subdomain.
var ErrDuplicateChannel = errors.New("duplicate channel")

// ErrUnsupportedFormat is returned by Load for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported channel file format")
