package domain

import (
	"strings"
	"time"
)

type ChannelType string

const (
	ChannelPublic   ChannelType = "PUBLIC"
	ChannelPrivate  ChannelType = "PRIVATE"
	ChannelExternal ChannelType = "EXTERNAL"
)

func (t ChannelType) Valid() bool {
	switch t {
	case ChannelPublic, ChannelPrivate, ChannelExternal:
		return true
	default:
		return false
	}
}

// MandatoryChannel is a channel or page a non-premium user must join before
// using the bot. External channels carry their link as ChannelID.
type MandatoryChannel struct {
	ID              int64
	ChannelID       string
	ChannelName     string
	ChannelLink     string
	Type            ChannelType
	IsActive        bool
	MemberLimit     *int
	CurrentMembers  int
	PendingRequests int
	Order           int
	CreatedAt       time.Time
}

func (c MandatoryChannel) IsExternal() bool {
	return c.Type == ChannelExternal
}

// LimitReached reports whether the member counter hit the configured limit.
func (c MandatoryChannel) LimitReached() bool {
	return c.MemberLimit != nil && c.CurrentMembers >= *c.MemberLimit
}

// DatabaseChannel is a private storage channel that keeps a copy of every
// uploaded video.
type DatabaseChannel struct {
	ID          int64
	ChannelID   string
	ChannelName string
	ChannelLink string
	IsActive    bool
	CreatedAt   time.Time
}

// IsInviteLink reports whether link is a private invite link.
func IsInviteLink(link string) bool {
	return strings.Contains(link, "/+") || strings.Contains(link, "/joinchat/")
}
