package domain

import "time"

// Field is a content category backed by a public Telegram channel where
// posters are published.
type Field struct {
	ID          int64
	Name        string
	ChannelID   string
	ChannelLink string
	IsActive    bool
	CreatedAt   time.Time
}

// Link returns the channel link, falling back to @name.
func (f Field) Link() string {
	if f.ChannelLink != "" {
		return f.ChannelLink
	}
	return "@" + f.Name
}

// ChannelMessage locates a copy of a video inside a database channel.
type ChannelMessage struct {
	ChannelID string `json:"channelId"`
	MessageID int    `json:"messageId"`
}

type Movie struct {
	ID               int64
	Code             int
	Title            string
	Genre            string
	Description      *string
	FieldID          int64
	FieldName        string
	PosterFileID     string
	VideoFileID      string
	ChannelMessageID int
	VideoMessages    []ChannelMessage
	TotalEpisodes    int
	Views            int
	CreatedAt        time.Time
}

type Serial struct {
	ID               int64
	Code             int
	Title            string
	Genre            string
	Description      *string
	FieldID          int64
	FieldName        string
	PosterFileID     string
	ChannelMessageID int
	TotalEpisodes    int
	Views            int
	CreatedAt        time.Time
}

// ContentKind distinguishes movies from serials where both share a code space.
type ContentKind string

const (
	ContentMovie  ContentKind = "movie"
	ContentSerial ContentKind = "serial"
)

// Episode belongs to either a serial or a multi-part movie.
type Episode struct {
	ID            int64
	ContentKind   ContentKind
	ContentID     int64
	EpisodeNumber int
	Title         string
	VideoFileID   string
	VideoMessages []ChannelMessage
	CreatedAt     time.Time
}

// NewMovie carries the input for creating a movie record.
type NewMovie struct {
	Code             int
	Title            string
	Genre            string
	Description      *string
	FieldID          int64
	PosterFileID     string
	VideoFileID      string
	ChannelMessageID int
	VideoMessages    []ChannelMessage
}

// NewSerial carries the input for creating a serial with its first episodes.
type NewSerial struct {
	Code             int
	Title            string
	Genre            string
	Description      *string
	FieldID          int64
	PosterFileID     string
	ChannelMessageID int
	Episodes         []NewEpisode
}

type NewEpisode struct {
	EpisodeNumber int
	VideoFileID   string
	VideoMessages []ChannelMessage
}

// WatchHistory records that a user opened a piece of content.
type WatchHistory struct {
	ID          int64
	UserID      int64
	ContentKind ContentKind
	ContentID   int64
	WatchedAt   time.Time
}
