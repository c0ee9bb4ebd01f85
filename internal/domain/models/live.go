package models

import "time"

const (
	MessageSentiment  = "sentiment"
	MessageLiveUpdate = "live-update"
	MessageSubscribe  = "subscribe"
)

// LiveMessage is a server to client frame on the live channel.
type LiveMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// LiveTick is the periodic synthetic update.
type LiveTick struct {
	Timestamp  time.Time `json:"timestamp"`
	NiftyValue float64   `json:"niftyValue"`
	Score      float64   `json:"score"`
}

// ClientMessage is a client to server frame.
type ClientMessage struct {
	Type    string `json:"type" validate:"required,max=32"`
	Channel string `json:"channel" validate:"max=64"`
}

// MarketUpdatedEvent is published after every persisted update cycle.
type MarketUpdatedEvent struct {
	ID        string            `json:"id"`
	Source    string            `json:"source"`
	Trigger   string            `json:"trigger"`
	Sentiment *SentimentReading `json:"sentiment"`
	Snapshot  *MarketSnapshot   `json:"snapshot"`
	NewsCount int               `json:"newsCount"`
	CreatedAt time.Time         `json:"createdAt"`
}
