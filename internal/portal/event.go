package portal

import (
	"encoding/json"
	"strings"
)

type EventType string

const (
	EventSignedIn        EventType = "signed_in"
	EventSignedOut       EventType = "signed_out"
	EventTokenRefreshed  EventType = "token_refreshed"
	EventUserUpdated     EventType = "user_updated"
	EventMessageInserted EventType = "message_inserted"
)

// Event is what the realtime channel carries. Auth events set Session
// (nil for sign-out); table events carry the inserted row in Payload.
type Event struct {
	Type    EventType       `json:"type"`
	Topic   string          `json:"topic"`
	Seq     uint64          `json:"seq,omitempty"`
	Session *Session        `json:"session,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	authTopicPrefix = "auth:"
	teamTopicPrefix = "team:"
)

func AuthTopic(userID string) string { return authTopicPrefix + userID }

func TeamTopic(teamID string) string { return teamTopicPrefix + teamID }

// ParseTopic splits a topic into its kind ("auth" or "team") and id.
func ParseTopic(topic string) (kind, id string, ok bool) {
	kind, id, ok = strings.Cut(topic, ":")
	if !ok || id == "" || (kind != "auth" && kind != "team") {
		return "", "", false
	}
	return kind, id, true
}
