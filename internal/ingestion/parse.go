package ingestion

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SparkssL/Seer-Engine/internal/domain"
)

// parseStreamMessage extracts events from one stream frame. The stream API
// emits either a single post at the message root or a "tweets" array, with
// both camelCase and snake_case field names depending on API version.
// Returns nil for control frames (connected, ping) and unparseable posts.
func parseStreamMessage(raw []byte) []*domain.Event {
	var msg map[string]any
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil
	}

	eventType := pickString(msg, "type", "event_type")
	if eventType != "tweet" {
		return nil
	}

	if _, ok := msg["text"]; ok {
		if event := parsePost(msg, msg); event != nil {
			return []*domain.Event{event}
		}
		return nil
	}

	list, ok := msg["tweets"].([]any)
	if !ok {
		return nil
	}
	var events []*domain.Event
	for _, item := range list {
		post, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if event := parsePost(post, msg); event != nil {
			events = append(events, event)
		}
	}
	return events
}

func parsePost(data, envelope map[string]any) *domain.Event {
	text := pickString(data, "text")
	if text == "" {
		return nil
	}

	id := pickString(data, "id", "id_str", "tweet_id")
	if id == "" {
		id = fmt.Sprintf("post-%d", time.Now().UnixMilli())
	}

	timestamp := pickString(data, "createdAt", "created_at")
	if timestamp == "" {
		if ms := pickFloat(envelope, "timestamp"); ms > 0 {
			timestamp = time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339)
		} else {
			timestamp = time.Now().UTC().Format(time.RFC3339)
		}
	}

	author, _ := data["author"].(map[string]any)
	if author == nil {
		author, _ = data["user"].(map[string]any)
	}

	event := &domain.Event{
		ID:        id,
		Text:      text,
		Timestamp: timestamp,
		Engagement: domain.EventEngagement{
			Likes:   int(pickFloat(data, "likeCount", "favorite_count")),
			Reposts: int(pickFloat(data, "retweetCount", "retweet_count")),
			Replies: int(pickFloat(data, "replyCount", "reply_count")),
		},
	}

	if author != nil {
		event.Author = domain.EventAuthor{
			Name:     pickString(author, "name", "display_name"),
			Handle:   pickString(author, "userName", "username", "screen_name"),
			Avatar:   pickString(author, "profilePicture", "profile_image_url_https", "profile_image_url"),
			Verified: pickBool(author, "isBlueVerified", "verified", "is_blue_verified"),
		}
	}
	if event.Author.Name == "" {
		event.Author.Name = "Unknown"
	}
	if event.Author.Handle == "" {
		event.Author.Handle = "unknown"
	}

	return event
}

func pickString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func pickFloat(fields map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := fields[key].(float64); ok {
			return v
		}
	}
	return 0
}

func pickBool(fields map[string]any, keys ...string) bool {
	for _, key := range keys {
		if v, ok := fields[key].(bool); ok && v {
			return true
		}
	}
	return false
}
