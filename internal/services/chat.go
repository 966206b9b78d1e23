package services

import (
	"context"

	"github.com/peopledesk/peopledesk/internal/data"
	"github.com/peopledesk/peopledesk/internal/query"
	"github.com/peopledesk/peopledesk/pkg/types"
)

// ChatChannels manages the chat_channels collection.
type ChatChannels struct {
	*Resource[types.ChatChannel]
}

// NewChatChannels creates the chat channels service.
func NewChatChannels(db *data.DB) *ChatChannels {
	return &ChatChannels{newResource(db, "chat_channels", "channel", sampleChannels,
		func(c *types.ChatChannel) string { return c.ID },
		func(c *types.ChatChannel) {
			c.Status = orDefault(c.Status, "active")
			c.Type = orDefault(c.Type, "public")
		},
	)}
}

// ChatMessages manages the chat_messages collection.
type ChatMessages struct {
	*Resource[types.ChatMessage]
}

// NewChatMessages creates the chat messages service.
func NewChatMessages(db *data.DB) *ChatMessages {
	return &ChatMessages{newResource(db, "chat_messages", "msg", sampleMessages,
		func(m *types.ChatMessage) string { return m.ID },
		func(m *types.ChatMessage) {
			m.MessageType = orDefault(m.MessageType, "text")
			m.Status = orDefault(m.Status, "sent")
		},
	)}
}

// ListByChannel returns a channel's messages in posting order. Page and
// limit are taken from p; ordering is always oldest first.
func (s *ChatMessages) ListByChannel(ctx context.Context, channelID string, p *query.Pagination) types.Response[[]types.ChatMessage] {
	page := query.Pagination{OrderBy: "created_at", Ascending: true}
	if p != nil {
		page.Page, page.Limit = p.Page, p.Limit
	}
	var fallback []types.ChatMessage
	for _, m := range s.samples {
		if m.ChannelID == channelID {
			fallback = append(fallback, m)
		}
	}
	return s.table.List(ctx, &page, []query.Filter{query.Eq("channel_id", channelID)}, fallback)
}

// Edit replaces a message's content.
func (s *ChatMessages) Edit(ctx context.Context, id, content string) types.Response[*types.ChatMessage] {
	return s.Update(ctx, id, data.Patch{
		"content":   content,
		"edited_at": s.now(),
	})
}

var sampleChannels = []types.ChatChannel{
	{
		ID:          "channel_1",
		Name:        "general",
		Description: "Company-wide announcements",
		Type:        "public",
		CreatedBy:   "Elena Ruiz",
		Status:      "active",
		CreatedAt:   mustTime("2023-05-01T08:00:00Z"),
	},
	{
		ID:          "channel_2",
		Name:        "people-ops",
		Description: "HR team coordination",
		Type:        "private",
		CreatedBy:   "Marcus Johnson",
		Status:      "active",
		CreatedAt:   mustTime("2023-05-03T08:00:00Z"),
	},
}

var sampleMessages = []types.ChatMessage{
	{
		ID:          "msg_1",
		ChannelID:   "channel_1",
		SenderID:    "emp_001",
		SenderName:  "Elena Ruiz",
		Content:     "Welcome to the new admin portal!",
		MessageType: "text",
		Status:      "sent",
		CreatedAt:   mustTime("2024-03-01T09:00:00Z"),
	},
	{
		ID:          "msg_2",
		ChannelID:   "channel_1",
		SenderID:    "emp_104",
		SenderName:  "Sarah Chen",
		Content:     "Room bookings now sync with calendars.",
		MessageType: "text",
		Status:      "sent",
		CreatedAt:   mustTime("2024-03-01T09:05:00Z"),
	},
	{
		ID:          "msg_3",
		ChannelID:   "channel_2",
		SenderID:    "emp_087",
		SenderName:  "Marcus Johnson",
		Content:     "Onboarding checklist updated for April starters.",
		MessageType: "text",
		Status:      "sent",
		CreatedAt:   mustTime("2024-03-02T14:20:00Z"),
	},
}
