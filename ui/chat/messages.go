package chat

import (
	"context"
	"ticket-chat/domain/chat"
	"ticket-chat/runtime"
	"ticket-chat/services"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Every asynchronous result carries the generation it was started under.
// Results of a previous generation are discarded by Update.

type groupsLoadedMsg struct {
	selection services.GroupSelection
	err       error
}

type historyLoadedMsg struct {
	generation uint64
	groupID    chat.GroupID
	messages   []chat.Message
	err        error
}

type subscribedMsg struct {
	generation uint64
	feed       *runtime.GroupFeed
	err        error
}

type messageReceivedMsg struct {
	generation uint64
	feed       *runtime.GroupFeed
	message    chat.Message
}

type feedClosedMsg struct {
	generation uint64
	feed       *runtime.GroupFeed
	err        error
}

type reconnectMsg struct {
	generation uint64
}

type sendResultMsg struct {
	generation uint64
	tempID     chat.MessageID
	serverID   chat.MessageID
	draft      string
	err        error
}

func (m *Model) loadGroups() tea.Cmd {
	groups, userID, eventID := m.groups, m.session.UserID(), m.eventID
	return func() tea.Msg {
		selection, err := groups.Load(context.Background(), userID, eventID)
		return groupsLoadedMsg{selection: selection, err: err}
	}
}

func (m *Model) loadHistory(generation uint64, groupID chat.GroupID) tea.Cmd {
	service := m.chat
	return func() tea.Msg {
		messages, err := service.History(context.Background(), chat.GetMessageCommand{GroupID: groupID})
		return historyLoadedMsg{generation: generation, groupID: groupID, messages: messages, err: err}
	}
}

func (m *Model) subscribe(generation uint64, groupID chat.GroupID) tea.Cmd {
	realtime := m.realtime
	return func() tea.Msg {
		feed, err := realtime.Open(context.Background(), groupID)
		return subscribedMsg{generation: generation, feed: feed, err: err}
	}
}

// waitForMessage is re-armed after every delivered message.
func waitForMessage(generation uint64, feed *runtime.GroupFeed) tea.Cmd {
	return func() tea.Msg {
		message, ok := <-feed.Messages()
		if !ok {
			return feedClosedMsg{generation: generation, feed: feed, err: feed.Err()}
		}
		return messageReceivedMsg{generation: generation, feed: feed, message: message}
	}
}

func reconnectAfter(generation uint64, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return reconnectMsg{generation: generation}
	})
}

func (m *Model) sendMessage(generation uint64, optimistic chat.Message, draft string) tea.Cmd {
	service := m.chat
	cmd := chat.PostMessageCommand{
		GroupID:   optimistic.GroupID,
		UserID:    optimistic.AuthorID,
		Content:   optimistic.Content,
		CreatedAt: optimistic.CreatedAt,
	}
	return func() tea.Msg {
		id, err := service.PostMessage(context.Background(), cmd)
		return sendResultMsg{generation: generation, tempID: optimistic.ID, serverID: id, draft: draft, err: err}
	}
}
