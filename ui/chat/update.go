package chat

import (
	"strings"
	"ticket-chat/domain/chat"
	"ticket-chat/errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Init loads the groups of the signed-in user.
func (m *Model) Init() tea.Cmd {
	if m.session == nil {
		return nil
	}
	m.groupsLoading = true
	return tea.Batch(m.spinner.Tick, m.loadGroups(), textinput.Blink)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.groupsLoading && m.state != StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case groupsLoadedMsg:
		m.groupsLoading = false
		m.groupList = msg.selection.Groups
		if msg.err != nil {
			m.errText = errors.UserMessage(msg.err)
		}
		if msg.selection.Active == nil {
			return m, nil
		}
		return m, m.activate(*msg.selection.Active)

	case historyLoadedMsg:
		if msg.generation != m.generation {
			return m, nil
		}
		if msg.err != nil {
			m.errText = errors.UserMessage(msg.err)
		} else if m.timeline.Load(msg.messages) {
			m.refresh()
		}
		m.historyReady = true
		m.syncState()
		return m, nil

	case subscribedMsg:
		return m, m.handleSubscribed(msg)

	case messageReceivedMsg:
		if msg.generation != m.generation || msg.feed != m.feed {
			return m, nil
		}
		if m.timeline.Merge(msg.message) {
			m.refresh()
		}
		return m, waitForMessage(msg.generation, msg.feed)

	case feedClosedMsg:
		if msg.generation != m.generation || msg.feed != m.feed || msg.err == nil {
			return m, nil
		}
		m.log.Warn("Realtime feed lost", "group_id", msg.feed.GroupID(), "error", msg.err)
		m.releaseFeed()
		return m, m.scheduleReconnect()

	case reconnectMsg:
		if msg.generation != m.generation || m.active == nil || m.closed {
			return m, nil
		}
		m.reconnectAttempt++
		groupID := m.active.ID
		// History is fetched again, messages missed while disconnected are merged by id
		return m, tea.Batch(m.subscribe(m.generation, groupID), m.loadHistory(m.generation, groupID))

	case sendResultMsg:
		if msg.generation != m.generation {
			// The entry left with its group, the failure is still reported
			if msg.err != nil {
				m.errText = "Message not sent: " + errors.UserMessage(msg.err)
				if m.input.Value() == "" {
					m.input.SetValue(msg.draft)
					m.input.CursorEnd()
				}
			}
			return m, nil
		}
		if m.sending > 0 {
			m.sending--
		}
		if msg.err != nil {
			m.timeline.Remove(msg.tempID)
			m.input.SetValue(msg.draft)
			m.input.CursorEnd()
			m.errText = errors.UserMessage(msg.err)
		} else {
			m.timeline.Confirm(msg.tempID, msg.serverID)
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Dismiss):
		m.errText = ""
		return m, nil
	case key.Matches(msg, m.keys.NewLine):
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m, m.send()
	case key.Matches(msg, m.keys.NextGroup):
		return m, m.cycleGroup(1)
	case key.Matches(msg, m.keys.PrevGroup):
		return m, m.cycleGroup(-1)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// activate makes group the active one.
// The previous subscription is released before the next one is requested.
func (m *Model) activate(group chat.Group) tea.Cmd {
	if m.closed {
		return nil
	}
	if m.active != nil && m.active.ID == group.ID && m.state != StateIdle {
		return nil
	}
	m.releaseFeed()
	m.generation++
	m.active = &group
	m.timeline.Reset(group.ID)
	m.state = StateLoading
	m.sending = 0
	m.historyReady = false
	m.connectionLost = false
	m.reconnectAttempt = 0
	m.refresh()
	m.input.Focus()
	m.log.Debug("Group activated", "group_id", group.ID, "generation", m.generation)

	return tea.Batch(
		m.loadHistory(m.generation, group.ID),
		m.subscribe(m.generation, group.ID),
		m.spinner.Tick,
	)
}

// handleSubscribed keeps the feed of the current generation and closes the others.
func (m *Model) handleSubscribed(msg subscribedMsg) tea.Cmd {
	if msg.generation != m.generation || m.closed {
		if msg.feed != nil {
			_ = msg.feed.Close()
		}
		return nil
	}
	if msg.err != nil {
		m.errText = errors.UserMessage(msg.err)
		return m.scheduleReconnect()
	}
	m.releaseFeed()
	m.feed = msg.feed
	m.connectionLost = false
	m.reconnectAttempt = 0
	m.syncState()
	return waitForMessage(msg.generation, msg.feed)
}

func (m *Model) scheduleReconnect() tea.Cmd {
	m.connectionLost = true
	m.syncState()
	delay := m.backoff()
	m.log.Info("Reconnecting realtime feed", "attempt", m.reconnectAttempt+1, "delay", delay)
	return reconnectAfter(m.generation, delay)
}

// syncState derives the state of the active group.
// Loading lasts until the history is loaded and the feed is open,
// a lost feed after the history turns it into Unsubscribed.
func (m *Model) syncState() {
	if m.active == nil {
		return
	}
	if m.state == StateLoading && !(m.historyReady && m.feed != nil) {
		if m.historyReady && m.connectionLost {
			m.state = StateUnsubscribed
		}
		return
	}
	if m.feed != nil {
		m.state = StateSubscribed
	} else {
		m.state = StateUnsubscribed
	}
}

// send appends the optimistic entry before the insert is issued.
func (m *Model) send() tea.Cmd {
	if m.session == nil || m.active == nil {
		return nil
	}
	draft := m.input.Value()
	content := strings.TrimSpace(draft)
	if content == "" {
		return nil
	}
	profile := m.session.Profile()
	optimistic := chat.Message{
		ID:        chat.NewOptimisticID(),
		GroupID:   m.active.ID,
		AuthorID:  m.session.UserID(),
		Author:    &profile,
		Content:   content,
		CreatedAt: m.now().UTC(),
		Pending:   true,
	}
	m.timeline.AppendOptimistic(optimistic)
	m.input.SetValue("")
	m.errText = ""
	m.sending++
	m.refresh()
	return m.sendMessage(m.generation, optimistic, draft)
}

func (m *Model) cycleGroup(step int) tea.Cmd {
	if len(m.groupList) < 2 {
		return nil
	}
	current := 0
	if m.active != nil {
		for i, group := range m.groupList {
			if group.ID == m.active.ID {
				current = i
				break
			}
		}
	}
	next := (current + step + len(m.groupList)) % len(m.groupList)
	return m.activate(m.groupList[next])
}
