package chat

import (
	"fmt"
	"strings"
	"ticket-chat/domain/chat"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	signInPrompt  = "Please sign in to access your event chats."
	loadingChats  = "Loading chats..."
	noChatsTitle  = "No chats yet"
	noChatsHint   = "Purchase a ticket to join event chats!"
	sidebarTitle  = "Event Chats"
	ownName       = "You"
	anonymousName = "User"
	lostText      = "Connection lost, reconnecting…"
	timeLayout    = "3:04 PM"
)

// Styles of the chat view.
type Styles struct {
	Title       lipgloss.Style
	Muted       lipgloss.Style
	Sidebar     lipgloss.Style
	GroupActive lipgloss.Style
	Group       lipgloss.Style
	Header      lipgloss.Style
	OwnAvatar   lipgloss.Style
	Avatar      lipgloss.Style
	OwnBubble   lipgloss.Style
	Bubble      lipgloss.Style
	Pending     lipgloss.Style
	Error       lipgloss.Style
	Warning     lipgloss.Style
	Composer    lipgloss.Style
	Center      lipgloss.Style
}

func DefaultStyles() Styles {
	red := lipgloss.Color("#dc2626")
	purple := lipgloss.Color("#9333ea")
	gray := lipgloss.Color("#6b7280")
	return Styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")),
		Muted:       lipgloss.NewStyle().Foreground(gray),
		Sidebar:     lipgloss.NewStyle().Width(sidebarWidth).Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).BorderRight(true).BorderForeground(red),
		GroupActive: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(purple).Padding(0, 1),
		Group:       lipgloss.NewStyle().Foreground(lipgloss.Color("#d1d5db")).Padding(0, 1),
		Header:      lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(red),
		OwnAvatar:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(red),
		Avatar:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#4b5563")),
		OwnBubble:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(purple).Padding(0, 1),
		Bubble:      lipgloss.NewStyle().Foreground(lipgloss.Color("#f3f4f6")).Background(lipgloss.Color("#1f2937")).Padding(0, 1),
		Pending:     lipgloss.NewStyle().Faint(true),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171")),
		Warning:     lipgloss.NewStyle().Foreground(lipgloss.Color("#fbbf24")),
		Composer:    lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).BorderTop(true).BorderForeground(red),
		Center:      lipgloss.NewStyle().Align(lipgloss.Center),
	}
}

func (m *Model) View() string {
	switch {
	case m.session == nil:
		body := m.styles.Title.Render(signInPrompt)
		if m.errText != "" {
			body += "\n\n" + m.styles.Error.Render(m.errText)
		}
		return m.centered(body)
	case m.groupsLoading:
		return m.centered(m.spinner.View() + " " + m.styles.Muted.Render(loadingChats))
	case len(m.groupList) == 0:
		body := m.styles.Title.Render(noChatsTitle) + "\n" + m.styles.Muted.Render(noChatsHint)
		if m.errText != "" {
			body += "\n\n" + m.styles.Error.Render(m.errText)
		}
		return m.centered(body)
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.composerView(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), main)
}

func (m *Model) centered(body string) string {
	if m.width == 0 || m.height == 0 {
		return body + "\n"
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.styles.Center.Render(body))
}

func (m *Model) sidebarView() string {
	lines := []string{m.styles.Title.Render(sidebarTitle), ""}
	for _, group := range m.groupList {
		style := m.styles.Group
		if m.active != nil && m.active.ID == group.ID {
			style = m.styles.GroupActive
		}
		width := sidebarWidth - 4
		lines = append(lines,
			style.Render(truncate(group.Event.Title, width)),
			m.styles.Muted.Render(" "+truncate(group.Event.Venue, width)),
			"")
	}
	sidebar := m.styles.Sidebar
	if m.height > 0 {
		sidebar = sidebar.Height(m.height)
	}
	return sidebar.Render(strings.Join(lines, "\n"))
}

func (m *Model) headerView() string {
	if m.active == nil {
		return ""
	}
	title := m.styles.Title.Render(m.active.Event.Title)
	venue := m.styles.Muted.Render(m.active.Event.Venue)
	if m.state == StateLoading {
		venue += "  " + m.spinner.View()
	}
	return m.styles.Header.Render(title + "\n" + venue)
}

func (m *Model) composerView() string {
	var lines []string
	if m.connectionLost {
		lines = append(lines, m.styles.Warning.Render(lostText))
	}
	if m.errText != "" {
		lines = append(lines, m.styles.Error.Render(m.errText))
	}
	input := m.input.View()
	if m.sending > 0 {
		input += m.styles.Muted.Render(fmt.Sprintf("  sending %d", m.sending))
	}
	lines = append(lines, input, m.help.ShortHelpView(m.keys.ShortHelp()))
	return m.styles.Composer.Render(strings.Join(lines, "\n"))
}

// renderMessages draws the timeline, oldest first.
func (m *Model) renderMessages() string {
	messages := m.timeline.Messages()
	if len(messages) == 0 {
		return m.styles.Muted.Render("No messages yet. Say hi!")
	}
	var b strings.Builder
	for i, message := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderMessage(message))
	}
	return b.String()
}

func (m *Model) renderMessage(message chat.Message) string {
	own := m.session != nil && message.AuthorID == m.session.UserID()
	name := authorName(message, own)

	avatar, bubble := m.styles.Avatar, m.styles.Bubble
	if own {
		avatar, bubble = m.styles.OwnAvatar, m.styles.OwnBubble
	}
	meta := m.styles.Muted.Render(name + "  " + message.CreatedAt.Local().Format(timeLayout))
	content := bubble.Render(message.Content)
	if message.Pending {
		content = m.styles.Pending.Render(content)
	}
	block := lipgloss.JoinVertical(lipgloss.Left, meta, content)
	initials := avatar.Render(" " + message.Author.Initials() + " ")

	if own {
		row := lipgloss.JoinHorizontal(lipgloss.Bottom, block, " ", initials)
		return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, row)
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, initials, " ", block)
}

// authorName labels own messages "You" and others by their profile.
func authorName(message chat.Message, own bool) string {
	if own {
		return ownName
	}
	if message.Author != nil && strings.TrimSpace(message.Author.FullName) != "" {
		return message.Author.FullName
	}
	return anonymousName
}

// refresh redraws the timeline and scrolls to the latest message.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	mainWidth := width - sidebarWidth - 2
	if mainWidth < 20 {
		mainWidth = 20
	}
	// Header and composer take about seven lines
	viewportHeight := height - 8
	if viewportHeight < 3 {
		viewportHeight = 3
	}
	m.viewport.Width = mainWidth
	m.viewport.Height = viewportHeight
	m.input.Width = mainWidth - 4
	m.help.Width = mainWidth
	m.refresh()
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
