// Package chat is the chat view of the terminal client, a Bubble Tea model.
// Update is the only place where state changes, network calls run in commands.
package chat

import (
	"context"
	"io"
	"log/slog"
	"ticket-chat/domain/chat"
	"ticket-chat/projection"
	"ticket-chat/runtime"
	"ticket-chat/services"
	"ticket-chat/session"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
)

// State of the active group.
type State int

const (
	StateIdle         State = iota // No active group
	StateLoading                   // History and subscription requested
	StateSubscribed                // History loaded, live subscription running
	StateUnsubscribed              // Subscription lost, waiting for reconnection
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSubscribed:
		return "subscribed"
	case StateUnsubscribed:
		return "unsubscribed"
	default:
		return "idle"
	}
}

const (
	defaultReconnectMin = time.Second
	defaultReconnectMax = 30 * time.Second
	sidebarWidth        = 28
	composerMaxLength   = 2000
	defaultWidth        = 80
	defaultHeight       = 24
)

// GroupLoader loads the groups of the user and the initial active group.
type GroupLoader interface {
	Load(ctx context.Context, userID chat.UserID, eventID chat.EventID) (services.GroupSelection, error)
}

// FeedOpener opens the realtime feed of a group.
type FeedOpener interface {
	Open(ctx context.Context, groupID chat.GroupID) (*runtime.GroupFeed, error)
}

// Config gathers the dependencies of the chat view.
// A nil Session renders the sign-in prompt, Notice then tells why.
type Config struct {
	Session      *session.Session
	Notice       string
	Groups       GroupLoader
	Chat         services.IChatService
	Realtime     FeedOpener
	EventID      chat.EventID
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	Now          func() time.Time
	Log          *slog.Logger
}

type Model struct {
	session  *session.Session
	groups   GroupLoader
	chat     services.IChatService
	realtime FeedOpener
	eventID  chat.EventID
	now      func() time.Time
	log      *slog.Logger

	state         State
	groupsLoading bool
	groupList     []chat.Group
	active        *chat.Group
	timeline      *projection.Timeline
	feed          *runtime.GroupFeed
	generation    uint64
	sending       int
	errText       string
	historyReady  bool

	connectionLost   bool
	reconnectAttempt int
	reconnectMin     time.Duration
	reconnectMax     time.Duration

	width    int
	height   int
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap
	styles   Styles
	closed   bool
}

func New(cfg Config) *Model {
	input := textinput.New()
	input.Placeholder = "Type your message..."
	input.CharLimit = composerMaxLength
	input.Prompt = "> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		session:      cfg.Session,
		groups:       cfg.Groups,
		chat:         cfg.Chat,
		realtime:     cfg.Realtime,
		eventID:      cfg.EventID,
		errText:      cfg.Notice,
		now:          cfg.Now,
		log:          cfg.Log,
		timeline:     projection.NewTimeline(""),
		reconnectMin: cfg.ReconnectMin,
		reconnectMax: cfg.ReconnectMax,
		viewport:     viewport.New(defaultWidth-sidebarWidth-2, defaultHeight-8),
		input:        input,
		spinner:      sp,
		help:         help.New(),
		keys:         DefaultKeyMap(),
		styles:       DefaultStyles(),
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.log == nil {
		m.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m.reconnectMin <= 0 {
		m.reconnectMin = defaultReconnectMin
	}
	if m.reconnectMax < m.reconnectMin {
		m.reconnectMax = defaultReconnectMax
	}
	return m
}

func (m *Model) State() State {
	return m.state
}

// Messages returns the timeline of the active group.
func (m *Model) Messages() []chat.Message {
	return m.timeline.Messages()
}

func (m *Model) ActiveGroup() *chat.Group {
	return m.active
}

func (m *Model) Groups() []chat.Group {
	return m.groupList
}

// Err returns the error line, empty when there is none.
func (m *Model) Err() string {
	return m.errText
}

func (m *Model) Draft() string {
	return m.input.Value()
}

// Sending is the number of inserts waiting for an answer.
func (m *Model) Sending() int {
	return m.sending
}

func (m *Model) ConnectionLost() bool {
	return m.connectionLost
}

// Close releases the live subscription. It is safe to call more than once.
func (m *Model) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.releaseFeed()
}

func (m *Model) releaseFeed() {
	if m.feed == nil {
		return
	}
	if err := m.feed.Close(); err != nil {
		m.log.Warn("Cannot release realtime feed", "group_id", m.feed.GroupID(), "error", err)
	}
	m.feed = nil
}

// backoff doubles the reconnection delay up to the maximum.
func (m *Model) backoff() time.Duration {
	delay := m.reconnectMin
	for i := 0; i < m.reconnectAttempt && delay < m.reconnectMax; i++ {
		delay *= 2
	}
	if delay > m.reconnectMax {
		delay = m.reconnectMax
	}
	return delay
}
