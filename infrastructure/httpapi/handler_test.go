package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"ticket-chat/auth"
	"ticket-chat/domain/chat"
	"ticket-chat/errors"
	"ticket-chat/infrastructure/hosted"
	"ticket-chat/internal"
	"ticket-chat/moderation"
	"ticket-chat/repositories"
	"ticket-chat/runtime"
	"ticket-chat/runtime/workers"
	"ticket-chat/services"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const (
	anonKey  = "anon-key"
	password = "Backstage#2026"
)

type backendFixture struct {
	server *httptest.Server
	alice  string
	bob    string
	groupA string
	groupB string
}

// newBackendFixture runs the whole development backend on a temporary Badger store.
// Alice holds tickets for both events, Bob only for the first one.
func newBackendFixture(t *testing.T) backendFixture {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	users := repositories.NewUserRepository(db)
	groups := repositories.NewGroupRepository(db)
	messages := repositories.NewMessageRepository(db, log, nil)
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	authService := services.NewAuthService(users, issuer, log)
	moderator, err := moderation.NewModerator([]string{"scam"}, '*', log)
	req.NoError(err)

	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log), registry, 16, time.Second, time.Minute)
	messageService := services.NewMessageService(messages, groups, users, moderator, orchestrator.Stored(), 200, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		orchestrator.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		orchestrator.Stop()
		cancel()
		<-done
	})

	f := backendFixture{groupA: "group-a", groupB: "group-b"}
	f.alice, err = authService.Register("alice@example.com", password, "Alice Martin")
	req.NoError(err)
	f.bob, err = authService.Register("bob@example.com", password, "Bob Durand")
	req.NoError(err)
	for i, groupID := range []string{f.groupA, f.groupB} {
		eventID := []string{"event-a", "event-b"}[i]
		req.NoError(groups.SaveEvent(repositories.DiskEvent{ID: eventID, Title: "Show " + eventID, Venue: "Zenith"}))
		req.NoError(groups.SaveGroup(repositories.DiskGroup{ID: groupID, EventID: eventID}))
		req.NoError(groups.AddMember(f.alice, groupID))
	}
	req.NoError(groups.AddMember(f.bob, f.groupA))

	h := New(authService, messageService, registry, issuer, anonKey, 16, log)
	f.server = httptest.NewServer(h.SetupRouter())
	t.Cleanup(f.server.Close)
	return f
}

// signedIn returns a hosted client signed in as email.
func (f backendFixture) signedIn(t *testing.T, email string) (*hosted.Client, chat.AuthGrant) {
	t.Helper()
	var token string
	client, err := hosted.New(internal.BackendConfig{URL: f.server.URL, AnonKey: anonKey},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		hosted.WithAccessToken(func() string { return token }),
		hosted.WithHeartbeat(time.Second))
	require.NoError(t, err)
	grant, err := client.SignIn(context.Background(), email, password)
	require.NoError(t, err)
	token = grant.AccessToken
	return client, grant
}

func TestDevBackend_SignIn(t *testing.T) {
	req := require.New(t)
	f := newBackendFixture(t)

	// When alice signs in with the right password
	_, grant := f.signedIn(t, "alice@example.com")

	// Then the grant carries her profile
	req.Equal(chat.UserID(f.alice), grant.User.ID)
	req.Equal("Alice Martin", grant.Profile.FullName)
	req.NotEmpty(grant.AccessToken)

	// A wrong password is refused with the hosted error code
	client, err := hosted.New(internal.BackendConfig{URL: f.server.URL, AnonKey: anonKey}, slog.Default())
	req.NoError(err)
	_, err = client.SignIn(context.Background(), "alice@example.com", "Wrong#password1")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestDevBackend_Rejects_Missing_API_Key(t *testing.T) {
	req := require.New(t)
	f := newBackendFixture(t)

	resp, err := http.Get(f.server.URL + "/rest/v1/group_members")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestDevBackend_Rejects_Missing_Token(t *testing.T) {
	req := require.New(t)
	f := newBackendFixture(t)

	client, err := hosted.New(internal.BackendConfig{URL: f.server.URL, AnonKey: anonKey}, slog.Default())
	req.NoError(err)

	// The anon key is not a user token
	_, err = client.ListMemberships(context.Background(), chat.UserID(f.alice))
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestDevBackend_Memberships_And_History(t *testing.T) {
	req := require.New(t)
	f := newBackendFixture(t)
	ctx := context.Background()
	alice, _ := f.signedIn(t, "alice@example.com")
	bob, _ := f.signedIn(t, "bob@example.com")

	// Alice sees both events, Bob only the first one
	memberships, err := alice.ListMemberships(ctx, chat.UserID(f.alice))
	req.NoError(err)
	req.Len(memberships, 2)
	req.Equal("Zenith", memberships[0].Group.Event.Venue)

	memberships, err = bob.ListMemberships(ctx, chat.UserID(f.bob))
	req.NoError(err)
	req.Len(memberships, 1)
	req.Equal(chat.GroupID(f.groupA), memberships[0].GroupID)

	// Bob can't list the memberships of alice
	memberships, err = bob.ListMemberships(ctx, chat.UserID(f.alice))
	req.NoError(err)
	req.Empty(memberships)

	// When both write in the shared group
	first, err := alice.InsertMessage(ctx, chat.NewMessage{GroupID: chat.GroupID(f.groupA), AuthorID: chat.UserID(f.alice), Content: "Doors open at 7"})
	req.NoError(err)
	_, err = bob.InsertMessage(ctx, chat.NewMessage{GroupID: chat.GroupID(f.groupA), AuthorID: chat.UserID(f.bob), Content: "Is it a scam?"})
	req.NoError(err)

	// Then the history is ordered with profiles and censored content
	history, err := bob.ListMessages(ctx, chat.GroupID(f.groupA))
	req.NoError(err)
	req.Len(history, 2)
	req.Equal(first, history[0].ID)
	req.Equal("Alice Martin", history[0].Author.FullName)
	req.Equal("Is it a ****?", history[1].Content)
	req.False(history[1].CreatedAt.Before(history[0].CreatedAt))

	// And a single message is fetched by id
	message, err := bob.FetchMessageByID(ctx, first)
	req.NoError(err)
	req.Equal("Doors open at 7", message.Content)
	req.Equal("Alice Martin", message.Author.FullName)

	// Bob can't read the second group
	history, err = bob.ListMessages(ctx, chat.GroupID(f.groupB))
	req.NoError(err)
	req.Empty(history)
}

func TestDevBackend_Insert_Row_Level_Checks(t *testing.T) {
	req := require.New(t)
	f := newBackendFixture(t)
	ctx := context.Background()
	bob, _ := f.signedIn(t, "bob@example.com")

	// Writing as somebody else
	_, err := bob.InsertMessage(ctx, chat.NewMessage{GroupID: chat.GroupID(f.groupA), AuthorID: chat.UserID(f.alice), Content: "hi"})
	req.ErrorIs(err, errors.ErrForbidden)

	// Writing in a group without ticket
	_, err = bob.InsertMessage(ctx, chat.NewMessage{GroupID: chat.GroupID(f.groupB), AuthorID: chat.UserID(f.bob), Content: "hi"})
	req.ErrorIs(err, errors.ErrForbidden)

	// Writing a message too long
	_, err = bob.InsertMessage(ctx, chat.NewMessage{GroupID: chat.GroupID(f.groupA), AuthorID: chat.UserID(f.bob), Content: strings.Repeat("a", 201)})
	var backendErr *errors.BackendError
	req.ErrorAs(err, &backendErr)
	req.Equal(errors.CodeCheckViolation, backendErr.Code)

	// Unknown message
	_, err = bob.FetchMessageByID(ctx, "missing")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestDevBackend_Realtime_Delivers_Inserts_Of_Joined_Group(t *testing.T) {
	req := require.New(t)
	f := newBackendFixture(t)
	ctx := context.Background()
	alice, _ := f.signedIn(t, "alice@example.com")
	bob, _ := f.signedIn(t, "bob@example.com")

	// Given bob listening to the shared group
	sub, err := bob.Subscribe(ctx, chat.GroupID(f.groupA))
	req.NoError(err)
	defer func() { _ = bob.Unsubscribe(sub) }()

	// When alice writes in the second group, then in the shared one
	_, err = alice.InsertMessage(ctx, chat.NewMessage{GroupID: chat.GroupID(f.groupB), AuthorID: chat.UserID(f.alice), Content: "elsewhere"})
	req.NoError(err)
	id, err := alice.InsertMessage(ctx, chat.NewMessage{GroupID: chat.GroupID(f.groupA), AuthorID: chat.UserID(f.alice), Content: "see you"})
	req.NoError(err)

	// Then bob is notified of the shared group insert only
	select {
	case got := <-sub.Inserts():
		req.Equal(id, got)
	case <-time.After(3 * time.Second):
		req.Fail("insert not delivered")
	}
}

func TestDevBackend_Realtime_Join_Refused_Without_Ticket(t *testing.T) {
	req := require.New(t)
	f := newBackendFixture(t)
	bob, _ := f.signedIn(t, "bob@example.com")

	_, err := bob.Subscribe(context.Background(), chat.GroupID(f.groupB))

	req.ErrorIs(err, errors.ErrForbidden)
}
