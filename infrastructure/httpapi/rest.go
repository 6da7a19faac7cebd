package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"ticket-chat/auth"
	"ticket-chat/domain/chat"
	"ticket-chat/errors"
	"ticket-chat/infrastructure/hosted"
	"ticket-chat/repositories"
	"ticket-chat/services"

	"github.com/samber/lo"
)

const returnRepresentation = "return=representation"

// ListGroupMembers handles GET /rest/v1/group_members
// Rows of other users are filtered out like the row-level policy of the hosted backend.
func (h *Handler) ListGroupMembers(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	filter, present, err := eqFilter(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if present && filter != userID {
		writeJSON(w, http.StatusOK, []hosted.MembershipRow{})
		return
	}

	memberships, err := h.messageService.Memberships(userID)
	if err != nil {
		h.log.Error("Cannot list memberships", "user_id", userID, "error", err)
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(memberships, func(m repositories.DiskMembership, _ int) hosted.MembershipRow {
		return toMembershipRow(m)
	}))
}

// ListMessages handles GET /rest/v1/messages
// It answers the history of a group (group_id=eq.) or a single message (id=eq.).
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	withProfile := strings.Contains(r.URL.Query().Get("select"), "profiles(")

	messageID, byID, err := eqFilter(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if byID {
		view, err := h.messageService.GetByID(userID, messageID)
		if err != nil {
			if wantsSingle(r) {
				fail(w, err)
				return
			}
			writeJSON(w, http.StatusOK, []hosted.MessageRow{})
			return
		}
		row := toMessageRow(view, withProfile)
		if wantsSingle(r) {
			writeJSON(w, http.StatusOK, row)
			return
		}
		writeJSON(w, http.StatusOK, []hosted.MessageRow{row})
		return
	}

	groupID, byGroup, err := eqFilter(r, "group_id")
	if err != nil || !byGroup {
		writeError(w, http.StatusBadRequest, lo.Ternary(err != nil, err, fmt.Errorf("group_id filter is required")))
		return
	}
	if order := r.URL.Query().Get("order"); order != "" && order != "created_at.asc" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported order %q", order))
		return
	}
	views, err := h.messageService.History(userID, groupID)
	if err != nil {
		if stderrors.Is(err, errors.ErrForbidden) {
			// Groups the user doesn't belong to are invisible, not forbidden
			writeJSON(w, http.StatusOK, []hosted.MessageRow{})
			return
		}
		h.log.Error("Cannot read history", "group_id", groupID, "error", err)
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(views, func(v services.MessageView, _ int) hosted.MessageRow {
		return toMessageRow(v, withProfile)
	}))
}

// InsertMessages handles POST /rest/v1/messages
// The body is one row or an array of rows, each written as the authenticated user.
func (h *Handler) InsertMessages(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	rows, err := decodeInsert(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	inserted := make([]hosted.MessageRow, 0, len(rows))
	for _, row := range rows {
		if row.UserID != userID {
			h.log.Warn("Insert refused, author is not the caller", "user_id", userID, "author_id", row.UserID)
			fail(w, errors.ErrForbidden)
			return
		}
		view, err := h.messageService.Post(r.Context(), chat.PostMessageCommand{
			GroupID: chat.GroupID(row.GroupID),
			UserID:  chat.UserID(row.UserID),
			Content: row.Content,
		})
		if err != nil {
			h.log.Warn("Insert refused", "group_id", row.GroupID, "user_id", userID, "error", err)
			fail(w, err)
			return
		}
		inserted = append(inserted, toMessageRow(view, false))
	}

	if !strings.Contains(r.Header.Get("Prefer"), returnRepresentation) {
		w.WriteHeader(http.StatusCreated)
		return
	}
	writeJSON(w, http.StatusCreated, inserted)
}

// GetProfile handles GET /rest/v1/profiles
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	profileID, present, err := eqFilter(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !present {
		profileID = userID
	}
	profile, err := h.messageService.Profile(profileID)
	if err != nil {
		if wantsSingle(r) {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []hosted.ProfileRow{})
		return
	}
	row := hosted.ProfileRow{ID: profile.UserID, FullName: profile.FullName, AvatarURL: profile.AvatarURL}
	if wantsSingle(r) {
		writeJSON(w, http.StatusOK, row)
		return
	}
	writeJSON(w, http.StatusOK, []hosted.ProfileRow{row})
}

// eqFilter reads a col=eq.value filter, other operators are refused.
func eqFilter(r *http.Request, column string) (string, bool, error) {
	raw, ok := r.URL.Query()[column]
	if !ok || len(raw) == 0 {
		return "", false, nil
	}
	value, found := strings.CutPrefix(raw[0], "eq.")
	if !found {
		return "", true, fmt.Errorf("unsupported filter %s=%s", column, raw[0])
	}
	return value, true, nil
}

func decodeInsert(r *http.Request) ([]hosted.InsertRow, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	var rows []hosted.InsertRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		var row hosted.InsertRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
		rows = []hosted.InsertRow{row}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty insert")
	}
	return rows, nil
}

func toMembershipRow(m repositories.DiskMembership) hosted.MembershipRow {
	return hosted.MembershipRow{
		GroupID: m.Group.ID,
		UserID:  m.UserID,
		Group: hosted.GroupRow{
			ID:      m.Group.ID,
			EventID: m.Group.EventID,
			Event: &hosted.EventRow{
				ID:          m.Event.ID,
				Title:       m.Event.Title,
				Venue:       m.Event.Venue,
				Description: m.Event.Description,
				Date:        m.Event.Date,
			},
		},
	}
}

func toMessageRow(v services.MessageView, withProfile bool) hosted.MessageRow {
	row := hosted.MessageRow{
		ID:        v.ID,
		GroupID:   v.GroupID,
		UserID:    v.AuthorID,
		Content:   v.Content,
		CreatedAt: v.CreatedAt,
	}
	if withProfile && v.Author != nil {
		row.Profile = &hosted.ProfileRow{FullName: v.Author.FullName, AvatarURL: v.Author.AvatarURL}
	}
	return row
}
