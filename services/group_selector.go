package services

import (
	"context"
	"log/slog"
	"ticket-chat/contract"
	"ticket-chat/domain/chat"
	"time"

	"github.com/samber/lo"
)

// GroupSelection is the outcome of loading the groups of a user.
// Active is nil when the user has no group.
type GroupSelection struct {
	Groups []chat.Group
	Active *chat.Group
}

type GroupSelector struct {
	backend contract.Backend
	timeout time.Duration
	log     *slog.Logger
}

func NewGroupSelector(backend contract.Backend, timeout time.Duration, log *slog.Logger) *GroupSelector {
	return &GroupSelector{backend: backend, timeout: timeout, log: log}
}

// Load fetches the memberships of a user, one group per membership in order of arrival,
// and picks the active group: the one of eventID when given and found, else the first one.
// On failure the selection is empty and the error is returned for display.
func (s *GroupSelector) Load(ctx context.Context, userID chat.UserID, eventID chat.EventID) (GroupSelection, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	memberships, err := s.backend.ListMemberships(ctx, userID)
	if err != nil {
		s.log.Warn("Cannot load memberships", "user_id", userID, "error", err)
		return GroupSelection{}, err
	}

	groups := lo.Map(
		lo.UniqBy(memberships, func(m chat.Membership) chat.GroupID { return m.GroupID }),
		func(m chat.Membership, _ int) chat.Group {
			group := m.Group
			if group.ID == "" {
				group.ID = m.GroupID
			}
			return group
		})

	selection := GroupSelection{Groups: groups}
	if len(groups) == 0 {
		return selection, nil
	}
	if eventID != "" {
		if group, ok := lo.Find(groups, func(g chat.Group) bool { return g.EventID == eventID }); ok {
			selection.Active = &group
			return selection, nil
		}
		s.log.Debug("No group for requested event", "event_id", eventID)
	}
	selection.Active = &groups[0]
	return selection, nil
}
