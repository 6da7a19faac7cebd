package hosted

import (
	"context"
	"net/http"
	"net/url"
	"ticket-chat/domain/chat"
	"ticket-chat/errors"
)

func (c *Client) ListMemberships(ctx context.Context, userID chat.UserID) ([]chat.Membership, error) {
	var rows []MembershipRow
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   restPath + "group_members",
		query: url.Values{
			"select":  {membershipSelect},
			"user_id": {eq(string(userID))},
		},
	}, &rows)
	if err != nil {
		return nil, err
	}
	memberships := make([]chat.Membership, 0, len(rows))
	for _, row := range rows {
		memberships = append(memberships, row.toChat(userID))
	}
	return memberships, nil
}

func (c *Client) ListMessages(ctx context.Context, groupID chat.GroupID) ([]chat.Message, error) {
	var rows []MessageRow
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   restPath + "messages",
		query: url.Values{
			"select":   {messageSelect},
			"group_id": {eq(string(groupID))},
			"order":    {messageOrder},
		},
	}, &rows)
	if err != nil {
		return nil, err
	}
	messages := make([]chat.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.toChat())
	}
	return messages, nil
}

// InsertMessage asks for the inserted row back to learn the server identifier.
func (c *Client) InsertMessage(ctx context.Context, message chat.NewMessage) (chat.MessageID, error) {
	var rows []MessageRow
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   restPath + "messages",
		query:  url.Values{"select": {"id"}},
		body: []InsertRow{{
			GroupID: string(message.GroupID),
			UserID:  string(message.AuthorID),
			Content: message.Content,
		}},
		prefer: returnRepresent,
	}, &rows)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || rows[0].ID == "" {
		return "", &errors.BackendError{Code: errors.CodeDecode, Message: "insert returned no row"}
	}
	return chat.MessageID(rows[0].ID), nil
}

func (c *Client) FetchMessageByID(ctx context.Context, id chat.MessageID) (chat.Message, error) {
	var row MessageRow
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   restPath + "messages",
		query: url.Values{
			"select": {messageSelect},
			"id":     {eq(string(id))},
		},
		single: true,
	}, &row)
	if err != nil {
		return chat.Message{}, err
	}
	return row.toChat(), nil
}
