package chat

import (
	"time"
)

type Command interface {
	Group() GroupID
}

type PostMessageCommand struct {
	GroupID   GroupID `validate:"required"`
	UserID    UserID  `validate:"required"`
	Content   string  `validate:"required,max=2000"`
	CreatedAt time.Time
}

func (p PostMessageCommand) Group() GroupID {
	return p.GroupID
}

type GetMessageCommand struct {
	GroupID GroupID `validate:"required"`
}

func (p GetMessageCommand) Group() GroupID {
	return p.GroupID
}
