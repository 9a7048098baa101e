package model

import "strconv"

// Mention is an inbound post directed at the bot
type Mention struct {
	// ID is the ordered platform id, used as the cursor
	ID           int64  `json:"id" yaml:"id"`
	AuthorID     string `json:"author_id,omitempty" yaml:"author_id,omitempty"`
	AuthorHandle string `json:"author_handle" yaml:"author_handle"` // without the leading @
	Text         string `json:"text" yaml:"text"`

	// Parent post, empty if the mention is not a reply
	InReplyToStatusID string `json:"in_reply_to_status_id,omitempty" yaml:"in_reply_to_status_id,omitempty"`
	InReplyToUserID   string `json:"in_reply_to_user_id,omitempty" yaml:"in_reply_to_user_id,omitempty"`
}

// IDString returns the decimal form of the mention id
func (m Mention) IDString() string {
	return strconv.FormatInt(m.ID, 10)
}

// HasParent reports whether the mention is a reply to another post
func (m Mention) HasParent() bool {
	return m.InReplyToStatusID != ""
}

// Identity is the bot's own account
type Identity struct {
	ID     string `json:"id" yaml:"id"`
	Handle string `json:"handle" yaml:"handle"`
}

// Reply is a single outbound message answering a mention
type Reply struct {
	MentionID int64  `json:"mention_id"`
	Handle    string `json:"handle"`
	Text      string `json:"text"`
}
