package models

import (
	"sort"
	"strings"
	"time"
)

type Conversation struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	// PairKey is set for conversations created between exactly two users and
	// is unique, so concurrent creations for the same pair conflict in storage.
	PairKey   *string              `gorm:"uniqueIndex;type:varchar(80)" json:"-"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	Members   []ConversationMember `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"members"`
	Messages  []Message            `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

// PairKey returns the order-independent key of a two-user conversation.
func PairKey(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

func (conversation *Conversation) MemberIDs() []string {
	ids := make([]string, 0, len(conversation.Members))
	for _, member := range conversation.Members {
		ids = append(ids, member.UserID)
	}
	return ids
}

func (conversation *Conversation) HasMember(userID string) bool {
	for _, member := range conversation.Members {
		if member.UserID == userID {
			return true
		}
	}
	return false
}

func (conversation *Conversation) ToConversationResponse() ConversationResponse {
	members := []*UserResponse{}
	for _, member := range conversation.Members {
		if member.User != nil {
			members = append(members, member.User.ToUserResponse())
			continue
		}
		members = append(members, &UserResponse{ID: member.UserID})
	}
	return ConversationResponse{
		ID:        conversation.ID,
		CreatedAt: conversation.CreatedAt,
		UpdatedAt: conversation.UpdatedAt,
		Members:   members,
	}
}
