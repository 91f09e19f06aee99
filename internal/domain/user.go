package domain

import "github.com/google/uuid"

// User is the read-only projection of an account owned by the identity
// service. PaymentLink is where participants send money to an organizer;
// TelegramChatID is zero until the user links the bot.
type User struct {
	ID             uuid.UUID
	Email          string
	Name           string
	PaymentLink    string
	TelegramChatID int64
}

// DisplayName prefers the profile name and falls back to the email.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
