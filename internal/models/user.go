package models

import "time"

// User represents a user account in the system.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Fullname      string    `json:"fullname"`
	PasswordHash  string    `json:"-"` // Never expose this to the client
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	RefreshToken  string    `json:"-"` // Server-side session state only
	CreatedAt     time.Time `json:"createdAt"`
}

// Sanitize blanks the fields that must never reach a client, even
// through logging of the struct.
func (u *User) Sanitize() {
	u.PasswordHash = ""
	u.RefreshToken = ""
}

// ChannelProfile is the aggregated public view of a user's channel.
type ChannelProfile struct {
	Username                  string `json:"username"`
	Fullname                  string `json:"fullname"`
	Email                     string `json:"email"`
	AvatarURL                 string `json:"avatar"`
	CoverImageURL             string `json:"coverImage,omitempty"`
	SubscribersCount          int    `json:"subscribersCount"`
	ChannelsSubscribedToCount int    `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// OwnerProfile is the minimal projection of a video's owner.
type OwnerProfile struct {
	Username  string `json:"username"`
	Fullname  string `json:"fullname"`
	AvatarURL string `json:"avatar"`
}
