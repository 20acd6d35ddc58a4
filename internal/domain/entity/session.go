package entity

// AuthClaims is the subset of a verified identity token the chat needs.
type AuthClaims struct {
	UID            string
	Name           string
	Email          string
	SignInProvider string
}

func (c *AuthClaims) IsAnonymous() bool {
	return c.SignInProvider == "anonymous"
}

type SessionIdentity struct {
	UID          string `json:"uid"`
	DisplayName  string `json:"display_name"`
	AvatarURL    string `json:"avatar_url"`
	IsGuest      bool   `json:"is_guest"`
	MessagesSent int    `json:"messages_sent"`
}
