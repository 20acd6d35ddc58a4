package service

import "net/url"

const avatarBaseURL = "https://api.dicebear.com/7.x/adventurer/svg"

// AvatarURL builds a deterministic avatar for a seed such as a display name.
func AvatarURL(seed string) string {
	return avatarBaseURL + "?seed=" + url.QueryEscape(seed)
}
