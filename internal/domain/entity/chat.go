package entity

type Channel string

const (
	ChannelGlobal Channel = "global"
	ChannelAI     Channel = "ai"
	ChannelGroup  Channel = "group"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelGlobal, ChannelAI, ChannelGroup:
		return true
	}
	return false
}

// BotEnabled reports whether bot replies are written into the channel.
func (c Channel) BotEnabled() bool {
	return c == ChannelGlobal || c == ChannelAI
}

// Scope identifies where a message or typing indicator lives: a group id,
// or the channel name for the shared channels.
type Scope struct {
	Channel Channel `json:"channel"`
	GroupID string  `json:"group_id,omitempty"`
}

func GlobalScope() Scope {
	return Scope{Channel: ChannelGlobal}
}

func GroupScope(groupID string) Scope {
	return Scope{Channel: ChannelGroup, GroupID: groupID}
}

// Key is the storage key for scoped collections such as typing/{scope}.
func (s Scope) Key() string {
	if s.GroupID != "" {
		return s.GroupID
	}
	if s.Channel == "" {
		return string(ChannelGlobal)
	}
	return string(s.Channel)
}

func (s Scope) IsGroup() bool {
	return s.GroupID != ""
}
