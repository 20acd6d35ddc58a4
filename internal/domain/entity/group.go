package entity

type Group struct {
	ID          string   `json:"id" firestore:"id"`
	Name        string   `json:"name" firestore:"name"`
	Description string   `json:"description,omitempty" firestore:"description,omitempty"`
	CreatedBy   string   `json:"createdBy" firestore:"createdBy"`
	CreatedAt   int64    `json:"createdAt" firestore:"createdAt"`
	Members     []string `json:"members" firestore:"members"`
	Avatar      string   `json:"avatar,omitempty" firestore:"avatar,omitempty"`
}

func (g *Group) HasMember(name string) bool {
	for _, m := range g.Members {
		if m == name {
			return true
		}
	}
	return false
}
