package models

// CreatorRates holds a creator's quoted rates per content format.
type CreatorRates struct {
	Post  int64 `json:"post"`
	Story int64 `json:"story"`
}

// Creator is a discoverable profile from the creator directory. The search
// pipeline treats it as read-only input; it is owned and written elsewhere.
type Creator struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Username       string       `json:"username"`
	Location       string       `json:"location"`
	Niches         []string     `json:"niches"`
	Platforms      []string     `json:"platforms"`
	Followers      int64        `json:"followers"`
	EngagementRate float64      `json:"engagement_rate"`
	Rates          CreatorRates `json:"rates"`
	Verified       bool         `json:"verified"`
}
