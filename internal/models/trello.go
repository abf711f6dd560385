package models

type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type List struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BoardID string `json:"idBoard"`
}

type Card struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	URL       string   `json:"url"`
	ListID    string   `json:"idList"`
	Due       string   `json:"due,omitempty"`
	MemberIDs []string `json:"idMembers,omitempty"`
}

type Member struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

// CardUpdate holds the fields a PUT on a card may change. Empty fields are
// left untouched.
type CardUpdate struct {
	ListID string
	Due    string
}
