package models

type TrelloCardData struct {
	ID string `json:"id"`
}

type TrelloBoardData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TrelloWebhookPayload struct {
	Action struct {
		Data struct {
			Card  TrelloCardData  `json:"card"`
			Board TrelloBoardData `json:"board"`
			Old   struct {
				Name string `json:"name"`
			} `json:"old"`
		} `json:"data"`
		Type string `json:"type"` // e.g., "updateBoard"
	} `json:"action"`
}
