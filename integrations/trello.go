package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/chxlky/trello-agent/internal/models"
	"go.uber.org/zap"
)

const DefaultTrelloBaseURL = "https://api.trello.com/1"

// APIError is returned for any non-2xx Trello response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trello API %s %s returned non-2xx status: %s", e.Method, e.Path, e.Status)
}

// UpstreamDetail exposes the raw response body for logging.
func (e *APIError) UpstreamDetail() string {
	return fmt.Sprintf("status=%d body=%s", e.StatusCode, e.Body)
}

// UpstreamStatus is the HTTP status Trello answered with.
func (e *APIError) UpstreamStatus() int {
	return e.StatusCode
}

type TrelloClient struct {
	Client      *http.Client
	BaseURL     string
	APIKey      string
	APIToken    string
	CallbackURL string
}

func NewTrelloClient(key, token, callbackURL string) *TrelloClient {
	return &TrelloClient{
		Client:      &http.Client{},
		BaseURL:     DefaultTrelloBaseURL,
		APIKey:      key,
		APIToken:    token,
		CallbackURL: callbackURL,
	}
}

// authHeader carries the key and token so they never appear in a URL that
// could end up in an error message.
func (tc *TrelloClient) authHeader() string {
	return fmt.Sprintf(`OAuth oauth_consumer_key="%s", oauth_token="%s"`, tc.APIKey, tc.APIToken)
}

// do sends params as the query string (or as a form body when form is set)
// and decodes a JSON reply into out.
func (tc *TrelloClient) do(ctx context.Context, method, path string, params url.Values, form bool, out any) error {
	endpoint := strings.TrimRight(tc.BaseURL, "/") + path
	apiURL := endpoint

	var body io.Reader
	if form {
		body = bytes.NewBufferString(params.Encode())
	} else if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", strings.ToLower(method), err)
	}
	if form {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", tc.authHeader())

	resp, err := tc.Client.Do(req)
	if err != nil {
		// the query string holds user-supplied names; keep it out of errors
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = endpoint
		}
		return fmt.Errorf("failed to send %s request: %w", strings.ToLower(method), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(bodyBytes),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Trello response: %w", err)
	}
	return nil
}

func (tc *TrelloClient) ListBoards(ctx context.Context) ([]models.Board, error) {
	var boards []models.Board
	params := url.Values{"fields": {"name,url"}}
	if err := tc.do(ctx, http.MethodGet, "/members/me/boards", params, false, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

func (tc *TrelloClient) ListLists(ctx context.Context, boardID string) ([]models.List, error) {
	var lists []models.List
	path := fmt.Sprintf("/boards/%s/lists", url.PathEscape(boardID))
	if err := tc.do(ctx, http.MethodGet, path, nil, false, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (tc *TrelloClient) ListCards(ctx context.Context, listID string) ([]models.Card, error) {
	var cards []models.Card
	path := fmt.Sprintf("/lists/%s/cards", url.PathEscape(listID))
	if err := tc.do(ctx, http.MethodGet, path, nil, false, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (tc *TrelloClient) ListMembers(ctx context.Context, boardID string) ([]models.Member, error) {
	var members []models.Member
	path := fmt.Sprintf("/boards/%s/members", url.PathEscape(boardID))
	params := url.Values{"fields": {"fullName,username"}}
	if err := tc.do(ctx, http.MethodGet, path, params, false, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (tc *TrelloClient) CreateList(ctx context.Context, boardID, name string) (*models.List, error) {
	var list models.List
	params := url.Values{"name": {name}, "idBoard": {boardID}}
	if err := tc.do(ctx, http.MethodPost, "/lists", params, false, &list); err != nil {
		return nil, err
	}
	zap.L().Debug("Created Trello list", zap.String("listID", list.ID), zap.String("boardID", boardID))
	return &list, nil
}

func (tc *TrelloClient) CreateCard(ctx context.Context, listID, name, due string) (*models.Card, error) {
	var card models.Card
	params := url.Values{"name": {name}, "idList": {listID}}
	if due != "" {
		params.Set("due", due)
	}
	if err := tc.do(ctx, http.MethodPost, "/cards", params, false, &card); err != nil {
		return nil, err
	}
	zap.L().Debug("Created Trello card", zap.String("cardID", card.ID), zap.String("listID", listID))
	return &card, nil
}

func (tc *TrelloClient) UpdateCard(ctx context.Context, cardID string, update models.CardUpdate) (*models.Card, error) {
	params := url.Values{}
	if update.ListID != "" {
		params.Set("idList", update.ListID)
	}
	if update.Due != "" {
		params.Set("due", update.Due)
	}

	var card models.Card
	path := fmt.Sprintf("/cards/%s", url.PathEscape(cardID))
	if err := tc.do(ctx, http.MethodPut, path, params, false, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// AddMemberToCard attaches memberID to the card and returns the card's
// member ids as reported by Trello.
func (tc *TrelloClient) AddMemberToCard(ctx context.Context, cardID, memberID string) ([]string, error) {
	var members []models.Member
	path := fmt.Sprintf("/cards/%s/idMembers", url.PathEscape(cardID))
	params := url.Values{"value": {memberID}}
	if err := tc.do(ctx, http.MethodPost, path, params, false, &members); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (tc *TrelloClient) RegisterWebhook(ctx context.Context, boardID string) (string, error) {
	formData := url.Values{}
	formData.Set("callbackURL", tc.CallbackURL)
	formData.Set("idModel", boardID)
	formData.Set("description", "Webhook for Trello agent board cache")

	var webhook struct {
		ID string `json:"id"`
	}
	if err := tc.do(ctx, http.MethodPost, "/webhooks/", formData, true, &webhook); err != nil {
		return "", err
	}

	zap.L().Info("Successfully registered webhook", zap.String("webhookID", webhook.ID), zap.String("boardID", boardID))

	return webhook.ID, nil
}

func (tc *TrelloClient) DeleteWebhook(ctx context.Context, webhookID string) error {
	path := fmt.Sprintf("/webhooks/%s", url.PathEscape(webhookID))
	if err := tc.do(ctx, http.MethodDelete, path, nil, true, nil); err != nil {
		return err
	}

	zap.L().Info("Successfully deleted webhook", zap.String("webhookID", webhookID))

	return nil
}
