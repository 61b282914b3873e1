package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/limmweb/instagram-ai-commentator/models"
)

// Gateway — клиент HTTP-шлюза к private API Instagram.
// Шлюз держит сессию на своей стороне, нам достаточно sessionid и его настроек.
type Gateway struct {
	baseURL    string
	httpClient *http.Client

	sessionID string
	userID    string
	settings  json.RawMessage
}

var _ Client = (*Gateway)(nil)

// Option настраивает Gateway.
type Option func(*Gateway)

// WithHTTPClient задаёт собственный http.Client (например, с прокси).
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

// WithTimeout задаёт таймаут запросов к шлюзу.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.httpClient.Timeout = d }
}

// NewGateway создаёт клиента шлюза.
func NewGateway(baseURL string, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// savedSession — формат сериализованной сессии (session.json).
type savedSession struct {
	SessionID string          `json:"sessionid"`
	UserID    string          `json:"user_id"`
	Settings  json.RawMessage `json:"settings,omitempty"`
}

type errorBody struct {
	Detail  string `json:"detail"`
	ExcType string `json:"exc_type"`
}

type userShort struct {
	PK       json.Number `json:"pk"`
	Username string      `json:"username"`
}

type userInfo struct {
	PK            json.Number `json:"pk"`
	Username      string      `json:"username"`
	FullName      string      `json:"full_name"`
	ProfilePicURL string      `json:"profile_pic_url"`
	Biography     string      `json:"biography"`
}

type media struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	MediaType    int       `json:"media_type"`
	CaptionText  string    `json:"caption_text"`
	TakenAt      time.Time `json:"taken_at"`
	ThumbnailURL string    `json:"thumbnail_url"`
}

func (g *Gateway) call(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrapf(err, "%s: encode request", op)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "%s: build request", op)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Kind: KindUnclassified, Op: op, Type: "TransportError", Detail: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindUnclassified, Op: op, Status: resp.StatusCode, Type: "TransportError", Detail: err.Error()}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		if jsonErr := json.Unmarshal(data, &eb); jsonErr != nil || eb.Detail == "" {
			eb.Detail = strings.TrimSpace(string(data))
		}
		return &Error{
			Kind:   classify(resp.StatusCode, eb.ExcType),
			Op:     op,
			Status: resp.StatusCode,
			Type:   eb.ExcType,
			Detail: eb.Detail,
		}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "%s: decode response", op)
	}
	return nil
}

// Login выполняет вход. Если перед этим была загружена сессия, шлюз
// переиспользует её настройки (лёгкий повторный вход без новой авторизации).
func (g *Gateway) Login(ctx context.Context, creds models.Credentials) error {
	req := struct {
		Username string          `json:"username"`
		Password string          `json:"password"`
		Settings json.RawMessage `json:"settings,omitempty"`
	}{creds.Login, creds.Password, g.settings}

	var resp savedSession
	if err := g.call(ctx, "login", "/auth/login", req, &resp); err != nil {
		return err
	}
	if resp.SessionID == "" {
		return &Error{Kind: KindUnclassified, Op: "login", Type: "EmptySession", Detail: "gateway returned no sessionid"}
	}
	g.sessionID = resp.SessionID
	g.userID = resp.UserID
	if len(resp.Settings) > 0 {
		g.settings = resp.Settings
	}
	return nil
}

func (g *Gateway) Logout(ctx context.Context) error {
	req := struct {
		SessionID string `json:"sessionid"`
	}{g.sessionID}
	return g.call(ctx, "logout", "/auth/logout", req, nil)
}

func (g *Gateway) LoadSettings(blob []byte) error {
	var s savedSession
	if err := json.Unmarshal(blob, &s); err != nil {
		return errors.Wrap(err, "decode session")
	}
	g.sessionID = s.SessionID
	g.userID = s.UserID
	g.settings = s.Settings
	return nil
}

func (g *Gateway) DumpSettings() ([]byte, error) {
	if g.sessionID == "" {
		return nil, errors.New("not logged in")
	}
	return json.Marshal(savedSession{SessionID: g.sessionID, UserID: g.userID, Settings: g.settings})
}

func (g *Gateway) ResetSettings() {
	g.sessionID = ""
	g.userID = ""
	g.settings = nil
}

func (g *Gateway) UserID() string { return g.userID }

func (g *Gateway) UserInfoByUsername(ctx context.Context, username string) (models.Profile, error) {
	req := struct {
		SessionID string `json:"sessionid"`
		Username  string `json:"username"`
	}{g.sessionID, username}
	var u userInfo
	if err := g.call(ctx, "user_info_by_username", "/user/info_by_username", req, &u); err != nil {
		return models.Profile{}, err
	}
	return models.Profile{
		ID:         u.PK.String(),
		Username:   u.Username,
		FullName:   u.FullName,
		ProfilePic: u.ProfilePicURL,
		Biography:  u.Biography,
	}, nil
}

func (g *Gateway) UserIDFromUsername(ctx context.Context, username string) (string, error) {
	req := struct {
		SessionID string `json:"sessionid"`
		Username  string `json:"username"`
	}{g.sessionID, username}
	var resp struct {
		UserID json.Number `json:"user_id"`
	}
	if err := g.call(ctx, "user_id_from_username", "/user/id_from_username", req, &resp); err != nil {
		return "", err
	}
	return resp.UserID.String(), nil
}

// UserFollowing возвращает все подписки аккаунта (amount=0 — без ограничения).
func (g *Gateway) UserFollowing(ctx context.Context, userID string) ([]string, error) {
	req := struct {
		SessionID string `json:"sessionid"`
		UserID    string `json:"user_id"`
		Amount    int    `json:"amount"`
	}{g.sessionID, userID, 0}
	var users []userShort
	if err := g.call(ctx, "user_following", "/user/following", req, &users); err != nil {
		return nil, err
	}
	handles := make([]string, 0, len(users))
	for _, u := range users {
		handles = append(handles, u.Username)
	}
	return handles, nil
}

func (g *Gateway) UserMedias(ctx context.Context, userID string, amount int) ([]models.Post, error) {
	req := struct {
		SessionID string `json:"sessionid"`
		UserID    string `json:"user_id"`
		Amount    int    `json:"amount"`
	}{g.sessionID, userID, amount}
	var medias []media
	if err := g.call(ctx, "user_medias", "/media/user_medias", req, &medias); err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(medias))
	for _, m := range medias {
		posts = append(posts, models.Post{
			ID:           m.ID,
			Code:         m.Code,
			MediaType:    models.MediaType(m.MediaType),
			CaptionText:  m.CaptionText,
			TakenAt:      m.TakenAt,
			ThumbnailURL: m.ThumbnailURL,
		})
	}
	return posts, nil
}

func (g *Gateway) MediaComment(ctx context.Context, mediaID, text string) error {
	req := struct {
		SessionID string `json:"sessionid"`
		MediaID   string `json:"media_id"`
		Text      string `json:"text"`
	}{g.sessionID, mediaID, text}
	return g.call(ctx, "media_comment", "/media/comment", req, nil)
}

func (g *Gateway) MediaLike(ctx context.Context, mediaID string) error {
	req := struct {
		SessionID string `json:"sessionid"`
		MediaID   string `json:"media_id"`
	}{g.sessionID, mediaID}
	return g.call(ctx, "media_like", "/media/like", req, nil)
}
