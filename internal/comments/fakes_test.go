package comments

import (
	"context"
	"errors"
	"sync"

	"github.com/limmweb/instagram-ai-commentator/models"
)

// fakeClient — клиент платформы в памяти.
type fakeClient struct {
	mu         sync.Mutex
	following  []string
	posts      map[string][]models.Post
	commentErr error
	visited    []string
	comments   map[string]string
	likes      []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{posts: map[string][]models.Post{}, comments: map[string]string{}}
}

func (f *fakeClient) Login(context.Context, models.Credentials) error { return nil }
func (f *fakeClient) Logout(context.Context) error                    { return nil }
func (f *fakeClient) LoadSettings([]byte) error                       { return nil }
func (f *fakeClient) DumpSettings() ([]byte, error)                   { return []byte("{}"), nil }
func (f *fakeClient) ResetSettings()                                  {}
func (f *fakeClient) UserID() string                                  { return "me" }

func (f *fakeClient) UserInfoByUsername(context.Context, string) (models.Profile, error) {
	return models.Profile{}, nil
}

func (f *fakeClient) UserIDFromUsername(_ context.Context, username string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visited = append(f.visited, username)
	return "id-" + username, nil
}

func (f *fakeClient) UserFollowing(context.Context, string) ([]string, error) {
	return f.following, nil
}

func (f *fakeClient) UserMedias(_ context.Context, userID string, _ int) ([]models.Post, error) {
	return f.posts[userID], nil
}

func (f *fakeClient) MediaComment(_ context.Context, mediaID, text string) error {
	if f.commentErr != nil {
		return f.commentErr
	}
	f.comments[mediaID] = text
	return nil
}

func (f *fakeClient) MediaLike(_ context.Context, mediaID string) error {
	f.likes = append(f.likes, mediaID)
	return nil
}

// fakeAI возвращает заданные тексты и фиксированный расход.
type fakeAI struct {
	description  string
	comment      string
	describeErr  error
	describes    int
	generations  int
	describeCost models.UsageDelta
	commentCost  models.UsageDelta
}

func (a *fakeAI) DescribeImage(context.Context, string) (string, models.UsageDelta, error) {
	a.describes++
	if a.describeErr != nil {
		return "", models.UsageDelta{}, a.describeErr
	}
	return a.description, a.describeCost, nil
}

func (a *fakeAI) GenerateComment(context.Context, string, string) (string, models.UsageDelta, error) {
	a.generations++
	return a.comment, a.commentCost, nil
}

type memLedger struct {
	total models.Usage
	err   error
}

func (l *memLedger) AddUsage(d models.UsageDelta) (models.Usage, error) {
	if l.err != nil {
		return models.Usage{}, l.err
	}
	l.total.Add(d)
	return l.total, nil
}

type notes struct {
	mu   sync.Mutex
	sent []string
}

func (n *notes) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
	return nil
}

var errBroken = errors.New("broken pipe")
