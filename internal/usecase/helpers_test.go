package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"groupchat/internal/adapter/repository"
	"groupchat/internal/domain/entity"
	"groupchat/internal/domain/service"
	"groupchat/internal/infrastructure/ratelimit"
	"groupchat/pkg/config"
)

type fakeVerifier struct {
	claims map[string]*entity.AuthClaims
}

func (f *fakeVerifier) VerifyIDToken(ctx context.Context, token string) (*entity.AuthClaims, error) {
	c, ok := f.claims[token]
	if !ok {
		return nil, errors.New("token rejected")
	}
	return c, nil
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{claims: map[string]*entity.AuthClaims{
		"ada":   {UID: "u-ada", Name: "Ada", Email: "ada@example.com", SignInProvider: "google.com"},
		"bob":   {UID: "u-bob", Name: "Bob", SignInProvider: "google.com"},
		"guest": {UID: "anon-1", SignInProvider: "anonymous"},
	}}
}

// fakeContent counts calls per API and fails the ones listed in fail.
type fakeContent struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
	delay time.Duration
}

func newFakeContent() *fakeContent {
	return &fakeContent{calls: map[string]int{}, fail: map[string]bool{}}
}

func (f *fakeContent) call(ctx context.Context, api, answer string) (string, error) {
	f.mu.Lock()
	f.calls[api]++
	fail, delay := f.fail[api], f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if fail {
		return "", errors.New(api + " unavailable")
	}
	return answer, nil
}

func (f *fakeContent) Calls(api string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[api]
}

func (f *fakeContent) Fail(api string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[api] = true
}

func (f *fakeContent) RandomFact(ctx context.Context) (string, error) {
	return f.call(ctx, "fact", "Chuck Norris counted to infinity. Twice.")
}

func (f *fakeContent) RandomJoke(ctx context.Context) (string, error) {
	return f.call(ctx, "joke", "I'm reading a book about anti-gravity. It's impossible to put down.")
}

func (f *fakeContent) RandomAdvice(ctx context.Context) (string, error) {
	return f.call(ctx, "advice", "Measure twice, cut once.")
}

func (f *fakeContent) Weather(ctx context.Context, city string) (string, error) {
	return f.call(ctx, "weather", city+": +21°C")
}

func (f *fakeContent) CryptoPrice(ctx context.Context, symbol string) (float64, error) {
	if _, err := f.call(ctx, "crypto", ""); err != nil {
		return 0, err
	}
	return 64250.5, nil
}

func (f *fakeContent) Translate(ctx context.Context, text, lang string) (string, error) {
	return f.call(ctx, "translate", "["+lang+"] "+text)
}

func (f *fakeContent) SearchGIFs(ctx context.Context, query string, limit int) ([]string, error) {
	if _, err := f.call(ctx, "gif", ""); err != nil {
		return nil, err
	}
	return []string{"https://media.example/" + query + ".gif"}, nil
}

func (f *fakeContent) Complete(ctx context.Context, prompt string) (string, error) {
	return f.call(ctx, "completion", "I think so too.")
}

type emitted struct {
	event string
	data  interface{}
}

type recordingSink struct {
	mu     sync.Mutex
	events []emitted
}

func (s *recordingSink) Emit(event string, data interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, emitted{event, data})
}

func (s *recordingSink) Of(event string) []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []interface{}
	for _, e := range s.events {
		if e.event == event {
			out = append(out, e.data)
		}
	}
	return out
}

func (s *recordingSink) Last(event string) interface{} {
	all := s.Of(event)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func testPolicy() config.ChatPolicy {
	return config.ChatPolicy{
		MaxMessageChars:   70,
		MaxMessageWords:   30,
		RepeatCooldown:    15 * time.Second,
		GuestMessageQuota: 3,
		PresenceFreshness: 60 * time.Second,
		PresenceHeartbeat: 20 * time.Millisecond,
		TypingIdle:        50 * time.Millisecond,
	}
}

type fixture struct {
	store   *repository.MemoryStore
	content *fakeContent
	deps    SessionDeps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repository.NewMemoryStore()
	content := newFakeContent()
	bot := NewBotDispatcher(content, "ChatBot")

	return &fixture{
		store:   store,
		content: content,
		deps: SessionDeps{
			Auth:       NewAuthUseCase(newFakeVerifier(), "ChatBot"),
			Chat:       NewChatUseCase(store.Messages(), bot, "ChatBot"),
			Groups:     NewGroupUseCase(store.Groups()),
			Content:    content,
			Messages:   store.Messages(),
			GroupRepo:  store.Groups(),
			Presence:   store.Presence(),
			Typing:     store.Typing(),
			Classifier: service.NewProfanityFilter(),
			Limiter:    ratelimit.NewRateLimiter(),
			Quota:      ratelimit.NewQuotaLedger(),
			Policy:     testPolicy(),
		},
	}
}

func (f *fixture) login(t *testing.T, token string) (*Session, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	s := NewSession("s-"+token, f.deps, sink)
	_, err := s.Login(context.Background(), LoginInput{IDToken: token})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, sink
}

func (f *fixture) messages(t *testing.T) []*entity.ChatMessage {
	t.Helper()
	list, err := f.store.Messages().List(context.Background())
	require.NoError(t, err)
	return list
}
