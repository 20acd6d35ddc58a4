package usecase

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"groupchat/internal/domain/entity"
	"groupchat/internal/domain/repository"
	"groupchat/internal/domain/service"
	"groupchat/internal/infrastructure/metrics"
	"groupchat/internal/infrastructure/ratelimit"
	"groupchat/pkg/config"
	"groupchat/pkg/errors"
	"groupchat/pkg/logger"
)

const gifSearchLimit = 12

type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateIdentityPending
	StateActive
)

func (s SessionState) String() string {
	switch s {
	case StateIdentityPending:
		return "identity_pending"
	case StateActive:
		return "active"
	default:
		return "unauthenticated"
	}
}

// SessionDeps are the collaborators shared by every session.
type SessionDeps struct {
	Auth       *AuthUseCase
	Chat       *ChatUseCase
	Groups     *GroupUseCase
	Content    ContentProvider
	Messages   repository.MessageRepository
	GroupRepo  repository.GroupRepository
	Presence   repository.PresenceRepository
	Typing     repository.TypingRepository
	Classifier service.ProfanityClassifier
	Limiter    *ratelimit.RateLimiter
	Quota      *ratelimit.QuotaLedger
	Policy     config.ChatPolicy
}

type SessionInfo struct {
	ID       string                  `json:"id"`
	State    string                  `json:"state"`
	Identity *entity.SessionIdentity `json:"identity,omitempty"`
}

type Rejected struct {
	Reason service.Reason `json:"reason"`
	Silent bool           `json:"silent"`
	Text   string         `json:"text,omitempty"`
}

type SelectInput struct {
	Channel entity.Channel `json:"channel"`
	GroupID string         `json:"group_id"`
}

type ConfirmJoinInput struct {
	GroupID string `json:"group_id"`
	Accept  bool   `json:"accept"`
}

type GIFResults struct {
	Query   string   `json:"query"`
	Results []string `json:"results"`
	Error   string   `json:"error,omitempty"`
}

// Session is the server side of one chat connection. State transitions are
// Unauthenticated -> IdentityPending -> Active -> Unauthenticated.
type Session struct {
	id       string
	deps     SessionDeps
	sink     EventSink
	composer *service.Composer
	feed     *FeedSynchronizer
	presence *PresenceManager
	typing   *TypingTracker
	clock    func() time.Time

	mu          sync.Mutex
	state       SessionState
	identity    *entity.SessionIdentity
	toggles     service.FormatToggles
	selection   service.Selection
	pendingJoin string
	ctx         context.Context
	cancel      context.CancelFunc

	dispatches sync.WaitGroup
}

func NewSession(id string, deps SessionDeps, sink EventSink) *Session {
	policy := service.Policy{
		MaxChars: deps.Policy.MaxMessageChars,
		MaxWords: deps.Policy.MaxMessageWords,
		Cooldown: deps.Policy.RepeatCooldown,
	}
	if deps.Quota == nil {
		deps.Quota = ratelimit.NewQuotaLedger()
	}
	return &Session{
		id:        id,
		deps:      deps,
		sink:      sink,
		composer:  service.NewComposer(policy, deps.Classifier),
		feed:      NewFeedSynchronizer(deps.Messages, deps.GroupRepo, deps.Presence, sink, deps.Policy.PresenceFreshness),
		presence:  NewPresenceManager(deps.Presence, deps.Policy.PresenceHeartbeat),
		typing:    NewTypingTracker(deps.Typing, sink, deps.Policy.TypingIdle),
		clock:     time.Now,
		selection: service.Selection{Channel: entity.ChannelGlobal},
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns a copy of the active identity, or nil.
func (s *Session) Identity() *entity.SessionIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	identity := *s.identity
	return &identity
}

func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := SessionInfo{ID: s.id, State: s.state.String()}
	if s.identity != nil {
		identity := *s.identity
		info.Identity = &identity
	}
	return info
}

func (s *Session) Feed() *FeedSynchronizer {
	return s.feed
}

// Login resolves the identity and activates the session.
func (s *Session) Login(ctx context.Context, input LoginInput) (*entity.SessionIdentity, error) {
	s.mu.Lock()
	if s.state != StateUnauthenticated {
		state := s.state
		s.mu.Unlock()
		return nil, errors.InvalidState("cannot log in while " + state.String())
	}
	s.state = StateIdentityPending
	s.mu.Unlock()

	identity, err := s.deps.Auth.ResolveIdentity(ctx, input)
	if err != nil {
		s.setState(StateUnauthenticated)
		return nil, err
	}
	if identity.IsGuest {
		identity.MessagesSent = s.deps.Quota.Used(identity.UID)
	}

	loc := time.UTC
	if input.Timezone != "" {
		if l, err := time.LoadLocation(input.Timezone); err == nil {
			loc = l
		} else {
			logger.Warn(logger.Session(s.id, identity.DisplayName, "unknown timezone %q, using UTC", input.Timezone))
		}
	}

	if err := s.activate(identity, loc); err != nil {
		return nil, err
	}

	logger.Info(logger.Session(s.id, identity.DisplayName, "session active (guest=%t)", identity.IsGuest))
	s.sink.Emit(EventSession, s.Info())
	s.sink.Emit(EventFormat, service.FormatToggles{})
	return s.Identity(), nil
}

func (s *Session) activate(identity *entity.SessionIdentity, loc *time.Location) error {
	s.mu.Lock()
	if s.state != StateIdentityPending {
		s.mu.Unlock()
		return errors.InvalidState("session is not awaiting an identity")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.ctx = ctx
	s.cancel = cancel
	s.identity = identity
	s.toggles.Reset()
	s.selection = service.Selection{Channel: entity.ChannelGlobal}
	s.pendingJoin = ""
	s.state = StateActive
	sel := s.selection
	s.mu.Unlock()

	s.feed.Select(sel)
	if err := s.feed.Start(ctx, identity.DisplayName, loc); err != nil {
		s.deactivate(context.Background())
		return err
	}

	record := entity.PresenceRecord{User: identity.DisplayName, AvatarURL: identity.AvatarURL}
	if err := s.presence.Start(ctx, record, s.feed.RefreshPresence); err != nil {
		s.deactivate(context.Background())
		return err
	}

	if err := s.typing.Watch(ctx, entity.GlobalScope(), identity.DisplayName); err != nil {
		s.deactivate(context.Background())
		return err
	}

	metrics.ActiveSessions.Inc()
	return nil
}

// Logout stops the heartbeat, removes presence and returns to Unauthenticated.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateActive {
		state := s.state
		s.mu.Unlock()
		return errors.InvalidState("cannot log out while " + state.String())
	}
	s.mu.Unlock()

	user := s.displayName()
	s.deactivate(ctx)
	metrics.ActiveSessions.Dec()

	logger.Info(logger.Session(s.id, user, "logged out"))
	s.sink.Emit(EventSession, s.Info())
	return nil
}

// Close tears the session down when the connection goes away.
func (s *Session) Close() {
	s.mu.Lock()
	active := s.state == StateActive
	s.mu.Unlock()

	if active {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		s.deactivate(ctx)
		metrics.ActiveSessions.Dec()
	}
	s.dispatches.Wait()
}

func (s *Session) deactivate(ctx context.Context) {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.ctx = nil
	s.identity = nil
	s.toggles.Reset()
	s.pendingJoin = ""
	s.state = StateUnauthenticated
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.typing.Stop(ctx)
	if err := s.presence.Stop(ctx); err != nil {
		logger.Warn(logger.Session(s.id, "", "presence cleanup failed: %v", err))
	}
	s.feed.Stop()
}

// SelectChannel switches the view to a shared channel or a group. Selecting
// a group the user is not in asks for confirmation instead.
func (s *Session) SelectChannel(ctx context.Context, input SelectInput) error {
	identity, sessCtx, err := s.active()
	if err != nil {
		return err
	}

	if input.GroupID != "" {
		group, err := s.deps.Groups.GetGroup(ctx, input.GroupID)
		if err != nil {
			return err
		}
		if !group.HasMember(identity.DisplayName) {
			return s.promptJoin(ctx, group.ID, identity.DisplayName)
		}
		return s.switchTo(sessCtx, service.Selection{Channel: entity.ChannelGroup, GroupID: group.ID}, identity.DisplayName)
	}

	channel := input.Channel
	if channel == "" {
		channel = entity.ChannelGlobal
	}
	if channel != entity.ChannelGlobal && channel != entity.ChannelAI {
		return errors.BadRequest("Unknown channel "+string(channel), nil)
	}
	return s.switchTo(sessCtx, service.Selection{Channel: channel}, identity.DisplayName)
}

func (s *Session) switchTo(ctx context.Context, sel service.Selection, self string) error {
	s.mu.Lock()
	s.selection = sel
	s.mu.Unlock()

	if err := s.typing.Clear(ctx); err != nil {
		logger.Warn(logger.Session(s.id, self, "clearing typing indicator failed: %v", err))
	}
	s.feed.Select(sel)
	return s.typing.Watch(ctx, sel.Scope(), self)
}

func (s *Session) ToggleFormat(name string) (service.FormatToggles, error) {
	if _, _, err := s.active(); err != nil {
		return service.FormatToggles{}, err
	}

	s.mu.Lock()
	err := s.toggles.Toggle(name)
	toggles := s.toggles
	s.mu.Unlock()
	if err != nil {
		return toggles, errors.BadRequest(err.Error(), nil)
	}

	s.sink.Emit(EventFormat, toggles)
	return toggles, nil
}

// SendMessage runs the composer and writes the result. Rejections are
// emitted and returned as *service.Rejection; other errors are left to the
// caller to report. A bot reply, if any, is
// dispatched in the background.
func (s *Session) SendMessage(ctx context.Context, text string) (*entity.ChatMessage, error) {
	identity, sessCtx, err := s.active()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	toggles := s.toggles
	scope := s.selection.Scope()
	s.mu.Unlock()

	now := s.clock()
	msg, rej := s.composer.Compose(service.ComposeInput{
		Text:    text,
		Toggles: toggles,
		Author:  service.Author{Name: identity.DisplayName, AvatarURL: identity.AvatarURL},
		Scope:   scope,
	}, now)
	if rej != nil {
		return nil, s.reject(identity.DisplayName, rej, text)
	}
	if !s.takeQuota(identity) {
		return nil, s.reject(identity.DisplayName, &service.Rejection{Reason: service.ReasonGuestQuota}, text)
	}

	if err := s.deps.Chat.Publish(sessCtx, msg); err != nil {
		s.refundQuota(identity)
		return nil, err
	}
	s.composer.Commit(msg.Text, now)

	s.mu.Lock()
	s.toggles.Reset()
	s.mu.Unlock()
	s.sink.Emit(EventFormat, service.FormatToggles{})

	if err := s.typing.Clear(sessCtx); err != nil {
		logger.Warn(logger.Session(s.id, identity.DisplayName, "clearing typing indicator failed: %v", err))
	}

	if !scope.IsGroup() && scope.Channel.BotEnabled() {
		s.dispatches.Add(1)
		go s.dispatchBotReply(sessCtx, msg)
	}
	return msg, nil
}

func (s *Session) dispatchBotReply(ctx context.Context, trigger *entity.ChatMessage) {
	defer s.dispatches.Done()

	reply, err := s.deps.Chat.DispatchBotReply(ctx, trigger)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error(logger.Session(s.id, trigger.User, "bot reply failed: %v", err))
		}
		return
	}
	if reply != nil {
		logger.Debug(logger.Session(s.id, trigger.User, "bot replied to %s", trigger.ID))
	}
}

// takeQuota charges a guest send against the allowance shared by every
// session of that guest uid.
func (s *Session) takeQuota(identity *entity.SessionIdentity) bool {
	if !identity.IsGuest {
		return true
	}
	used, ok := s.deps.Quota.Take(identity.UID, s.deps.Policy.GuestMessageQuota)
	s.syncQuota(used)
	return ok
}

func (s *Session) refundQuota(identity *entity.SessionIdentity) {
	if !identity.IsGuest {
		return
	}
	s.deps.Quota.Refund(identity.UID)
	s.syncQuota(s.deps.Quota.Used(identity.UID))
}

func (s *Session) syncQuota(used int) {
	s.mu.Lock()
	if s.identity != nil {
		s.identity.MessagesSent = used
	}
	s.mu.Unlock()
}

func (s *Session) reject(user string, rej *service.Rejection, text string) error {
	metrics.Rejections.WithLabelValues(string(rej.Reason)).Inc()
	logger.Debug(logger.Session(s.id, user, "message rejected: %s", rej.Reason))
	s.sink.Emit(EventRejected, Rejected{Reason: rej.Reason, Silent: rej.Silent, Text: text})
	return rej
}

// SendMedia writes an image or GIF message into the active scope.
func (s *Session) SendMedia(ctx context.Context, imageURL string) (*entity.ChatMessage, error) {
	identity, sessCtx, err := s.active()
	if err != nil {
		return nil, err
	}

	if !validMediaURL(imageURL) {
		return nil, errors.BadRequest("A valid http(s) image URL is required", nil)
	}
	if ok, wait := s.deps.Limiter.Allow(identity.UID, ratelimit.ActionSendMedia); !ok {
		return nil, errors.TooManyRequests("Too many attachments", wait)
	}
	if !s.takeQuota(identity) {
		return nil, s.reject(identity.DisplayName, &service.Rejection{Reason: service.ReasonGuestQuota}, "")
	}

	s.mu.Lock()
	scope := s.selection.Scope()
	s.mu.Unlock()

	now := s.clock()
	msg := service.NewMediaMessage(strings.TrimSpace(imageURL), service.Author{Name: identity.DisplayName, AvatarURL: identity.AvatarURL}, scope, now)
	if err := s.deps.Chat.Publish(sessCtx, msg); err != nil {
		s.refundQuota(identity)
		return nil, err
	}
	s.composer.Commit(msg.Text, now)
	return msg, nil
}

// Typing records a keystroke in the active scope.
func (s *Session) Typing(ctx context.Context) error {
	identity, sessCtx, err := s.active()
	if err != nil {
		return err
	}
	if ok, _ := s.deps.Limiter.Allow(identity.UID, ratelimit.ActionTyping); !ok {
		return nil
	}

	s.mu.Lock()
	scope := s.selection.Scope()
	s.mu.Unlock()

	return s.typing.Keystroke(sessCtx, identity.DisplayName, scope)
}

// CreateGroup creates a group with the current user as its first member and opens it.
func (s *Session) CreateGroup(ctx context.Context, input CreateGroupInput) (*entity.Group, error) {
	identity, sessCtx, err := s.active()
	if err != nil {
		return nil, err
	}
	if ok, wait := s.deps.Limiter.Allow(identity.UID, ratelimit.ActionCreateGroup); !ok {
		return nil, errors.TooManyRequests("Too many groups created", wait)
	}

	group, err := s.deps.Groups.CreateGroup(ctx, identity.DisplayName, input)
	if err != nil {
		return nil, err
	}

	if err := s.switchTo(sessCtx, service.Selection{Channel: entity.ChannelGroup, GroupID: group.ID}, identity.DisplayName); err != nil {
		logger.Warn(logger.Session(s.id, identity.DisplayName, "opening new group failed: %v", err))
	}
	return group, nil
}

// JoinGroup asks for confirmation, or opens the group if already a member.
func (s *Session) JoinGroup(ctx context.Context, groupID string) (*JoinPrompt, error) {
	identity, sessCtx, err := s.active()
	if err != nil {
		return nil, err
	}

	prompt, err := s.deps.Groups.RequestJoin(ctx, groupID, identity.DisplayName)
	if err != nil {
		return nil, err
	}
	if prompt.AlreadyMember {
		return prompt, s.switchTo(sessCtx, service.Selection{Channel: entity.ChannelGroup, GroupID: prompt.GroupID}, identity.DisplayName)
	}

	s.mu.Lock()
	s.pendingJoin = prompt.GroupID
	s.mu.Unlock()
	s.sink.Emit(EventConfirmJoin, prompt)
	return prompt, nil
}

func (s *Session) promptJoin(ctx context.Context, groupID, user string) error {
	prompt, err := s.deps.Groups.RequestJoin(ctx, groupID, user)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.pendingJoin = prompt.GroupID
	s.mu.Unlock()
	s.sink.Emit(EventConfirmJoin, prompt)
	return nil
}

// ConfirmJoin answers the pending join prompt. Only an accepted prompt writes.
func (s *Session) ConfirmJoin(ctx context.Context, input ConfirmJoinInput) (*entity.Group, error) {
	identity, sessCtx, err := s.active()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	pending := s.pendingJoin
	if pending != "" && pending == input.GroupID {
		s.pendingJoin = ""
	}
	s.mu.Unlock()

	if pending == "" || pending != input.GroupID {
		return nil, errors.InvalidState("no pending join for this group")
	}
	if !input.Accept {
		return nil, nil
	}
	if ok, wait := s.deps.Limiter.Allow(identity.UID, ratelimit.ActionJoinGroup); !ok {
		return nil, errors.TooManyRequests("Too many join attempts", wait)
	}

	group, err := s.deps.Groups.Join(ctx, input.GroupID, identity.DisplayName)
	if err != nil {
		return nil, err
	}
	s.sink.Emit(EventJoined, group)

	if err := s.switchTo(sessCtx, service.Selection{Channel: entity.ChannelGroup, GroupID: group.ID}, identity.DisplayName); err != nil {
		logger.Warn(logger.Session(s.id, identity.DisplayName, "opening joined group failed: %v", err))
	}
	return group, nil
}

// SearchGIFs looks up GIFs for the picker. Failures produce an empty result.
func (s *Session) SearchGIFs(ctx context.Context, query string) (*GIFResults, error) {
	identity, _, err := s.active()
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.BadRequest("Search query is required", nil)
	}
	if ok, wait := s.deps.Limiter.Allow(identity.UID, ratelimit.ActionSearchGIFs); !ok {
		return nil, errors.TooManyRequests("Too many searches", wait)
	}

	result := &GIFResults{Query: query, Results: []string{}}
	urls, err := s.deps.Content.SearchGIFs(ctx, query, gifSearchLimit)
	if err != nil {
		logger.LogAPIFailure("gif", err)
		metrics.ContentAPIFailures.WithLabelValues("gif").Inc()
		result.Error = "GIF search is unavailable right now."
	} else if urls != nil {
		result.Results = urls
	}

	s.sink.Emit(EventGIFs, result)
	return result, nil
}

func (s *Session) active() (*entity.SessionIdentity, context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive || s.identity == nil {
		return nil, nil, errors.InvalidState("session is not active")
	}
	identity := *s.identity
	return &identity, s.ctx, nil
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) displayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.DisplayName
}

func validMediaURL(raw string) bool {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ErrorPayload is the body of an error event.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEvent converts err into the payload of an error event.
func ErrorEvent(err error) ErrorPayload {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return ErrorPayload{Code: appErr.Code, Message: appErr.Message}
	}
	return ErrorPayload{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}
}
