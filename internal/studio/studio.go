// Package studio – Studio
//
// This file implements the Studio orchestrator, which composes the analysis
// request controller, the navigation/result binder, the history cache, the
// session store, and the bookmark set into the user-visible workflow:
// idle → analyzing → {result, failed} → idle.
//
// Invariants owned here:
//   - Only the outcome of the most recently started request is ever applied;
//     outcomes are re-checked against the controller sentinel under the
//     studio mutex, which serializes all workflow mutations.
//   - A completed, non-cancelled analysis updates the history cache and
//     commits exactly one navigation entry.
//   - Session expiry is checked synchronously before any authenticated
//     action is dispatched; an expired session never initiates a remote call.
//   - Logout clears session, bookmark mirror, and history as one logical
//     operation under the studio mutex; no partial state is observable.
package studio

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/averios/go-style-studio/internal/analysis"
	"github.com/averios/go-style-studio/internal/bookmarks"
	"github.com/averios/go-style-studio/internal/catalog"
	"github.com/averios/go-style-studio/internal/domain"
	"github.com/averios/go-style-studio/internal/history"
	"github.com/averios/go-style-studio/internal/navigation"
	"github.com/averios/go-style-studio/internal/session"
)

// Phase is the workflow state visible to the UI.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseAnalyzing Phase = "analyzing"
	PhaseResult    Phase = "result"
	PhaseFailed    Phase = "failed"
)

// State is the read-only workflow snapshot exposed to the UI.
type State struct {
	Phase     Phase                  `json:"phase"`
	Result    *domain.AnalysisResult `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
	RequestID int64                  `json:"request_id,omitempty"`
}

// Authenticator is the remote logout collaborator. Failures are best-effort;
// local teardown always proceeds.
type Authenticator interface {
	Logout(ctx context.Context, token string) error
}

// Studio drives one workflow instance. All mutations of workflow state are
// serialized by a single mutex; backend calls never run under it except the
// non-blocking dispatch of an analysis.
type Studio struct {
	ctrl     *analysis.Controller
	nav      *navigation.Binder
	hist     *history.Cache
	sessions *session.Store
	marks    *bookmarks.Service
	items    catalog.Index
	auth     Authenticator
	log      zerolog.Logger
	now      func() time.Time
	caser    cases.Caser

	mu      sync.Mutex
	phase   Phase
	result  *domain.AnalysisResult
	lastErr string
}

// New constructs a Studio over its collaborators. analyzer is the opaque
// backend analysis function pair; auth may be nil when no remote logout
// endpoint is configured.
func New(analyzer analysis.Analyzer, nav *navigation.Binder, hist *history.Cache,
	sessions *session.Store, marks *bookmarks.Service, items catalog.Index,
	auth Authenticator, log zerolog.Logger) *Studio {

	s := &Studio{
		nav:      nav,
		hist:     hist,
		sessions: sessions,
		marks:    marks,
		items:    items,
		auth:     auth,
		log:      log,
		now:      time.Now,
		phase:    PhaseIdle,
		caser:    cases.Title(language.English),
	}
	s.ctrl = analysis.NewController(analyzer, s.applyOutcome)
	return s
}

//
// Session lifecycle
//

// Login establishes the session from a completed external authentication,
// binds the history cache to the new session's storage key, and syncs the
// bookmark mirror. A failed initial sync is logged and left best-effort.
func (s *Studio) Login(ctx context.Context, token, userID, displayName, avatarRef string) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.sessions.Establish(token, userID, displayName, avatarRef)
	s.marks.Reset()
	s.hist.Bind(ctx, st.Token)
	s.phase = PhaseIdle
	s.result = nil
	s.lastErr = ""

	if err := s.marks.SyncAll(ctx, st.Token); err != nil {
		s.log.Warn().Err(err).Msg("initial bookmark sync failed")
	}
	s.log.Info().Str("user_id", userID).Msg("session established")
	return st
}

// Logout destroys the session and clears the bookmark mirror and the history
// cache as one logical operation. The remote logout call is best-effort and
// does not block local teardown.
func (s *Studio) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.sessions.Current(); ok && s.auth != nil {
		if err := s.auth.Logout(ctx, st.Token); err != nil {
			s.log.Warn().Err(err).Msg("remote logout failed")
		}
	}
	s.sessions.Clear()
	s.marks.Reset()
	s.hist.Clear(ctx)
	s.ctrl.Cancel()
	s.phase = PhaseIdle
	s.result = nil
	s.lastErr = ""
	s.nav.Reset()
	s.log.Info().Msg("session destroyed")
}

// Session returns the current session projection, enforcing local expiry
// (including its forced sign-out side effects) first.
func (s *Studio) Session(ctx context.Context) (domain.SessionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions.Expire() {
		s.forcedSignOutLocked()
	}
	return s.sessions.Current()
}

// ValidateSession performs the advisory remote check. Only a definitive
// unauthorized response destroys the session (with full sign-out side
// effects); connectivity errors leave it untouched.
func (s *Studio) ValidateSession(ctx context.Context) error {
	err := s.sessions.ValidateRemote(ctx)
	if errors.Is(err, session.ErrUnauthorized) {
		s.mu.Lock()
		s.forcedSignOutLocked()
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("session validation unreachable; keeping session")
	}
	return nil
}

// requireSessionLocked gates an authenticated action. The local expiry check
// runs synchronously and alone decides expiry; no remote call is made here.
// Caller must hold s.mu.
func (s *Studio) requireSessionLocked() (domain.SessionState, error) {
	if s.sessions.Expire() {
		s.forcedSignOutLocked()
		return domain.SessionState{}, ErrSessionExpired
	}
	st, ok := s.sessions.Current()
	if !ok {
		return domain.SessionState{}, ErrNoSession
	}
	return st, nil
}

// forcedSignOutLocked applies the sign-out side effects of expiry or
// confirmed remote invalidation: bookmark mirror and active history pointer
// are dropped and the workflow returns to idle. Caller must hold s.mu.
func (s *Studio) forcedSignOutLocked() {
	s.sessions.Clear()
	s.marks.Reset()
	s.hist.ClearActive()
	s.ctrl.Cancel()
	s.phase = PhaseIdle
	s.result = nil
	s.lastErr = ""
	s.log.Info().Msg("forced sign-out")
}

//
// Workflow
//

// StartAnalysis triggers a new analysis. Calling it while one is analyzing
// supersedes the in-flight request. The backend call is dispatched
// asynchronously; the caller is never blocked on it.
func (s *Studio) StartAnalysis(ctx context.Context, kind domain.SourceKind, ref, label string) (domain.AnalysisRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireSessionLocked(); err != nil {
		return domain.AnalysisRequest{}, err
	}
	if !kind.Valid() || strings.TrimSpace(ref) == "" {
		return domain.AnalysisRequest{}, ErrBadSource
	}

	image := ""
	switch kind {
	case domain.SourceImageUpload:
		// The ref of an upload is already a display-ready reference.
		image = ref
	case domain.SourceCatalogItem:
		item, ok := s.items.Get(ref)
		if !ok {
			return domain.AnalysisRequest{}, ErrUnknownCatalogItem
		}
		image = item.ImageURL
		if label == "" {
			label = item.Name
		}
	}

	s.phase = PhaseAnalyzing
	s.result = nil
	s.lastErr = ""
	s.hist.ClearActive()

	// The request must outlive the triggering HTTP request.
	req := s.ctrl.Start(context.WithoutCancel(ctx), kind, ref, image, s.normalizeLabel(label))
	analysesStarted.Inc()
	s.log.Info().Int64("request_id", req.ID).Str("source_kind", string(kind)).Msg("analysis started")
	return req, nil
}

// CancelAnalysis marks the in-flight request as stale and returns the
// workflow to idle immediately. The underlying network call is not aborted;
// its result is ignored on arrival.
func (s *Studio) CancelAnalysis() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctrl.Cancel()
	if s.phase == PhaseAnalyzing {
		s.phase = PhaseIdle
		s.lastErr = ""
	}
}

// applyOutcome is the controller sink. It re-checks staleness under the
// studio mutex, which closes the window between the controller's check and
// the state mutation.
func (s *Studio) applyOutcome(o analysis.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ctrl.IsCurrent(o.Request.ID) || s.phase != PhaseAnalyzing {
		s.log.Debug().Int64("request_id", o.Request.ID).Msg("stale analysis outcome discarded")
		return
	}

	if o.Err != nil {
		s.phase = PhaseFailed
		s.lastErr = "analysis failed"
		analysesFailed.Inc()
		s.log.Warn().Err(o.Err).Int64("request_id", o.Request.ID).Msg("analysis failed")
		return
	}

	result := &domain.AnalysisResult{
		SourceImage: o.Request.SourceImage,
		SourceLabel: o.Request.SourceLabel,
		Payload:     o.Payload,
		CompletedAt: s.now().UTC(),
	}
	s.result = result
	s.phase = PhaseResult
	analysesCompleted.Inc()

	ctx := context.Background()
	s.hist.Record(ctx, s.hist.NewEntry(o.Request.SourceKind, *result))
	s.nav.Commit(result, result.SourceImage, result.SourceLabel)
	s.log.Info().Int64("request_id", o.Request.ID).Msg("analysis completed")
}

// ReturnToIdle is the explicit "back to discovery" transition. The result
// marker is removed with a non-destructive history replace.
func (s *Studio) ReturnToIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctrl.Cancel()
	s.phase = PhaseIdle
	s.result = nil
	s.lastErr = ""
	s.nav.Reset()
	s.hist.ClearActive()
}

// ActivateHistoryEntry selects a history thumbnail: the entry becomes the
// active one and its snapshot hydrates the result view immediately, with no
// backend call.
func (s *Studio) ActivateHistoryEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.hist.Activate(id)
	if !ok {
		return ErrUnknownHistoryEntry
	}
	res := entry.Result
	s.result = &res
	s.phase = PhaseResult
	s.lastErr = ""
	return nil
}

// Back replays one backward navigation step and returns the resulting state.
// Landing on an entry without the result marker returns the workflow to idle
// and clears any in-progress analysis and history selection; landing on a
// marked entry restores the result view from its snapshot without
// re-invoking the backend.
func (s *Studio) Back() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, _ := s.nav.Back()
	s.applyNavigationLocked(entry)
	return s.stateLocked()
}

// Forward replays one forward navigation step; same semantics as Back.
func (s *Studio) Forward() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, _ := s.nav.Forward()
	s.applyNavigationLocked(entry)
	return s.stateLocked()
}

// applyNavigationLocked interprets a navigation entry. Caller must hold s.mu.
func (s *Studio) applyNavigationLocked(entry navigation.Entry) {
	if entry.IsResult() && entry.State != nil && entry.State.Result != nil {
		s.result = entry.State.Result
		s.phase = PhaseResult
		s.lastErr = ""
		return
	}
	s.ctrl.Cancel()
	s.phase = PhaseIdle
	s.result = nil
	s.lastErr = ""
	s.hist.ClearActive()
}

// State returns the workflow snapshot.
func (s *Studio) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Studio) stateLocked() State {
	return State{
		Phase:     s.phase,
		Result:    s.result,
		Error:     s.lastErr,
		RequestID: s.ctrl.Current(),
	}
}

//
// Projections and leaf actions
//

// History returns the read-only history projection, newest first.
func (s *Studio) History() []domain.HistoryEntry {
	return s.hist.Entries()
}

// Catalog exposes the read-only catalog index for the browse endpoints.
func (s *Studio) Catalog() catalog.Index {
	return s.items
}

// Bookmarks returns the bookmark projection, syncing the mirror from the
// server on the first authenticated view.
func (s *Studio) Bookmarks(ctx context.Context) ([]domain.BookmarkItem, error) {
	s.mu.Lock()
	st, err := s.requireSessionLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if !s.marks.Synced() {
		if err := s.marks.SyncAll(ctx, st.Token); err != nil {
			return nil, err
		}
	}
	return s.marks.Items(), nil
}

// ToggleBookmark saves or removes a product, confirming with the server
// before mutating the local mirror. A toggle already in flight for the same
// product yields bookmarks.ErrTogglePending.
func (s *Studio) ToggleBookmark(ctx context.Context, productID string) (bool, error) {
	s.mu.Lock()
	st, err := s.requireSessionLocked()
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	meta := domain.BookmarkItem{}
	if item, ok := s.items.Get(productID); ok {
		meta.Title = item.Name
		meta.ImageURL = item.ImageURL
	}
	return s.marks.Toggle(ctx, st.Token, productID, meta)
}

// ClearBookmarks bulk-deletes the given products (all when ids is empty).
// Partial failure leaves the mirror unchanged and surfaces as a whole-
// operation failure.
func (s *Studio) ClearBookmarks(ctx context.Context, ids []string) error {
	s.mu.Lock()
	st, err := s.requireSessionLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.marks.ClearAll(ctx, st.Token, ids)
}

//
// Label normalization
//

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// normalizeLabel trims and collapses whitespace and title-cases the label so
// history and result views render a consistent subject name.
func (s *Studio) normalizeLabel(label string) string {
	label = whitespaceRE.ReplaceAllString(strings.TrimSpace(label), " ")
	if label == "" {
		return label
	}
	return s.caser.String(label)
}
