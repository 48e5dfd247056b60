package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"scanhub/internal/logging"
	"scanhub/internal/notifications"
	"scanhub/internal/store"
	"scanhub/internal/workflow"
)

// ErrInvalidInput marks request payloads the daemon should reject before any
// workflow processing.
var ErrInvalidInput = errors.New("invalid input")

// ChapterService drives chapter workflow requests on behalf of the HTTP
// layer.
type ChapterService struct {
	engine   *workflow.Engine
	store    *store.Store
	notifier notifications.Service
	logger   *slog.Logger
}

// NewChapterService wires the chapter service. The notifier may be a noop
// implementation.
func NewChapterService(engine *workflow.Engine, st *store.Store, notifier notifications.Service, logger *slog.Logger) *ChapterService {
	return &ChapterService{
		engine:   engine,
		store:    st,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "chapter-service"),
	}
}

// RequestTransition validates the request and asks the engine to move the
// chapter. On a committed advance the configured notifier is informed;
// delivery failures are logged and do not fail the request.
func (s *ChapterService) RequestTransition(ctx context.Context, chapterID int64, req TransitionRequest) (Chapter, error) {
	if req.ActorID <= 0 {
		return Chapter{}, fmt.Errorf("%w: actorId is required", ErrInvalidInput)
	}
	target, ok := workflow.ParseStage(req.Target)
	if !ok {
		return Chapter{}, fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, req.Target)
	}

	state, err := s.engine.RequestTransition(ctx, chapterID, req.ActorID, target, strings.TrimSpace(req.Note))
	if err != nil {
		return Chapter{}, err
	}

	s.notify(ctx, state, target)
	return FromChapterState(state), nil
}

func (s *ChapterService) notify(ctx context.Context, state workflow.ChapterState, target workflow.Stage) {
	var err error
	if state.Stage == workflow.StageDone {
		err = s.notifier.NotifyChapterDone(ctx, state.Title)
	} else {
		err = s.notifier.NotifyStageAdvanced(ctx, state.Title, state.Stage, target)
	}
	if err != nil {
		s.logger.Warn("notification delivery failed",
			logging.Int64("chapter_id", state.ID),
			logging.String("stage", string(state.Stage)),
			logging.Error(err))
	}
}

// History returns the chapter's committed transitions in commit order.
func (s *ChapterService) History(ctx context.Context, chapterID int64) ([]Transition, error) {
	chapter, err := s.store.ChapterByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, fmt.Errorf("%w: chapter %d", workflow.ErrNotFound, chapterID)
	}
	records, err := s.store.TransitionsFor(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	transitions := make([]Transition, 0, len(records))
	for _, record := range records {
		transitions = append(transitions, FromTransition(record))
	}
	return transitions, nil
}
