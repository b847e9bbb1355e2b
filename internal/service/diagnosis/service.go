// Package diagnosis drives a session through analysis, questioning and
// report synthesis.
package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zhouzirui/z-tongue/backend/internal/analysis/tongue"
	model "github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
	"github.com/zhouzirui/z-tongue/backend/internal/service/ai"
	"github.com/zhouzirui/z-tongue/backend/internal/service/recommend"
	"github.com/zhouzirui/z-tongue/backend/internal/service/session"
)

var (
	ErrValidation       = errors.New("invalid request")
	ErrStageOrder       = errors.New("stage prerequisite missing")
	ErrAlreadyCompleted = errors.New("session already completed")
)

const (
	stageAnalyze   = "analyze"
	stageQuestions = "generate-questions"
	stageAnswers   = "submit-answers"

	defaultMaxImageBytes = 10 << 20
)

// Config tunes the orchestrator.
type Config struct {
	RecommendLimit int
	MaxImageBytes  int
}

// AnalyzeResult is returned by Analyze.
type AnalyzeResult struct {
	SessionID string               `json:"sessionId"`
	Analysis  model.TongueAnalysis `json:"analysis"`
	Source    model.Source         `json:"source"`
}

// SubmitResult is returned by SubmitAnswers.
type SubmitResult struct {
	Report              model.FinalReport     `json:"report"`
	RecommendedProducts []product.Recommended `json:"recommendedProducts"`
}

// Service orchestrates the three-stage pipeline. Stage calls on the same
// session are serialized.
type Service struct {
	store     session.Store
	inference *ai.Client
	prompts   *ai.Prompts
	matcher   *recommend.Matcher
	broker    *Broker
	locks     *keyLock
	cfg       Config
	logger    *zap.Logger
}

// NewService wires the orchestrator. matcher may be nil, in which case no
// products are recommended.
func NewService(store session.Store, inference *ai.Client, matcher *recommend.Matcher, cfg Config, logger *zap.Logger) *Service {
	if cfg.RecommendLimit <= 0 {
		cfg.RecommendLimit = recommend.DefaultLimit
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = defaultMaxImageBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if inference == nil {
		inference = ai.NewClient(nil, 0, logger)
	}
	return &Service{
		store:     store,
		inference: inference,
		prompts:   ai.DefaultPrompts(),
		matcher:   matcher,
		broker:    NewBroker(),
		locks:     newKeyLock(),
		cfg:       cfg,
		logger:    logger,
	}
}

// Analyze runs stage one. It never fails because of the model: any inference
// error is replaced by the local synthesizer.
func (s *Service) Analyze(ctx context.Context, imageData string) (AnalyzeResult, error) {
	imageData = strings.TrimSpace(imageData)
	if imageData == "" {
		return AnalyzeResult{}, fmt.Errorf("%w: imageData is required", ErrValidation)
	}
	if len(imageData) > s.cfg.MaxImageBytes {
		return AnalyzeResult{}, fmt.Errorf("%w: image exceeds %d bytes", ErrValidation, s.cfg.MaxImageBytes)
	}

	if err := ctx.Err(); err != nil {
		return AnalyzeResult{}, err
	}

	// Once created, the session must reach analyzed even if the caller leaves.
	persistCtx := context.WithoutCancel(ctx)
	created, err := s.store.Create(persistCtx, model.Session{ImageFingerprint: imageData})
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("create session: %w", err)
	}

	unlock, err := s.locks.Lock(persistCtx, created.ID)
	if err != nil {
		return AnalyzeResult{}, err
	}
	defer unlock()

	analysis, source := s.analyzeImage(ctx, created.ID, imageData)

	updated, err := s.store.Update(persistCtx, created.ID, func(sess *model.Session) error {
		return sess.RecordAnalysis(analysis, source)
	})
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("store analysis: %w", err)
	}
	s.publish(updated, stageAnalyze)

	return AnalyzeResult{SessionID: updated.ID, Analysis: *updated.TongueAnalysis, Source: source}, nil
}

func (s *Service) analyzeImage(ctx context.Context, sessionID, imageData string) (model.TongueAnalysis, model.Source) {
	result, err := s.requestAnalysis(ctx, imageData)
	if err == nil {
		return result, model.SourceModel
	}
	s.logger.Warn("tongue analysis unavailable, using local synthesis",
		zap.String("session_id", sessionID),
		zap.Error(err),
	)
	return tongue.Synthesize(imageData), model.SourceFallback
}

func (s *Service) requestAnalysis(ctx context.Context, imageData string) (model.TongueAnalysis, error) {
	prompt, err := s.prompts.Analysis.Render(ctx, nil)
	if err != nil {
		return model.TongueAnalysis{}, err
	}

	var result model.TongueAnalysis
	if err := s.inference.InvokeInto(ctx, prompt, imageData, &result); err != nil {
		return model.TongueAnalysis{}, err
	}
	if err := result.Validate(); err != nil {
		return model.TongueAnalysis{}, fmt.Errorf("%w: %v", ai.ErrInferenceFormat, err)
	}
	return result, nil
}

// GenerateQuestions runs stage two. Calling it again while questioning
// replaces the question set.
func (s *Service) GenerateQuestions(ctx context.Context, sessionID string) (model.QuestionSet, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return model.QuestionSet{}, fmt.Errorf("%w: sessionId is required", ErrValidation)
	}

	unlock, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return model.QuestionSet{}, err
	}
	defer unlock()

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return model.QuestionSet{}, err
	}
	if sess.TongueAnalysis == nil {
		return model.QuestionSet{}, fmt.Errorf("%w: no tongue analysis for %s", session.ErrSessionNotFound, sessionID)
	}
	if sess.Status == model.StatusCompleted {
		return model.QuestionSet{}, ErrAlreadyCompleted
	}

	prompt, err := s.prompts.Questions.Render(ctx, ai.AnalysisBindings(sess.TongueAnalysis))
	if err != nil {
		return model.QuestionSet{}, err
	}

	var questions model.QuestionSet
	if err := s.inference.InvokeInto(ctx, prompt, "", &questions); err != nil {
		return model.QuestionSet{}, err
	}
	if len(questions.Questions) == 0 {
		return model.QuestionSet{}, fmt.Errorf("%w: no questions generated", ai.ErrInferenceFormat)
	}

	updated, err := s.store.Update(ctx, sessionID, func(sess *model.Session) error {
		if sess.Status == model.StatusCompleted {
			return ErrAlreadyCompleted
		}
		qs := questions
		sess.QuestionSet = &qs
		return sess.Advance(model.StatusQuestioning)
	})
	if err != nil {
		return model.QuestionSet{}, err
	}
	s.publish(updated, stageQuestions)

	return questions, nil
}

// SubmitAnswers runs stage three. A completed session rejects resubmission.
func (s *Service) SubmitAnswers(ctx context.Context, sessionID string, answers []model.Answer) (SubmitResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return SubmitResult{}, fmt.Errorf("%w: sessionId is required", ErrValidation)
	}
	if len(answers) == 0 {
		return SubmitResult{}, fmt.Errorf("%w: answers are required", ErrValidation)
	}
	for i, a := range answers {
		if strings.TrimSpace(a.Answer) == "" {
			return SubmitResult{}, fmt.Errorf("%w: answer %d is empty", ErrValidation, i)
		}
	}

	unlock, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	defer unlock()

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	if sess.Status == model.StatusCompleted {
		return SubmitResult{}, ErrAlreadyCompleted
	}
	if sess.QuestionSet == nil {
		return SubmitResult{}, fmt.Errorf("%w: questions have not been generated", ErrStageOrder)
	}
	for _, a := range answers {
		if !sess.QuestionSet.Has(a.QuestionID) {
			return SubmitResult{}, fmt.Errorf("%w: unknown question id %d", ErrValidation, a.QuestionID)
		}
	}

	prompt, err := s.prompts.Report.Render(ctx, ai.ReportBindings(sess.TongueAnalysis, answers))
	if err != nil {
		return SubmitResult{}, err
	}

	var report model.FinalReport
	if err := s.inference.InvokeInto(ctx, prompt, "", &report); err != nil {
		return SubmitResult{}, err
	}

	recs := s.recommend(ctx, sessionID, sess.TongueAnalysis, &report)

	updated, err := s.store.Update(ctx, sessionID, func(sess *model.Session) error {
		if sess.Status == model.StatusCompleted {
			return ErrAlreadyCompleted
		}
		r := report
		sess.Answers = append([]model.Answer(nil), answers...)
		sess.FinalReport = &r
		sess.RecommendedProducts = recs
		return sess.Advance(model.StatusCompleted)
	})
	if err != nil {
		return SubmitResult{}, err
	}
	s.publish(updated, stageAnswers)

	return SubmitResult{Report: report, RecommendedProducts: recs}, nil
}

// recommend never fails the stage: catalog problems degrade to no products.
func (s *Service) recommend(ctx context.Context, sessionID string, analysis *model.TongueAnalysis, report *model.FinalReport) []product.Recommended {
	if s.matcher == nil {
		return []product.Recommended{}
	}
	recs, err := s.matcher.Recommend(ctx, analysis, report, s.cfg.RecommendLimit)
	if err != nil {
		s.logger.Warn("product recommendation degraded",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return []product.Recommended{}
	}
	return recs
}

// GetRecord returns a snapshot of the session.
func (s *Service) GetRecord(ctx context.Context, sessionID string) (model.Session, error) {
	return s.store.Get(ctx, strings.TrimSpace(sessionID))
}

// Recommendations returns the stored picks of a completed session, or
// computes them from the analysis without touching the session.
func (s *Service) Recommendations(ctx context.Context, sessionID string, limit int) ([]product.Recommended, error) {
	sess, err := s.store.Get(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.RecommendLimit
	}

	if len(sess.RecommendedProducts) > 0 {
		recs := sess.RecommendedProducts
		if len(recs) > limit {
			recs = recs[:limit]
		}
		return recs, nil
	}
	if sess.TongueAnalysis == nil {
		return nil, fmt.Errorf("%w: no tongue analysis for %s", session.ErrSessionNotFound, sessionID)
	}
	if s.matcher == nil {
		return []product.Recommended{}, nil
	}
	return s.matcher.Recommend(ctx, sess.TongueAnalysis, sess.FinalReport, limit)
}

// Subscribe returns the current session and a channel of later transitions.
// cancel must be called when the caller stops listening.
func (s *Service) Subscribe(ctx context.Context, sessionID string) (model.Session, <-chan Event, func(), error) {
	events, cancel := s.broker.Subscribe(sessionID)
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		cancel()
		return model.Session{}, nil, nil, err
	}
	return sess, events, cancel, nil
}

// InferenceEnabled reports whether a model endpoint is configured.
func (s *Service) InferenceEnabled() bool {
	return s.inference.Enabled()
}

// Close releases event subscribers.
func (s *Service) Close() {
	s.broker.Close()
}

func (s *Service) publish(sess model.Session, stage string) {
	s.logger.Info("session advanced",
		zap.String("session_id", sess.ID),
		zap.String("status", string(sess.Status)),
		zap.String("stage", stage),
	)
	s.broker.Publish(Event{
		SessionID: sess.ID,
		Status:    sess.Status,
		Stage:     stage,
		At:        sess.UpdatedAt,
	})
}
