package diagnosis

import (
	"errors"
	"fmt"
	"time"

	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
)

// Status 表示诊断会话所处的阶段。
type Status string

const (
	StatusCreated     Status = "created"
	StatusAnalyzed    Status = "analyzed"
	StatusQuestioning Status = "questioning"
	StatusCompleted   Status = "completed"
)

var statusRank = map[Status]int{
	StatusCreated:     0,
	StatusAnalyzed:    1,
	StatusQuestioning: 2,
	StatusCompleted:   3,
}

// Source 记录舌诊结果来自模型还是本地兜底。
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

var (
	ErrStatusRegression  = errors.New("session status cannot move backwards")
	ErrAnalysisImmutable = errors.New("tongue analysis already recorded")
)

// Session 聚合一次舌诊到报告的全部产物。
type Session struct {
	ID                  string                `json:"sessionId"`
	ImageFingerprint    string                `json:"imageFingerprint,omitempty"`
	TongueAnalysis      *TongueAnalysis       `json:"tongueAnalysis,omitempty"`
	AnalysisSource      Source                `json:"analysisSource,omitempty"`
	QuestionSet         *QuestionSet          `json:"questionSet,omitempty"`
	Answers             []Answer              `json:"answers,omitempty"`
	FinalReport         *FinalReport          `json:"finalReport,omitempty"`
	RecommendedProducts []product.Recommended `json:"recommendedProducts,omitempty"`
	Status              Status                `json:"status"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
}

// Advance moves the session forward. Staying on the same status is allowed.
func (s *Session) Advance(to Status) error {
	next, ok := statusRank[to]
	if !ok {
		return fmt.Errorf("unknown session status %q", to)
	}
	if next < statusRank[s.Status] {
		return fmt.Errorf("%w: %s -> %s", ErrStatusRegression, s.Status, to)
	}
	s.Status = to
	return nil
}

// RecordAnalysis stores the stage-one result exactly once.
func (s *Session) RecordAnalysis(analysis TongueAnalysis, source Source) error {
	if s.TongueAnalysis != nil {
		return ErrAnalysisImmutable
	}
	s.TongueAnalysis = &analysis
	s.AnalysisSource = source
	return s.Advance(StatusAnalyzed)
}

// Clone returns a copy that shares no mutable slices with the receiver.
func (s Session) Clone() Session {
	out := s
	if s.TongueAnalysis != nil {
		analysis := s.TongueAnalysis.clone()
		out.TongueAnalysis = &analysis
	}
	if s.QuestionSet != nil {
		qs := s.QuestionSet.clone()
		out.QuestionSet = &qs
	}
	if s.FinalReport != nil {
		report := s.FinalReport.clone()
		out.FinalReport = &report
	}
	if s.Answers != nil {
		out.Answers = make([]Answer, len(s.Answers))
		for i, a := range s.Answers {
			out.Answers[i] = a.clone()
		}
	}
	if s.RecommendedProducts != nil {
		out.RecommendedProducts = make([]product.Recommended, len(s.RecommendedProducts))
		for i, r := range s.RecommendedProducts {
			out.RecommendedProducts[i] = r.Clone()
		}
	}
	return out
}

// Record 是对外返回的会话快照，不包含原始图片内容。
type Record struct {
	Session
	ImageFingerprint string `json:"imageFingerprint,omitempty"`
	ImageBytes       int    `json:"imageBytes"`
}

// Record builds the public projection of the session.
func (s Session) Record() Record {
	return Record{Session: s.Clone(), ImageBytes: len(s.ImageFingerprint)}
}
