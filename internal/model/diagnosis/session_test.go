package diagnosis

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
)

func validAnalysis() TongueAnalysis {
	return TongueAnalysis{
		Score:            80,
		TongueColor:      "淡红",
		TongueShape:      "正常",
		CoatingColor:     "白",
		CoatingThickness: "薄苔",
		Suggestions:      []string{"保持规律作息"},
		Confidence:       90,
	}
}

func TestAdvanceRejectsRegression(t *testing.T) {
	s := Session{Status: StatusQuestioning}

	err := s.Advance(StatusAnalyzed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatusRegression))
	assert.Equal(t, StatusQuestioning, s.Status)

	require.NoError(t, s.Advance(StatusQuestioning))
	require.NoError(t, s.Advance(StatusCompleted))
	assert.Equal(t, StatusCompleted, s.Status)
}

func TestRecordAnalysisIsWriteOnce(t *testing.T) {
	s := Session{Status: StatusCreated}

	require.NoError(t, s.RecordAnalysis(validAnalysis(), SourceFallback))
	assert.Equal(t, StatusAnalyzed, s.Status)
	assert.Equal(t, SourceFallback, s.AnalysisSource)

	err := s.RecordAnalysis(validAnalysis(), SourceModel)
	assert.ErrorIs(t, err, ErrAnalysisImmutable)
	assert.Equal(t, SourceFallback, s.AnalysisSource)
}

func TestValidateAnalysis(t *testing.T) {
	require.NoError(t, validAnalysis().Validate())

	outOfRange := validAnalysis()
	outOfRange.Score = 120
	assert.ErrorIs(t, outOfRange.Validate(), ErrInvalidAnalysis)

	missingColor := validAnalysis()
	missingColor.TongueColor = " "
	assert.ErrorIs(t, missingColor.Validate(), ErrInvalidAnalysis)

	noSuggestions := validAnalysis()
	noSuggestions.Suggestions = nil
	assert.ErrorIs(t, noSuggestions.Validate(), ErrInvalidAnalysis)
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	analysis := validAnalysis()
	s := Session{TongueAnalysis: &analysis, Answers: []Answer{{QuestionID: 1, Answer: "偶尔"}}}

	c := s.Clone()
	c.TongueAnalysis.Suggestions[0] = "changed"
	c.Answers[0].Answer = "changed"

	assert.Equal(t, "保持规律作息", s.TongueAnalysis.Suggestions[0])
	assert.Equal(t, "偶尔", s.Answers[0].Answer)
}

func TestCloneCopiesNestedCollections(t *testing.T) {
	idx := 1
	price := 168.0
	s := Session{
		QuestionSet: &QuestionSet{Questions: []Question{{ID: 1, Options: []string{"从不", "偶尔"}}}},
		Answers:     []Answer{{QuestionID: 1, Answer: "偶尔", AnswerIndex: &idx}},
		FinalReport: &FinalReport{
			DetailedAnalysis:       json.RawMessage(`{"a":1}`),
			Recommendations:        Recommendations{Lifestyle: []string{"早睡"}},
			ProductRecommendations: []ProductRecommendation{{Category: "营养补充", Keywords: []string{"黄芪"}}},
			RiskFactors:            []string{"疲劳"},
		},
		RecommendedProducts: []product.Recommended{{ProductID: 1, Benefits: []string{"补气"}, OriginalPrice: &price}},
	}

	c := s.Clone()
	c.QuestionSet.Questions[0].Options[0] = "changed"
	*c.Answers[0].AnswerIndex = 9
	c.FinalReport.DetailedAnalysis[2] = 'b'
	c.FinalReport.Recommendations.Lifestyle[0] = "changed"
	c.FinalReport.ProductRecommendations[0].Keywords[0] = "changed"
	c.FinalReport.RiskFactors[0] = "changed"
	c.RecommendedProducts[0].Benefits[0] = "changed"
	*c.RecommendedProducts[0].OriginalPrice = 1

	assert.Equal(t, "从不", s.QuestionSet.Questions[0].Options[0])
	assert.Equal(t, 1, *s.Answers[0].AnswerIndex)
	assert.JSONEq(t, `{"a":1}`, string(s.FinalReport.DetailedAnalysis))
	assert.Equal(t, "早睡", s.FinalReport.Recommendations.Lifestyle[0])
	assert.Equal(t, "黄芪", s.FinalReport.ProductRecommendations[0].Keywords[0])
	assert.Equal(t, "疲劳", s.FinalReport.RiskFactors[0])
	assert.Equal(t, "补气", s.RecommendedProducts[0].Benefits[0])
	assert.Equal(t, 168.0, *s.RecommendedProducts[0].OriginalPrice)
}

func TestRecordOmitsImagePayload(t *testing.T) {
	s := Session{ID: "abc", ImageFingerprint: "data:image/png;base64,AAAA", Status: StatusAnalyzed}

	data, err := json.Marshal(s.Record())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotContains(t, decoded, "imageFingerprint")
	assert.Equal(t, float64(len(s.ImageFingerprint)), decoded["imageBytes"])
	assert.Equal(t, "abc", decoded["sessionId"])
}

func TestQuestionSetHas(t *testing.T) {
	qs := QuestionSet{Questions: []Question{{ID: 1}, {ID: 3}}}
	assert.True(t, qs.Has(3))
	assert.False(t, qs.Has(2))
}
