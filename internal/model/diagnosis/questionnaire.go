package diagnosis

import "encoding/json"

// Question 是一道问诊题目。
type Question struct {
	ID          int      `json:"id"`
	Question    string   `json:"question"`
	Explanation string   `json:"explanation,omitempty"`
	Type        string   `json:"type"`
	Options     []string `json:"options,omitempty"`
	Target      string   `json:"target,omitempty"`
	Weight      float64  `json:"weight,omitempty"`
	FollowUp    string   `json:"followUp,omitempty"`
}

// QuestionSet 是第二阶段生成的问诊问卷。
type QuestionSet struct {
	Questions       []Question `json:"questions"`
	EstimatedTime   string     `json:"estimatedTime,omitempty"`
	Purpose         string     `json:"purpose,omitempty"`
	KeyFocus        string     `json:"keyFocus,omitempty"`
	DiagnosticValue string     `json:"diagnosticValue,omitempty"`
}

// Has reports whether the set contains a question with the given id.
func (q QuestionSet) Has(id int) bool {
	for _, question := range q.Questions {
		if question.ID == id {
			return true
		}
	}
	return false
}

func (q QuestionSet) clone() QuestionSet {
	out := q
	if q.Questions != nil {
		out.Questions = make([]Question, len(q.Questions))
		for i, question := range q.Questions {
			question.Options = cloneStrings(question.Options)
			out.Questions[i] = question
		}
	}
	return out
}

// Answer 是用户对某道题的回答。
type Answer struct {
	QuestionID  int    `json:"questionId"`
	Answer      string `json:"answer"`
	AnswerIndex *int   `json:"answerIndex,omitempty"`
}

func (a Answer) clone() Answer {
	if a.AnswerIndex != nil {
		idx := *a.AnswerIndex
		a.AnswerIndex = &idx
	}
	return a
}

// ProductRecommendation 是报告中按类别给出的选品方向。
type ProductRecommendation struct {
	Category string   `json:"category"`
	Reason   string   `json:"reason,omitempty"`
	Keywords []string `json:"keywords"`
	Priority string   `json:"priority,omitempty"`
}

// Recommendations 汇总报告中的调理建议。
type Recommendations struct {
	Lifestyle []string `json:"lifestyle,omitempty"`
	Dietary   []string `json:"dietary,omitempty"`
	Exercise  []string `json:"exercise,omitempty"`
	Emotional []string `json:"emotional,omitempty"`
	FollowUp  string   `json:"followUp,omitempty"`
}

// FinalReport 是第三阶段的综合报告。detailedAnalysis 结构较深，原样保存。
type FinalReport struct {
	FinalScore             float64                 `json:"finalScore"`
	Summary                string                  `json:"summary"`
	DetailedAnalysis       json.RawMessage         `json:"detailedAnalysis,omitempty"`
	Recommendations        Recommendations         `json:"recommendations"`
	ProductRecommendations []ProductRecommendation `json:"productRecommendations,omitempty"`
	RiskLevel              string                  `json:"riskLevel,omitempty"`
	RiskFactors            []string                `json:"riskFactors,omitempty"`
	MedicalAdvice          string                  `json:"medicalAdvice,omitempty"`
	MonitoringPoints       []string                `json:"monitoringPoints,omitempty"`
	ExpectedOutcomes       string                  `json:"expectedOutcomes,omitempty"`
	Contraindications      string                  `json:"contraindications,omitempty"`
}

func (r FinalReport) clone() FinalReport {
	out := r
	if r.DetailedAnalysis != nil {
		out.DetailedAnalysis = append(json.RawMessage(nil), r.DetailedAnalysis...)
	}
	out.Recommendations.Lifestyle = cloneStrings(r.Recommendations.Lifestyle)
	out.Recommendations.Dietary = cloneStrings(r.Recommendations.Dietary)
	out.Recommendations.Exercise = cloneStrings(r.Recommendations.Exercise)
	out.Recommendations.Emotional = cloneStrings(r.Recommendations.Emotional)
	if r.ProductRecommendations != nil {
		out.ProductRecommendations = make([]ProductRecommendation, len(r.ProductRecommendations))
		for i, pr := range r.ProductRecommendations {
			pr.Keywords = cloneStrings(pr.Keywords)
			out.ProductRecommendations[i] = pr
		}
	}
	out.RiskFactors = cloneStrings(r.RiskFactors)
	out.MonitoringPoints = cloneStrings(r.MonitoringPoints)
	return out
}

// cloneStrings keeps nil as nil.
func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}
