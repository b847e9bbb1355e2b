package diagnosis

import (
	"errors"
	"fmt"
	"strings"
)

// OrganState 描述单个脏腑的状态评估。
type OrganState struct {
	Status string  `json:"status"`
	Score  float64 `json:"score"`
}

// TongueAnalysis 是舌诊阶段的结构化结果，后续阶段原样消费。
type TongueAnalysis struct {
	Score            float64               `json:"score"`
	TongueColor      string                `json:"tongueColor"`
	TongueShape      string                `json:"tongueShape"`
	CoatingColor     string                `json:"coatingColor"`
	CoatingThickness string                `json:"coatingThickness"`
	CoatingMoisture  string                `json:"coatingMoisture,omitempty"`
	PrimaryConcerns  []string              `json:"primaryConcerns,omitempty"`
	RiskAreas        []string              `json:"riskAreas,omitempty"`
	OrganStatus      map[string]OrganState `json:"organStatus,omitempty"`
	PathologyPattern string                `json:"pathologyPattern,omitempty"`
	ConstitutionType string                `json:"constitutionType,omitempty"`
	Suggestions      []string              `json:"suggestions"`
	Confidence       float64               `json:"confidence"`
	AnalysisTime     string                `json:"analysisTime,omitempty"`
}

// ErrInvalidAnalysis marks a stage-one result missing required attributes.
var ErrInvalidAnalysis = errors.New("invalid tongue analysis")

// Validate checks the fields every downstream stage relies on.
func (a TongueAnalysis) Validate() error {
	if a.Score < 0 || a.Score > 100 {
		return fmt.Errorf("%w: score %v out of range", ErrInvalidAnalysis, a.Score)
	}
	required := map[string]string{
		"tongueColor":      a.TongueColor,
		"tongueShape":      a.TongueShape,
		"coatingColor":     a.CoatingColor,
		"coatingThickness": a.CoatingThickness,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidAnalysis, name)
		}
	}
	if len(a.Suggestions) == 0 {
		return fmt.Errorf("%w: suggestions are empty", ErrInvalidAnalysis)
	}
	return nil
}

func (a TongueAnalysis) clone() TongueAnalysis {
	out := a
	out.PrimaryConcerns = cloneStrings(a.PrimaryConcerns)
	out.RiskAreas = cloneStrings(a.RiskAreas)
	out.Suggestions = cloneStrings(a.Suggestions)
	if a.OrganStatus != nil {
		out.OrganStatus = make(map[string]OrganState, len(a.OrganStatus))
		for k, v := range a.OrganStatus {
			out.OrganStatus[k] = v
		}
	}
	return out
}
