package ai

// Prompts 持有三个阶段固定使用的提示词模板。
type Prompts struct {
	Analysis  *Template
	Questions *Template
	Report    *Template
}

const (
	bindingTongueAnalysis       = "tongueAnalysis"
	bindingQuestionnaireResults = "questionnaireResults"
)

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() *Prompts {
	return &Prompts{
		Analysis:  NewTemplate("tongue-analysis", tongueAnalysisPrompt),
		Questions: NewTemplate("generate-questions", generateQuestionsPrompt, bindingTongueAnalysis),
		Report:    NewTemplate("generate-report", generateReportPrompt, bindingTongueAnalysis, bindingQuestionnaireResults),
	}
}

// AnalysisBindings builds the bindings for the questions template.
func AnalysisBindings(analysis any) map[string]any {
	return map[string]any{bindingTongueAnalysis: analysis}
}

// ReportBindings builds the bindings for the report template.
func ReportBindings(analysis, answers any) map[string]any {
	return map[string]any{
		bindingTongueAnalysis:       analysis,
		bindingQuestionnaireResults: answers,
	}
}

const tongueAnalysisPrompt = `你是一位资深中医舌诊专家。请仔细观察这张舌面照片，从以下方面进行分析：
1. 舌质颜色：淡白、淡红、红、深红、紫暗等
2. 舌质形态：瘦小、正常、胖大、齿痕、裂纹等
3. 舌苔颜色：白、黄、灰黑等
4. 舌苔质地：厚薄、润燥、腻腐等

照片只包含舌面，请仅依据可见特征判断，结合中医理论评估脏腑功能、气血津液状况与体质倾向。

只返回如下结构的 JSON，不要输出其他内容：
{
  "score": 0到100的健康评分,
  "tongueColor": "淡白/淡红/红/深红/紫暗",
  "tongueShape": "瘦小/正常/胖大/齿痕/裂纹",
  "coatingColor": "白/黄/灰黑",
  "coatingThickness": "无苔/薄苔/厚苔",
  "coatingMoisture": "润/燥/腻",
  "primaryConcerns": ["用日常用语描述的主要健康问题，例如：消化不好、容易疲劳"],
  "riskAreas": ["不超过4个字的风险点，只能从以下词中选择：消化系统、湿气重、疲劳、情绪、怕冷、失眠、感冒"],
  "organStatus": {
    "spleen": {"status": "正常/虚弱/湿热", "score": 85},
    "liver": {"status": "正常/郁滞/火旺", "score": 80},
    "heart": {"status": "正常/火旺/气虚", "score": 75},
    "lung": {"status": "正常/气虚/燥热", "score": 90},
    "kidney": {"status": "正常/阳虚/阴虚", "score": 70}
  },
  "pathologyPattern": "主要病机，例如：脾虚湿盛",
  "constitutionType": "体质倾向，例如：痰湿质",
  "suggestions": ["具体调理建议，3到5条"],
  "confidence": 80到95之间的数字
}

表达要求：健康问题与风险点必须用普通人能看懂的词，不要使用"湿浊内蕴"、"气血生化不足"之类的术语。`

const generateQuestionsPrompt = `你是一位经验丰富的中医问诊专家。请基于下面的舌诊分析结果，设计3到5个针对性强、层层递进的问诊问题，用于确认舌诊发现的问题。

舌诊分析结果：
{{.tongueAnalysis}}

设计要求：
1. 每题只问一件事，语言通俗，不用术语
2. 选项覆盖从无到重的完整程度
3. 在 explanation 中说明这道题与哪项舌诊发现相关
4. 优先询问最能区分证型的要点：消化、睡眠、情绪、精力、寒热

只返回如下结构的 JSON：
{
  "questions": [
    {
      "id": 1,
      "question": "您最近是否经常感到疲劳乏力？",
      "explanation": "您的舌色偏淡，常提示气血不足，所以想了解精力状况",
      "type": "single_choice",
      "options": ["从不", "偶尔", "经常", "总是"],
      "target": "气血不足",
      "weight": 0.8,
      "followUp": "如果经常疲劳，主要在什么时段？"
    }
  ],
  "estimatedTime": "3-5分钟",
  "purpose": "问诊目的",
  "keyFocus": "重点关注的病机",
  "diagnosticValue": "问诊的诊断价值"
}`

const generateReportPrompt = `你是一位资深中医健康管理专家。请综合下面的舌诊与问诊结果，生成一份个性化健康报告。

舌诊分析：
{{.tongueAnalysis}}

问诊结果：
{{.questionnaireResults}}

只返回如下结构的 JSON：
{
  "finalScore": 0到100的综合评分,
  "summary": "150字以内的综合评估",
  "detailedAnalysis": {
    "tongueFindings": {"description": "舌诊发现", "significance": "临床意义", "keyPoints": ["关键发现"]},
    "questionnaireInsights": {"keyFindings": ["问诊发现"], "correlations": "与舌诊的印证", "symptomPattern": "症状模式"},
    "systemAssessment": {
      "消化功能": {"score": 85, "status": "良好", "notes": "说明"},
      "睡眠质量": {"score": 70, "status": "需关注", "notes": "说明"}
    },
    "pathologyAnalysis": {"primaryPattern": "主要病机", "secondaryPattern": "次要病机", "constitutionType": "体质类型"}
  },
  "recommendations": {
    "lifestyle": ["生活方式建议"],
    "dietary": ["饮食建议"],
    "exercise": ["运动建议"],
    "emotional": ["情绪调节建议"],
    "followUp": "后续关注重点"
  },
  "productRecommendations": [
    {"category": "营养补充", "reason": "推荐理由", "keywords": ["补气血", "黄芪"], "priority": "high"}
  ],
  "riskLevel": "low/medium/high",
  "riskFactors": ["用简单词汇描述的风险因素"],
  "medicalAdvice": "是否建议就医及原因",
  "monitoringPoints": ["需要关注的指标"],
  "expectedOutcomes": "预期改善效果和时间",
  "contraindications": "注意事项和禁忌"
}

productRecommendations 中的 keywords 只能从下列词中选择，否则无法匹配商品：
补气血、维生素B、补气、气血不足、气血两虚、贫血、疲劳、抗疲劳、体虚、增强免疫、黄芪、党参、灵芝、大枣、甘草、山楂、陈皮、茯苓、白术、健脾、健脾胃、脾虚、湿气、理气、疏肝、肝郁、肝郁气滞、肝火旺、柴胡、安神、助眠、失眠、心神不宁、酸枣仁、小麦、百合、莲子、清热、降火、菊花、决明子、夏枯草、金银花、心烦、情绪、润燥、滋阴、银耳、雪梨、养胃、猴头菇、胃炎、消化不良、咳嗽、咽喉肿痛、头痛、目赤、月经不调、玫瑰花、干燥

表达要求：建议要具体可行；风险描述用日常用语，例如用"消化功能不好"代替"脾胃运化失常"。`
