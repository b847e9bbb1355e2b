package recommend

var colorKeywords = map[string][]string{
	"淡白": {"补气血", "气血不足", "补气", "体虚", "疲劳"},
	"红":  {"清热", "降火", "肝火旺"},
	"深红": {"清热", "降火", "滋阴"},
	"紫暗": {"补气血", "气血不足", "气血两虚"},
}

var coatingKeywords = map[string][]string{
	"黄": {"清热", "湿气"},
}

var thicknessKeywords = map[string][]string{
	"厚苔": {"健脾胃", "健脾", "脾虚"},
	"无苔": {"滋阴", "润燥"},
}

// shapeKeywords match by substring, since model output often combines
// shapes such as "胖大有齿痕".
var shapeKeywords = []struct {
	marker   string
	keywords []string
}{
	{"齿痕", []string{"健脾", "健脾胃", "脾虚"}},
}

// riskKeywords covers both the clinical pattern names and the plain-language
// labels the analysis prompt asks the model to use instead.
var riskKeywords = map[string][]string{
	"脾胃虚弱": {"健脾", "健脾胃", "脾虚"},
	"湿热内蕴": {"清热", "湿气"},
	"气血不足": {"补气血", "气血不足", "补气"},
	"肝郁气滞": {"疏肝", "肝郁", "理气"},
	"肾阳不足": {"补气", "增强免疫"},
	"心火亢盛": {"清热", "降火", "安神"},
	"肺气虚弱": {"补气", "润燥"},

	"消化系统": {"健脾", "健脾胃", "脾虚"},
	"湿气重":  {"清热", "湿气"},
	"疲劳":   {"补气血", "气血不足", "补气"},
	"情绪":   {"疏肝", "肝郁", "理气"},
	"怕冷":   {"补气", "增强免疫"},
	"失眠":   {"清热", "降火", "安神"},
	"感冒":   {"补气", "润燥"},
}

type justificationRule struct {
	matches func(ctx ruleContext) bool
	text    string
}

type ruleContext struct {
	tongueColor  string
	coatingColor string
	score        float64
	keywords     map[string]struct{}
}

func (c ruleContext) has(keyword string) bool {
	_, ok := c.keywords[keyword]
	return ok
}

// justificationRules are evaluated in order; the first match wins.
var justificationRules = []justificationRule{
	{
		matches: func(c ruleContext) bool { return c.tongueColor == "淡白" && c.has("补气血") },
		text:    "您的舌质偏淡白，适合补气血类产品",
	},
	{
		matches: func(c ruleContext) bool { return c.coatingColor == "黄" && c.has("清热") },
		text:    "您的舌苔偏黄，适合清热类产品",
	},
	{
		matches: func(c ruleContext) bool { return c.score < 80 && c.has("增强免疫") },
		text:    "建议适当增强体质",
	},
}

const noAnalysisJustification = "基于健康分析推荐"
