package tongue

const (
	Pale       = "淡白"
	PaleRed    = "淡红"
	Red        = "红"
	DeepRed    = "深红"
	DarkPurple = "紫暗"

	Thin      = "瘦小"
	Normal    = "正常"
	Swollen   = "胖大"
	Scalloped = "齿痕"

	White     = "白"
	Yellow    = "黄"
	GreyBlack = "灰黑"

	NoCoating    = "无苔"
	ThinCoating  = "薄苔"
	ThickCoating = "厚苔"
)

var tongueColors = []weighted{
	{Pale, 15},
	{PaleRed, 50},
	{Red, 25},
	{DeepRed, 8},
	{DarkPurple, 2},
}

var tongueShapes = []weighted{
	{Thin, 20},
	{Normal, 50},
	{Swollen, 25},
	{Scalloped, 5},
}

var coatingColors = []weighted{
	{White, 60},
	{Yellow, 30},
	{GreyBlack, 10},
}

var coatingThicknesses = []weighted{
	{NoCoating, 5},
	{ThinCoating, 70},
	{ThickCoating, 25},
}

var scoreDeltas = map[string]float64{
	Pale:       -15,
	Red:        -8,
	DeepRed:    -20,
	DarkPurple: -25,

	Thin:      -10,
	Swollen:   -12,
	Scalloped: -15,

	Yellow:    -8,
	GreyBlack: -18,

	NoCoating:    -12,
	ThickCoating: -10,
}

var baselineSuggestions = []string{
	"保持规律作息，确保充足睡眠",
	"多喝温开水，保持身体水分充足",
}

var colorSuggestions = map[string][]string{
	Pale:       {"适当增加营养摄入，多食用温热性食物", "注意保暖，避免受寒"},
	Red:        {"清淡饮食，减少辛辣刺激性食物", "多吃新鲜蔬菜水果，降火清热"},
	DeepRed:    {"清淡饮食，减少辛辣刺激性食物", "多吃新鲜蔬菜水果，降火清热"},
	DarkPurple: {"加强运动锻炼，促进血液循环", "避免久坐不动，定时活动身体"},
}

var shapeSuggestions = map[string][]string{
	Thin:      {"注意营养均衡，适量增加蛋白质摄入"},
	Swollen:   {"控制饮食量，避免暴饮暴食", "减少湿寒食物，如生冷瓜果"},
	Scalloped: {"控制饮食量，避免暴饮暴食", "减少湿寒食物，如生冷瓜果"},
}

var coatingSuggestions = map[string][]string{
	Yellow:    {"减少油腻食物，多食清热解毒的食物"},
	GreyBlack: {"建议及时就医检查，注意身体变化"},
}

var thicknessSuggestions = map[string][]string{
	ThickCoating: {"注意消化健康，少食多餐"},
	NoCoating:    {"适当滋阴润燥，多食用养胃食物"},
}

const consultSuggestion = "建议咨询中医师，进行专业调理"
