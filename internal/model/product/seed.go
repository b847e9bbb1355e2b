package product

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed provides the default catalog used when no external catalog is configured.
func Seed() []Product {
	return []Product{
		{
			ID: 1, Name: "阿胶红枣补气血膏", Category: "营养补充", Subcategory: "膏方",
			Keywords:    []string{"补气血", "气血不足", "气血两虚", "贫血", "大枣"},
			Description: "阿胶与红枣熬制，适合面色偏白、容易疲劳的人群日常调养。",
			Benefits:    []string{"补血养颜", "改善疲劳"},
			Price:       128, OriginalPrice: ptr(168), Brand: "东阿堂", Rating: 4.7, ReviewCount: 2310,
		},
		{
			ID: 2, Name: "黄芪党参精华口服液", Category: "营养补充", Subcategory: "口服液",
			Keywords:    []string{"补气", "黄芪", "党参", "体虚", "增强免疫", "抗疲劳"},
			Description: "黄芪、党参萃取，帮助改善气短乏力。",
			Benefits:    []string{"补中益气", "增强体质"},
			Price:       98, Brand: "本草源", Rating: 4.5, ReviewCount: 860,
		},
		{
			ID: 3, Name: "复合维生素B片", Category: "营养补充", Subcategory: "片剂",
			Keywords:    []string{"维生素B", "疲劳", "抗疲劳", "补气血"},
			Description: "B族维生素组合，适合作息不规律、精力不足人群。",
			Benefits:    []string{"缓解疲劳", "维持能量代谢"},
			Price:       59, OriginalPrice: ptr(79), Brand: "康维", Rating: 4.4, ReviewCount: 5120,
		},
		{
			ID: 4, Name: "山楂陈皮茯苓茶", Category: "调理茶饮", Subcategory: "代用茶",
			Keywords:    []string{"山楂", "陈皮", "茯苓", "健脾", "消化不良", "湿气"},
			Description: "饭后一杯，帮助消食化积，减轻腹胀。",
			Benefits:    []string{"健脾消食", "祛湿"},
			Price:       39, Brand: "茶小医", Rating: 4.6, ReviewCount: 3400,
		},
		{
			ID: 5, Name: "白术茯苓健脾丸", Category: "中医调理", Subcategory: "丸剂",
			Keywords:    []string{"健脾", "健脾胃", "脾虚", "白术", "茯苓", "湿气"},
			Description: "经典健脾配方，适合舌体胖大、有齿痕、大便不成形的人群。",
			Benefits:    []string{"健脾益气", "化湿止泻"},
			Price:       68, Brand: "同济堂", Rating: 4.6, ReviewCount: 1280,
		},
		{
			ID: 6, Name: "猴头菇养胃饼干", Category: "功能食品", Subcategory: "零食",
			Keywords:    []string{"养胃", "猴头菇", "胃炎", "健脾胃"},
			Description: "猴头菇粉添加，作为日常加餐温和养胃。",
			Benefits:    []string{"养护胃黏膜"},
			Price:       45, OriginalPrice: ptr(59), Brand: "谷物坊", Rating: 4.3, ReviewCount: 9800,
		},
		{
			ID: 7, Name: "菊花决明子清火茶", Category: "调理茶饮", Subcategory: "代用茶",
			Keywords:    []string{"清热", "降火", "菊花", "决明子", "目赤", "肝火旺"},
			Description: "菊花与决明子搭配，适合口干口苦、眼睛干涩的人群。",
			Benefits:    []string{"清肝明目", "清热降火"},
			Price:       36, Brand: "茶小医", Rating: 4.5, ReviewCount: 2650,
		},
		{
			ID: 8, Name: "金银花夏枯草饮", Category: "调理茶饮", Subcategory: "饮品",
			Keywords:    []string{"清热", "金银花", "夏枯草", "咽喉肿痛", "湿气"},
			Description: "清热解毒，适合舌苔偏黄、咽喉不适时饮用。",
			Benefits:    []string{"清热解毒", "利咽"},
			Price:       42, Brand: "本草源", Rating: 4.2, ReviewCount: 730,
		},
		{
			ID: 9, Name: "酸枣仁百合安神膏", Category: "中医调理", Subcategory: "膏方",
			Keywords:    []string{"安神", "助眠", "失眠", "酸枣仁", "百合", "心神不宁", "心烦"},
			Description: "睡前服用，帮助改善入睡困难、多梦易醒。",
			Benefits:    []string{"养心安神", "改善睡眠"},
			Price:       118, OriginalPrice: ptr(148), Brand: "同济堂", Rating: 4.6, ReviewCount: 1900,
		},
		{
			ID: 10, Name: "柴胡玫瑰疏肝茶", Category: "调理茶饮", Subcategory: "代用茶",
			Keywords:    []string{"疏肝", "肝郁", "肝郁气滞", "理气", "柴胡", "玫瑰花", "情绪", "月经不调"},
			Description: "玫瑰花与柴胡配伍，适合情绪紧张、胸胁胀闷的人群。",
			Benefits:    []string{"疏肝理气", "舒缓情绪"},
			Price:       49, Brand: "花间集", Rating: 4.4, ReviewCount: 1560,
		},
		{
			ID: 11, Name: "银耳雪梨羹", Category: "功能食品", Subcategory: "即食",
			Keywords:    []string{"滋阴", "润燥", "银耳", "雪梨", "干燥", "咳嗽"},
			Description: "冻干即食银耳羹，秋冬干燥季节润肺生津。",
			Benefits:    []string{"滋阴润肺", "补水润燥"},
			Price:       52, Brand: "谷物坊", Rating: 4.5, ReviewCount: 4200,
		},
		{
			ID: 12, Name: "莲子小麦甘草饮", Category: "功能食品", Subcategory: "冲饮",
			Keywords:    []string{"莲子", "小麦", "甘草", "安神", "心烦", "情绪"},
			Description: "甘麦大枣汤思路调配，缓解心烦易躁。",
			Benefits:    []string{"宁心除烦"},
			Price:       46, Brand: "本草源", Rating: 4.1, ReviewCount: 520,
		},
		{
			ID: 13, Name: "灵芝孢子粉胶囊", Category: "营养补充", Subcategory: "胶囊",
			Keywords:    []string{"灵芝", "增强免疫", "体虚", "抗疲劳"},
			Description: "破壁灵芝孢子粉，适合体质虚弱、容易感冒的人群。",
			Benefits:    []string{"增强免疫", "扶正固本"},
			Price:       268, OriginalPrice: ptr(328), Brand: "仙芝堂", Rating: 4.8, ReviewCount: 980,
		},
		{
			ID: 14, Name: "天麻川芎舒缓贴", Category: "外用调理", Subcategory: "贴剂",
			Keywords:    []string{"头痛", "理气"},
			Description: "外贴太阳穴，缓解紧张性头痛。",
			Benefits:    []string{"舒缓头部紧张"},
			Price:       29, Brand: "康维", Rating: 4.0, ReviewCount: 310,
		},
	}
}

// LoadFile reads a YAML catalog of the form `products: [...]`.
func LoadFile(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var doc struct {
		Products []Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	if len(doc.Products) == 0 {
		return nil, fmt.Errorf("catalog file %s has no products", path)
	}
	return doc.Products, nil
}

func ptr(v float64) *float64 {
	return &v
}
