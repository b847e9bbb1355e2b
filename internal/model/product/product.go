package product

import "context"

// Product 描述商品目录中的一条记录，推荐流程只读不写。
type Product struct {
	ID            int64    `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Category      string   `json:"category" yaml:"category"`
	Subcategory   string   `json:"subcategory,omitempty" yaml:"subcategory"`
	Keywords      []string `json:"keywords" yaml:"keywords"`
	Description   string   `json:"description" yaml:"description"`
	Benefits      []string `json:"benefits,omitempty" yaml:"benefits"`
	Price         float64  `json:"price" yaml:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty" yaml:"originalPrice"`
	ImageURL      string   `json:"imageUrl,omitempty" yaml:"imageUrl"`
	Brand         string   `json:"brand,omitempty" yaml:"brand"`
	Rating        float64  `json:"rating" yaml:"rating"`
	ReviewCount   int      `json:"reviewCount" yaml:"reviewCount"`
	// MatchScore 仅在关键词检索结果中填充。
	MatchScore int `json:"matchScore,omitempty" yaml:"-"`
}

// Category 汇总某个分类下的商品数量。
type Category struct {
	Name  string `json:"category"`
	Count int    `json:"count"`
}

// ListOptions 控制分页列表查询。
type ListOptions struct {
	Category string
	Limit    int
	Offset   int
}

// Recommended 是写入会话的推荐商品视图。
type Recommended struct {
	ProductID     int64    `json:"productId"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	Benefits      []string `json:"benefits,omitempty"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	Rating        float64  `json:"rating"`
	MatchScore    int      `json:"matchScore"`
	Justification string   `json:"justification"`
}

// Recommend 基于商品生成推荐视图。
func (p Product) Recommend(justification string) Recommended {
	return Recommended{
		ProductID:     p.ID,
		Name:          p.Name,
		Category:      p.Category,
		Description:   p.Description,
		Benefits:      append([]string(nil), p.Benefits...),
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		ImageURL:      p.ImageURL,
		Brand:         p.Brand,
		Rating:        p.Rating,
		MatchScore:    p.MatchScore,
		Justification: justification,
	}
}

// Clone returns a copy sharing no slices or pointers with r.
func (r Recommended) Clone() Recommended {
	if r.Benefits != nil {
		r.Benefits = append([]string{}, r.Benefits...)
	}
	if r.OriginalPrice != nil {
		price := *r.OriginalPrice
		r.OriginalPrice = &price
	}
	return r
}

// Store 是商品目录的只读访问接口。
type Store interface {
	SearchProducts(ctx context.Context, keywords []string, limit int) ([]Product, error)
	ListProducts(ctx context.Context, opts ListOptions) ([]Product, int, error)
	GetProduct(ctx context.Context, id int64) (Product, bool, error)
	Categories(ctx context.Context) ([]Category, error)
}

// Pinger 由能探测后端连通性的目录实现。
type Pinger interface {
	Ping(ctx context.Context) error
}
