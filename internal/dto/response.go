package dto

// UserBrief 嵌入在项目、申请、成员、任务、付款响应中的用户摘要
type UserBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageQuery 列表接口的分页参数，缺省为第 1 页、每页 20 条
type PageQuery struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Normalize 返回补齐默认值并截断上限后的页码与每页数量
func (q PageQuery) Normalize() (page, size int) {
	page, size = q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	switch {
	case size < 1:
		size = defaultPageSize
	case size > maxPageSize:
		size = maxPageSize
	}
	return page, size
}

// Offset 数据库查询偏移量
func (q PageQuery) Offset() int {
	page, size := q.Normalize()
	return (page - 1) * size
}

// PageResponse 分页列表响应
type PageResponse[T any] struct {
	List       []T   `json:"list"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPageResponse 按查询参数组装分页响应，list 为 nil 时输出空数组
func NewPageResponse[T any](list []T, total int64, q PageQuery) *PageResponse[T] {
	page, size := q.Normalize()
	if list == nil {
		list = []T{}
	}
	return &PageResponse[T]{
		List:       list,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}
}
