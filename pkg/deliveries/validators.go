package deliveries

type ListDeliveriesQuery struct {
	UserID *int64  `query:"user_id" json:"user_id,omitempty" validate:"omitempty,min=1"`
	Status *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=sent failed rejected"`
	Limit  int     `query:"limit" json:"limit,omitempty" default:"20" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
}
