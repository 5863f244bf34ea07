package routing

// OrderItemRouting links an order item to one catalog step at a 1-based
// sequence position. An item never references the same step twice and
// never reuses a position.
type OrderItemRouting struct {
	ID          uint `gorm:"column:id;primaryKey;autoIncrement" json:"id,omitempty"`
	OrderItemID uint `gorm:"column:order_item_id;not null;uniqueIndex:idx_item_routing_step;uniqueIndex:idx_item_routing_no" json:"order_item_id"`
	RoutingID   uint `gorm:"column:routing_id;not null;uniqueIndex:idx_item_routing_step;index" json:"routing_id"`
	ProcessNo   int  `gorm:"column:process_no;not null;uniqueIndex:idx_item_routing_no" json:"process_no"`
}

func (OrderItemRouting) TableName() string {
	return "order_item_routing"
}
