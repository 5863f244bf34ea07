package routing

// Routing is one catalog process step. ProcessCode is unique across the
// catalog; ProcessTime is the informational duration in minutes.
type Routing struct {
	RoutingID   uint   `gorm:"column:routing_id;primaryKey;autoIncrement" json:"routing_id,omitempty"`
	ProcessCode string `gorm:"column:process_code;type:varchar(255);not null;uniqueIndex:idx_routing_process_code" json:"process_code"`
	ProcessName string `gorm:"column:process_name;type:varchar(255);not null" json:"process_name"`
	ProcessTime int    `gorm:"column:process_time;not null" json:"process_time"`
	Note        string `gorm:"column:note;type:varchar(255)" json:"note,omitempty"`
}

func (Routing) TableName() string {
	return "routing"
}
