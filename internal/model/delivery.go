package model

// DeliveryStatus は配達の進行状態を表す。
type DeliveryStatus string

const (
	// DeliveryAssigned はドライバーに割り当て済みであることを示す。
	DeliveryAssigned DeliveryStatus = "assigned"
	// DeliveryPickedUp は集荷済みであることを示す。
	DeliveryPickedUp DeliveryStatus = "picked_up"
	// DeliveryDelivered は配達完了を示す。
	DeliveryDelivered DeliveryStatus = "delivered"
)

// Valid はstatusが定義済みの値かどうかを返す。
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryAssigned, DeliveryPickedUp, DeliveryDelivered:
		return true
	}
	return false
}

// Delivery はドライバーに割り当てられた配達1件を表す。
type Delivery struct {
	ID           string         `json:"id"`
	OrderID      string         `json:"order_id"`
	CustomerName string         `json:"customer_name"`
	Address      string         `json:"address"`
	MealType     MealType       `json:"meal_type"`
	Status       DeliveryStatus `json:"status"`
}
