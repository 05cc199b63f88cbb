package shared

// Task types
const (
	TypeReconcileDiscountStatus = "discount:reconcile_status"
)

// Queues
const (
	QueueDiscount = "discount"
	QueueDefault  = "default"
)
