package service

// Realtime event types pushed to connected clients after a commit.
const (
	EventStockUpdate         = "stock_update"
	EventDispatchCreated     = "dispatch_created"
	EventInventoryReconciled = "inventory_reconciled"
	EventChatMessage         = "chat_message"
)

// EventPublisher fans an event out to realtime subscribers. Implementations
// must not block the caller.
type EventPublisher interface {
	Publish(eventType string, payload interface{})
}

func publish(p EventPublisher, eventType string, payload interface{}) {
	if p == nil {
		return
	}
	p.Publish(eventType, payload)
}
