package events

// Topic constants for domain events emitted by the API.
const (
	TopicSaleRegistered   = "sale.registered"
	TopicSaleDeactivated  = "sale.deactivated"
	TopicOrderCreated     = "order.created"
	TopicOrderAdvanced    = "order.advanced"
	TopicOrderDeactivated = "order.deactivated"
	TopicProductChanged   = "product.changed"
)

// DefaultTopics returns every topic the API emits.
func DefaultTopics() []string {
	return []string{
		TopicSaleRegistered,
		TopicSaleDeactivated,
		TopicOrderCreated,
		TopicOrderAdvanced,
		TopicOrderDeactivated,
		TopicProductChanged,
	}
}

// TaskPublish is the asynq task type carrying an Envelope to the broker.
const TaskPublish = "events:publish"

// QueueName is the asynq queue events are enqueued on.
const QueueName = "events"
