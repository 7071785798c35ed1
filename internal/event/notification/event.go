package notification

const (
	// EventName 默认的通知事件 topic
	EventName = "notifications"
	// DeadLetterEventName 重试耗尽的通知的去处，按配置开关启用
	DeadLetterEventName = "notifications_dead_letter"
)
