package enums

const (
	NOTIFICATION_TITLE_NEW_CONVERSATION = "New Conversation"
	NOTIFICATION_TITLE_NEW_MESSAGE      = "New Message"
)

const (
	TASK_TYPE_CREATE_NOTIFICATION = "notification:create"
)
