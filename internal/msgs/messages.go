package msgs

const (
	MsgOperationSuccessful     = "Operation successful"
	MsgOperationFailed         = "Operation failed"
	MsgYouMustLoginFirst       = "You must login first"
	MsgConversationReady       = "Conversation ready"
	MsgMessageSent             = "Message sent"
	MsgNotificationsMarkedRead = "Notifications marked as read"
)
