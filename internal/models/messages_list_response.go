package models

type MessagePage struct {
	Messages []Message
	Total    int64
}
