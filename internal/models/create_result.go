package models

// CreateResult tells a caller whether a create call inserted a row or lost
// a uniqueness race against an existing one.
type CreateResult int

const (
	CreateResultCreated CreateResult = iota + 1
	CreateResultAlreadyExists
)

func (r CreateResult) String() string {
	switch r {
	case CreateResultCreated:
		return "created"
	case CreateResultAlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}
