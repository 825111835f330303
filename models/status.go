package models

type PublishStatus string

const (
	StatusDraft     PublishStatus = "DRAFT"
	StatusPublished PublishStatus = "PUBLISHED"
)

func (s PublishStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}
