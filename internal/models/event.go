package models

import "time"

const (
	EventImageUploaded = "image_uploaded"
	EventImageDeleted  = "image_deleted"
)

type ImageEvent struct {
	EventType string    `json:"event_type" example:"image_uploaded"`
	Hash      string    `json:"hash"`
	EventTime time.Time `json:"event_time"`
}
