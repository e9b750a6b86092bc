package models

import "time"

// ImageKey addresses a single image record. The same content hash owned
// by two users is two different keys.
type ImageKey struct {
	Hash  string
	Owner string
}

type Image struct {
	Hash       string    `json:"hash" db:"hash"`
	Extension  string    `json:"extension" db:"extension"`
	Owner      string    `json:"owner" db:"owner"`
	ImageName  *string   `json:"image_name" db:"image_name"`
	Longitude  *float64  `json:"longitude" db:"longitude"`
	Latitude   *float64  `json:"latitude" db:"latitude"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	ModifiedAt time.Time `json:"modified_at" db:"modified_at"`
}

func (i *Image) Key() ImageKey {
	return ImageKey{Hash: i.Hash, Owner: i.Owner}
}
