package usage

import "time"

// Event is one successful image generation. Events are append-only.
type Event struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"userId" bson:"user_id"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
	Prompt      string    `json:"prompt" bson:"prompt"`
	CostPerUnit float64   `json:"cost" bson:"cost_per_unit"`
	Plan        string    `json:"plan" bson:"plan"`
	Size        string    `json:"size" bson:"size"`
	AspectRatio string    `json:"aspectRatio" bson:"aspect_ratio"`
	Style       string    `json:"style" bson:"style"`
	ImageID     string    `json:"imageId" bson:"image_id"`
}
