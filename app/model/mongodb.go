package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Complaint is one document in the MongoDB collection "complaints".
// ReportedBy, AssignedTo and Note.AddedBy hold users.id (UUID string) from Postgres.
type Complaint struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title               string             `bson:"title" json:"title"`
	Description         string             `bson:"description" json:"description"`
	Category            Category           `bson:"category" json:"category"`
	Priority            Priority           `bson:"priority" json:"priority"`
	Status              Status             `bson:"status" json:"status"`
	Location            Location           `bson:"location" json:"location"`
	ReportedBy          string             `bson:"reportedBy" json:"reportedBy"`
	AssignedTo          string             `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Images              Images             `bson:"images" json:"images"`
	EstimatedCompletion *time.Time         `bson:"estimatedCompletion,omitempty" json:"estimatedCompletion,omitempty"`
	ActualCompletion    *time.Time         `bson:"actualCompletion,omitempty" json:"actualCompletion,omitempty"`
	Notes               []Note             `bson:"notes" json:"notes"`
	IsResolved          bool               `bson:"isResolved" json:"isResolved"`
	ResolutionNotes     string             `bson:"resolutionNotes,omitempty" json:"resolutionNotes,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Location is embedded in the complaint, not a separate collection.
type Location struct {
	Building string `bson:"building" json:"building"`
	Room     string `bson:"room" json:"room"`
	Floor    string `bson:"floor,omitempty" json:"floor,omitempty"`
	QRCode   string `bson:"qrCode,omitempty" json:"qrCode,omitempty"`
}

// Images keeps photos taken when reporting (Before) and after the fix (After).
type Images struct {
	Before []Image `bson:"before" json:"before"`
	After  []Image `bson:"after" json:"after"`
}

// Image is one stored photo. Path is what clients fetch; Filename is
// the generated name under the store.
type Image struct {
	Filename   string    `bson:"filename" json:"filename"`
	Path       string    `bson:"path" json:"path"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

// Note is an append-only annotation on a complaint.
type Note struct {
	Content string    `bson:"content" json:"content"`
	AddedBy string    `bson:"addedBy" json:"addedBy"`
	AddedAt time.Time `bson:"addedAt" json:"addedAt"`
}
