package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// StoredDoc represents a stored document in the database
type StoredDoc struct {
	// Id is the full path of the document, "<collection>/<docID>"
	Id string `json:"id" bson:"_id"`

	// Collection is the parent collection name
	Collection string `json:"collection" bson:"collection"`

	// UpdatedAt is the timestamp of the last update (Unix milliseconds)
	UpdatedAt int64 `json:"updatedAt" bson:"updated_at"`

	// CreatedAt is the timestamp of the creation (Unix milliseconds)
	CreatedAt int64 `json:"createdAt" bson:"created_at"`

	// Version increments on every write
	Version int64 `json:"version" bson:"version"`

	// Data is the actual content of the document
	Data map[string]interface{} `json:"data" bson:"data"`
}

// DocumentID returns the key of the document within its collection.
func (d *StoredDoc) DocumentID() string {
	_, id, _ := SplitPath(d.Id)
	return id
}

// NewStoredDoc builds a document for path with fresh timestamps.
func NewStoredDoc(path string, data map[string]interface{}) StoredDoc {
	collection, _, _ := SplitPath(path)
	now := time.Now().UnixMilli()
	return StoredDoc{
		Id:         path,
		Collection: collection,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
		Data:       data,
	}
}

// User is an authentication account.
type User struct {
	ID           string                 `json:"id" bson:"_id"`
	Email        string                 `json:"email" bson:"email"`
	PasswordHash string                 `json:"-" bson:"password_hash"`
	PasswordAlgo string                 `json:"-" bson:"password_algo"` // "argon2id" or "bcrypt"
	Disabled     bool                   `json:"disabled" bson:"disabled"`
	Claims       map[string]interface{} `json:"claims,omitempty" bson:"claims,omitempty"`
	CreatedAt    time.Time              `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time              `json:"updatedAt" bson:"updated_at"`
}

// WatchOptions defines options for watching changes
type WatchOptions struct {
	IncludeBefore bool
}

// DocumentStore defines the interface for document storage operations
type DocumentStore interface {
	// Get retrieves a document by its path
	Get(ctx context.Context, path string) (*StoredDoc, error)

	// Create inserts a new document. Fails with model.ErrExists if it already exists.
	Create(ctx context.Context, path string, data map[string]interface{}) error

	// Set replaces the data of a document, creating it if needed.
	Set(ctx context.Context, path string, data map[string]interface{}) error

	// Delete removes a document by its path
	Delete(ctx context.Context, path string) error

	// Query executes a query against one collection
	Query(ctx context.Context, q Query) ([]*StoredDoc, error)

	// Watch returns a channel of change events for the given collections.
	// resumeToken can be nil to start from now.
	Watch(ctx context.Context, collections []string, resumeToken interface{}, opts WatchOptions) (<-chan Event, error)

	// Close closes the connection to the backend
	Close(ctx context.Context) error
}

// UserStore defines the interface for authentication account storage
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	SetCustomClaims(ctx context.Context, id string, claims map[string]interface{}) error
	DeleteUser(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
	Close(ctx context.Context) error
}

// EventType represents the type of change
type EventType string

const (
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event represents a database change event
type Event struct {
	// Id is the full path of the changed document
	Id          string      `json:"id"`
	Type        EventType   `json:"type"`
	Document    *StoredDoc  `json:"document,omitempty"` // Nil for delete
	Before      *StoredDoc  `json:"before,omitempty"`   // Previous state, if available
	Timestamp   int64       `json:"timestamp"`
	ResumeToken interface{} `json:"-"` // Opaque token for resuming watch
}
