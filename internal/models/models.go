// package models defines the data model for the mpx music player client
package models

import (
	"time"
)

// Model defines the base interface for all locally persisted models.
// Implementations include CachedSong.
type Model interface {
	ID() string          // ID returns the unique identifier for this model
	SyncedAt() time.Time // SyncedAt returns when this model was last written from the API
	Validate() error     // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for local cache access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Upsert(model T) error                       // Upsert inserts the model or overwrites an existing row with the same ID
	Get(id string) (T, error)                   // Get retrieves a model by its ID
	Delete(id string) error                     // Delete removes a model from the cache by its ID
	List(criteria map[string]any) ([]T, error)  // List retrieves all models matching the given criteria
	Count(criteria map[string]any) (int, error) // Count returns the number of models matching the given criteria
}
