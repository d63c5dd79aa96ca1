package multires

import (
	"time"

	"multires/internal/database"
	"multires/internal/storage"
)

// Service coordinates the database, file storage and render engine. All
// variant lookups and renders go through it.
type Service struct {
	db         *database.Database
	files      *storage.FileStorage
	renderWait time.Duration
}

// NewService builds a Service. renderWait bounds how long a request will
// wait for a render claimed by another request before giving up.
func NewService(db *database.Database, files *storage.FileStorage, renderWait time.Duration) *Service {
	if renderWait <= 0 {
		renderWait = 30 * time.Second
	}
	return &Service{
		db:         db,
		files:      files,
		renderWait: renderWait,
	}
}

// DB exposes the underlying database for callers that need direct access,
// such as the admin API handlers.
func (s *Service) DB() *database.Database {
	return s.db
}

// Files exposes the underlying file storage.
func (s *Service) Files() *storage.FileStorage {
	return s.files
}

// Field scopes the service to one source image in one recipe namespace.
func (s *Service) Field(namespace, source string) *Field {
	return &Field{
		svc:       s,
		namespace: namespace,
		source:    source,
	}
}

// Resolver returns a URL resolver for the given public media prefix. The
// resolver is a pure value and safe to share between goroutines.
func (s *Service) Resolver(mediaURL string) *Resolver {
	return &Resolver{mediaURL: mediaURL}
}
