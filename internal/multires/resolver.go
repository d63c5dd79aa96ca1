package multires

import (
	"net/url"
	"strings"

	"multires/internal/database"
)

// Resolver turns variants into URLs. It is pure: no database reads, no
// filesystem checks, just a branch on the variant's recorded status. That
// makes URL generation in templates and API responses free even for pages
// listing hundreds of images.
type Resolver struct {
	mediaURL string
}

// NewResolver builds a resolver for the given public media prefix.
func NewResolver(mediaURL string) *Resolver {
	return &Resolver{mediaURL: mediaURL}
}

// URL returns the address a client should fetch for the variant. Processed
// variants point straight at the derived file under the media prefix, which
// any static file server or CDN can serve. Anything else points at the
// processing endpoint, which renders on first access and redirects.
func (r *Resolver) URL(recipe *database.Recipe, v *database.Variant) string {
	if v.Processed() {
		return strings.TrimRight(r.mediaURL, "/") + "/" + escapePath(v.DerivedPath)
	}
	return LazyPath(recipe.Namespace, recipe.Title, v.Source)
}

// LazyPath builds the processing endpoint path for a source and recipe.
// The source keeps its slashes; every other segment is escaped.
func LazyPath(namespace, title, source string) string {
	return "/multires/" + url.PathEscape(namespace) + "/" + url.PathEscape(title) + "/" + escapePath(source)
}

// escapePath escapes each segment of a slash-separated path while keeping
// the separators intact.
func escapePath(p string) string {
	segments := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
