// Package multires ties the pieces of the variant pipeline together. A
// Service binds the database, file storage and render engine; a Field scopes
// that service to one source image in one recipe namespace; a Resolver turns
// variants into URLs without touching the database or the filesystem.
//
// Variants are rendered lazily. Looking one up only creates a pending row;
// the actual image work happens the first time somebody asks for the bytes,
// and concurrent first requests are arbitrated through the variant status
// column so only one of them does the work.
package multires
