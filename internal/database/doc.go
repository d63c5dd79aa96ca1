// Package database provides SQLite storage for the multires service.
//
// It handles storage and retrieval of:
//   - Resolution recipes (dimensions, format, quality, crop policy)
//   - Image variants linking one source image and one recipe to a derived
//     file, with get-or-create semantics on the (source, recipe) pair
//   - The admin account and its authentication sessions
//
// The variants table doubles as the render coordination point: a single
// UPDATE moves a variant from pending to processing, and the affected-row
// count decides which of several concurrent requests performs the render.
//
// The database uses WAL mode for improved concurrent read performance and
// includes automatic schema initialization.
package database
