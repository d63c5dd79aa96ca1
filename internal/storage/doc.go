// Package storage provides local file storage for source and derived
// images under a single media root, with stable public URL mapping and
// deterministic derived-file naming.
package storage
