// Package handlers implements the HTTP surface of the multires server: the
// lazy processing endpoint, the admin recipe and source APIs, session
// authentication and the health probes.
package handlers
