// Command adminpw manages the admin password of a multires server.
//
// It supports the following operations:
//   - set: Set or reset the admin password
//   - status: Check if a password is configured
//
// Usage:
//
//	adminpw <command>
//
// Commands:
//
//	set     Set the admin password, creating the admin account if it does
//	        not exist yet. All existing sessions are invalidated.
//
//	status  Display whether a password is configured.
//
// Environment:
//
//	DATABASE_DIR - Path to database directory (default: /database)
//
// Notes:
//
// The server uses a single-user authentication model: one admin account,
// password only. The password can also be configured through the
// /api/auth/setup endpoint while no account exists.
package main
