// Package provision redeems enrollment invites.
//
// An invite is exchanged with a lighthouse's enrollment service for a zip
// archive holding config.yaml, host.key, host.crt and ca.crt. The archive is
// extracted into the application directory, replacing any existing files.
package provision
