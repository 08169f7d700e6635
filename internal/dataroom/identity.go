package dataroom

import "context"

// TokenProvider resolves the caller's identity token. The token is opaque
// to the core and stable for the lifetime of a session; it only ever
// appears as a path segment in the storage namespace.
type TokenProvider interface {
	IdentityToken(ctx context.Context) (string, error)
}

// namespacePrefix is the shared root under which every user's files live.
const namespacePrefix = "user-files/"

// Namespace returns the store path prefix owned by the given identity
// token: "user-files/{token}/". Every path the core reads or writes is
// under this prefix.
func Namespace(token string) string {
	return namespacePrefix + token + "/"
}
