package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort lexicographically by creation
// time, so session ids double as a stable creation order in queries.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
