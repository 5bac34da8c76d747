package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions
// (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// ItemUUID derives a stable identifier for an imported reviewable item.
func ItemUUID(projectID uuid.UUID, kind, refKey string) uuid.UUID {
	return UUID("go-review:item:" + projectID.String() + ":" + strings.ToLower(strings.TrimSpace(kind)) + ":" + strings.TrimSpace(refKey))
}

// ProjectUUID derives a stable identifier for an external project code.
func ProjectUUID(code string) uuid.UUID {
	return UUID("go-review:project:" + strings.ToLower(strings.TrimSpace(code)))
}
