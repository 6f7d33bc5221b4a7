package proposal

import "context"

// AuditRepository port for persisting and querying analysis audit entries
type AuditRepository interface {
	Save(ctx context.Context, e *AuditEntry) error
	Latest(ctx context.Context, limit int) ([]*AuditEntry, error)
}

// RawArchive keeps provider output that could not be extracted, for later diagnosis.
type RawArchive interface {
	Put(ctx context.Context, key string, raw []byte) (string, error)
}
