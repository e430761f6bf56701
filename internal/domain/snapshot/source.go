package snapshot

import "context"

// Source loads a complete snapshot for one pipeline run
type Source interface {
	Load(ctx context.Context) (*Dataset, error)
}
