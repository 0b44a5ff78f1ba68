package content

import "context"

type Store interface {
	Create(ctx context.Context, r *Record) error
	Get(ctx context.Context, fingerprint string) (*Record, error)
	List(ctx context.Context, opts ListOpts) ([]*Record, error)
}

type ListOpts struct {
	Owner  string
	Limit  int
	Offset int
}
