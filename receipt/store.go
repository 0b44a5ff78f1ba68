package receipt

import (
	"context"
	"time"
)

type Store interface {
	Append(ctx context.Context, r *Receipt) error
	List(ctx context.Context, opts ListOpts) ([]*Receipt, error)
}

type ListOpts struct {
	Kind     Kind
	Identity string
	Since    time.Time
	Limit    int
	Offset   int
}
