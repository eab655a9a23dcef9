package attendance

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateBatch(ctx context.Context, createdBy string, entries []NewEntry) ([]Record, error)
	List(ctx context.Context, filter Filter) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Update(ctx context.Context, id string, change Change) (Record, error)
	Delete(ctx context.Context, id string) error
	CountOn(ctx context.Context, day time.Time) (int, error)
}
