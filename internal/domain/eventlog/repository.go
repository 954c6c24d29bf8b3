package eventlog

import "context"

// Repository describes event log access needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Drop, error)
	ListByCategory(ctx context.Context, category string) ([]Drop, error)
	ListByPlayer(ctx context.Context, player string) ([]Drop, error)
	Categories(ctx context.Context) ([]string, error)
	Players(ctx context.Context) ([]string, error)
	Replace(ctx context.Context, drops []Drop) error
}
