package payroll

import "context"

type StoreAPI interface {
	Active(ctx context.Context) (Settings, error)
	EnsureActive(ctx context.Context, defaults SettingsInput) (Settings, error)
	Get(ctx context.Context, id string) (Settings, error)
	List(ctx context.Context) ([]Settings, error)
	Update(ctx context.Context, id string, input SettingsInput) (Settings, error)
	CreateActive(ctx context.Context, input SettingsInput) (Settings, error)
}
