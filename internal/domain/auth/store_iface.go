package auth

import "context"

type StoreAPI interface {
	CreateUser(ctx context.Context, username, email, passwordHash, role string) (User, error)
	FindByLogin(ctx context.Context, login string) (Credentials, error)
	GetUser(ctx context.Context, id string) (User, error)
	TouchLogin(ctx context.Context, id string) error
}
