package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/okrs/internal/domain"
)

type UserOutput struct {
	Body *domain.User
}

type ListUsersOutput struct {
	Body []*domain.User
}

func RegisterPeopleRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-people",
		Method:      http.MethodGet,
		Path:        "/people",
		Summary:     "List people",
		Tags:        []string{"People"},
	}, func(ctx context.Context, _ *struct{}) (*ListUsersOutput, error) {
		users, err := store.Users().List(ctx)
		if err != nil {
			return nil, toHTTPError("list-people", "user", err)
		}
		if users == nil {
			users = []*domain.User{}
		}

		return &ListUsersOutput{Body: users}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/people/me",
		Summary:     "Get the signed-in user",
		Tags:        []string{"People"},
	}, func(ctx context.Context, _ *struct{}) (*UserOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		u, err := store.Users().GetByID(ctx, caller)
		if err != nil {
			return nil, toHTTPError("get-me", "user", err)
		}

		return &UserOutput{Body: u}, nil
	})
}
