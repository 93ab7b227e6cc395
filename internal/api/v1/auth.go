package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/okrs/internal/auth"
	"github.com/gosuda/okrs/internal/domain"
)

type ListProvidersOutput struct {
	Body struct {
		Providers []string `json:"providers"`
	}
}

type AuthorizeInput struct {
	Provider string `path:"provider" doc:"Identity provider, e.g. google or github"`
}

type AuthorizeOutput struct {
	Body struct {
		URL   string `json:"url" doc:"Provider consent URL"`
		State string `json:"state" doc:"Signed state the callback must echo back"`
	}
}

type CallbackInput struct {
	Provider string `path:"provider"`
	Code     string `query:"code" required:"true"`
	State    string `query:"state" required:"true"`
}

type SessionOutput struct {
	Body struct {
		User         *domain.User `json:"user"`
		AccessToken  string       `json:"accessToken"`  //nolint:gosec // G117: auth response DTO
		RefreshToken string       `json:"refreshToken"` //nolint:gosec // G117: auth response DTO
	}
}

type RefreshInput struct {
	Body struct {
		RefreshToken string `json:"refreshToken" minLength:"1" doc:"Refresh token"` //nolint:gosec // G117: token refresh DTO
	}
}

type RefreshOutput struct {
	Body struct {
		AccessToken string `json:"accessToken"` //nolint:gosec // G117: auth response DTO
	}
}

func RegisterAuthRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-auth-providers",
		Method:      http.MethodGet,
		Path:        "/auth/providers",
		Summary:     "List configured identity providers",
		Tags:        []string{"Auth"},
	}, func(_ context.Context, _ *struct{}) (*ListProvidersOutput, error) {
		out := &ListProvidersOutput{}
		out.Body.Providers = authSvc.Providers()
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "authorize",
		Method:      http.MethodGet,
		Path:        "/auth/{provider}/authorize",
		Summary:     "Start sign-in with an identity provider",
		Tags:        []string{"Auth"},
	}, func(_ context.Context, input *AuthorizeInput) (*AuthorizeOutput, error) {
		authURL, state, err := authSvc.AuthorizationURL(input.Provider)
		if err != nil {
			if errors.Is(err, auth.ErrUnknownProvider) {
				return nil, huma.Error404NotFound("unknown identity provider")
			}
			log.Error().Err(err).Str("provider", input.Provider).Msg("authorize failed")
			return nil, huma.Error500InternalServerError("internal server error")
		}

		out := &AuthorizeOutput{}
		out.Body.URL = authURL
		out.Body.State = state
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "auth-callback",
		Method:      http.MethodGet,
		Path:        "/auth/{provider}/callback",
		Summary:     "Complete sign-in and issue a session",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *CallbackInput) (*SessionOutput, error) {
		session, err := authSvc.SignIn(ctx, input.Provider, input.Code, input.State)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUnknownProvider):
				return nil, huma.Error404NotFound("unknown identity provider")
			case errors.Is(err, auth.ErrInvalidState):
				return nil, huma.Error400BadRequest("invalid or expired state")
			case errors.Is(err, auth.ErrEmailRequired):
				return nil, huma.Error400BadRequest("identity provider did not share an email address")
			case errors.Is(err, auth.ErrExchangeFailed):
				log.Warn().Err(err).Str("provider", input.Provider).Msg("code exchange failed")
				return nil, huma.Error401Unauthorized("sign-in failed")
			}
			log.Error().Err(err).Str("provider", input.Provider).Msg("sign-in failed")
			return nil, huma.Error500InternalServerError("internal server error")
		}

		out := &SessionOutput{}
		out.Body.User = session.User
		out.Body.AccessToken = session.AccessToken
		out.Body.RefreshToken = session.RefreshToken
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Refresh access token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
		accessToken, err := authSvc.RefreshToken(ctx, input.Body.RefreshToken)
		if err != nil {
			return nil, huma.Error401Unauthorized("invalid or expired refresh token")
		}

		out := &RefreshOutput{}
		out.Body.AccessToken = accessToken
		return out, nil
	})
}
