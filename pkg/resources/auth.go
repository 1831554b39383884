package resources

import (
	"context"

	"github.com/samvad-hq/bizdesk/internal/domain"
	"github.com/samvad-hq/bizdesk/pkg/apiclient"
)

// AuthService covers sign-up and the cookie session lifecycle. A successful
// login makes the backend set the session cookie; no token is returned or needed.
type AuthService struct{ base }

func (s *AuthService) Register(ctx context.Context, in domain.RegisterInput) (*apiclient.Response, error) {
	return s.call(ctx, opRegister, nil, in)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*apiclient.Response, error) {
	return s.call(ctx, opLogin, nil, domain.Credentials{Email: email, Password: password})
}

func (s *AuthService) Logout(ctx context.Context) (*apiclient.Response, error) {
	return s.call(ctx, opLogout, nil, nil)
}

// Check asks the backend whether the current session cookie is still valid.
func (s *AuthService) Check(ctx context.Context) (*apiclient.Response, error) {
	return s.call(ctx, opCheckSession, nil, nil)
}
