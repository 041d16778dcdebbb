package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var (
	ErrInvalidGoogleAudience = errors.New("invalid google audience")
	ErrUnverifiedGoogleEmail = errors.New("google account email is not verified")
)

// GoogleIdentity is the subset of a verified Google ID token used for sign-in.
type GoogleIdentity struct {
	Subject string
	Email   string
}

// GoogleOAuthProvider verifies Google ID tokens issued to clientID.
type GoogleOAuthProvider struct {
	clientID   string
	httpClient *http.Client
}

func NewGoogleOAuthProvider(clientID string) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{
		clientID:   clientID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// VerifyIDToken validates idToken with Google's tokeninfo endpoint and checks
// that it was issued to this client for a verified email address.
func (p *GoogleOAuthProvider) VerifyIDToken(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	oauth2Service, err := oauth2.NewService(ctx, option.WithHTTPClient(p.httpClient))
	if err != nil {
		return nil, err
	}

	tokenInfo, err := oauth2Service.Tokeninfo().IdToken(idToken).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google token info: %w", err)
	}

	if tokenInfo.Audience != p.clientID {
		return nil, ErrInvalidGoogleAudience
	}

	if !tokenInfo.VerifiedEmail || tokenInfo.Email == "" {
		return nil, ErrUnverifiedGoogleEmail
	}

	return &GoogleIdentity{
		Subject: tokenInfo.UserId,
		Email:   tokenInfo.Email,
	}, nil
}
