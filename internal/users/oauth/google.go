// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

/*
Package oauth implements social sign-in bootstrap for the Selvo storefront.

It exchanges provider authorization codes for verified profiles and hands the
result to the auth domain, which owns account upsert and token issuance. Each
provider adapter talks to its own endpoints but produces the same [Profile]
shape, so the bootstrap service is provider-agnostic.
*/
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/idtoken"

	"github.com/selvohq/selvo/internal/platform/apperr"
)

const (
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserinfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"
)

// ProviderGoogle is the provider label stored on bootstrapped accounts.
const ProviderGoogle = "Google"

// Profile is the normalized identity a provider adapter produces.
type Profile struct {
	Name     string
	Email    string
	Photo    string
	Provider string
}

// GoogleProvider exchanges Google authorization codes for verified profiles.
//
// # ID Token Validation
//
// The code exchange returns both an access token and an ID token. The ID
// token's RS256 signature and audience are validated against Google's
// published keys before the profile is trusted; the access token alone is
// never treated as proof of identity.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	redirectURL  string
	httpClient   *http.Client

	// Endpoint and validator seams, overridden in tests only
	tokenURL        string
	userinfoURL     string
	validateIDToken func(ctx context.Context, token, audience string) error
}

// NewGoogleProvider creates a new Google OAuth2 provider adapter.
func NewGoogleProvider(clientID, clientSecret, redirectURL string, httpClient *http.Client) *GoogleProvider {
	return &GoogleProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		httpClient:   httpClient,
		tokenURL:     googleTokenURL,
		userinfoURL:  googleUserinfoURL,
		validateIDToken: func(ctx context.Context, token, audience string) error {
			_, err := idtoken.Validate(ctx, token, audience)
			return err
		},
	}
}

// Name returns the provider label for stored accounts.
func (provider *GoogleProvider) Name() string {
	return ProviderGoogle
}

// googleTokenResponse is the relevant subset of Google's token endpoint reply.
type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
}

/*
Profile exchanges an authorization code for a verified Google profile.

Description: Performs the code exchange, validates the returned ID token
against Google's signing keys and this client's audience, then fetches the
userinfo document. Accounts whose email Google has not verified are rejected.

Parameters:
  - ctx: context.Context
  - code: string (Authorization code from the consent redirect)

Returns:
  - *Profile: Verified identity
  - error: apperr.ProviderRejected or apperr.UpstreamFailure
*/
func (provider *GoogleProvider) Profile(ctx context.Context, code string) (*Profile, error) {

	// ── 1. Code Exchange ──────────────────────────────────────────────
	form := url.Values{
		"code":          {code},
		"client_id":     {provider.clientID},
		"client_secret": {provider.clientSecret},
		"redirect_uri":  {provider.redirectURL},
		"grant_type":    {"authorization_code"},
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("google_token_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := provider.httpClient.Do(request)
	if err != nil {
		return nil, apperr.UpstreamFailure(fmt.Errorf("google_token_exchange_failed: %w", err))
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(response.Body)
		return nil, apperr.ProviderRejected(fmt.Sprintf("Google rejected the authorization code (%d): %s", response.StatusCode, string(body)))
	}

	tokens := googleTokenResponse{}
	if err := json.NewDecoder(response.Body).Decode(&tokens); err != nil {
		return nil, apperr.UpstreamFailure(fmt.Errorf("google_token_decode_failed: %w", err))
	}

	// ── 2. ID Token Validation ────────────────────────────────────────
	if err := provider.validateIDToken(ctx, tokens.IDToken, provider.clientID); err != nil {
		return nil, apperr.ProviderRejected("Google ID token failed validation")
	}

	// ── 3. Profile Fetch ──────────────────────────────────────────────
	return provider.fetchUserinfo(ctx, tokens.AccessToken)
}

// googleUserinfo is the relevant subset of the userinfo document.
type googleUserinfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Picture       string `json:"picture"`
	VerifiedEmail bool   `json:"verified_email"`
}

// fetchUserinfo resolves the access token into the userinfo document and
// enforces Google-side email verification.
func (provider *GoogleProvider) fetchUserinfo(ctx context.Context, accessToken string) (*Profile, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.userinfoURL+"?alt=json", nil)
	if err != nil {
		return nil, fmt.Errorf("google_userinfo_request_failed: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)

	response, err := provider.httpClient.Do(request)
	if err != nil {
		return nil, apperr.UpstreamFailure(fmt.Errorf("google_userinfo_fetch_failed: %w", err))
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, apperr.UpstreamFailure(fmt.Errorf("google_userinfo_status_%d", response.StatusCode))
	}

	userinfo := googleUserinfo{}
	if err := json.NewDecoder(response.Body).Decode(&userinfo); err != nil {
		return nil, apperr.UpstreamFailure(fmt.Errorf("google_userinfo_decode_failed: %w", err))
	}

	if !userinfo.VerifiedEmail {
		return nil, apperr.ProviderRejected("Google account email is not verified")
	}

	return &Profile{
		Name:     userinfo.Name,
		Email:    userinfo.Email,
		Photo:    userinfo.Picture,
		Provider: ProviderGoogle,
	}, nil
}
