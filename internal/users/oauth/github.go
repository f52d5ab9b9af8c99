// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/selvohq/selvo/internal/platform/apperr"
)

const (
	githubTokenURL   = "https://github.com/login/oauth/access_token"
	githubProfileURL = "https://api.github.com/user"
	githubEmailsURL  = "https://api.github.com/user/emails"
)

// ProviderGitHub is the provider label stored on bootstrapped accounts.
const ProviderGitHub = "GitHub"

// GitHubProvider exchanges GitHub authorization codes for profiles.
//
// GitHub issues no ID token, so identity rests on the access token returned
// by the exchange. Unlike the Google adapter there is no provider-side email
// verification gate: a primary address from /user/emails is accepted as-is.
type GitHubProvider struct {
	clientID     string
	clientSecret string
	redirectURL  string
	httpClient   *http.Client

	// Endpoint seams, overridden in tests only
	tokenURL   string
	profileURL string
	emailsURL  string
}

// NewGitHubProvider creates a new GitHub OAuth provider adapter.
func NewGitHubProvider(clientID, clientSecret, redirectURL string, httpClient *http.Client) *GitHubProvider {
	return &GitHubProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		httpClient:   httpClient,
		tokenURL:     githubTokenURL,
		profileURL:   githubProfileURL,
		emailsURL:    githubEmailsURL,
	}
}

// Name returns the provider label for stored accounts.
func (provider *GitHubProvider) Name() string {
	return ProviderGitHub
}

/*
Profile exchanges an authorization code for a GitHub profile.

Description: Performs the code exchange and fetches the /user document. When
the profile email is private, the primary address from /user/emails is used
instead.

Parameters:
  - ctx: context.Context
  - code: string (Authorization code from the consent redirect)

Returns:
  - *Profile: Provider identity
  - error: apperr.ProviderRejected or apperr.UpstreamFailure
*/
func (provider *GitHubProvider) Profile(ctx context.Context, code string) (*Profile, error) {

	// ── 1. Code Exchange ──────────────────────────────────────────────
	accessToken, err := provider.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	// ── 2. Profile Fetch ──────────────────────────────────────────────
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("github_profile_request_failed: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)
	request.Header.Set("Accept", "application/vnd.github+json")

	response, err := provider.httpClient.Do(request)
	if err != nil {
		return nil, apperr.UpstreamFailure(fmt.Errorf("github_profile_fetch_failed: %w", err))
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(response.Body)
		return nil, apperr.UpstreamFailure(fmt.Errorf("github_profile_status_%d: %s", response.StatusCode, string(body)))
	}

	profile := struct {
		ID        int    `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}{}
	if err := json.NewDecoder(response.Body).Decode(&profile); err != nil {
		return nil, apperr.UpstreamFailure(fmt.Errorf("github_profile_decode_failed: %w", err))
	}

	// ── 3. Email Resolution ───────────────────────────────────────────
	email := profile.Email
	if email == "" {
		email, err = provider.fetchPrimaryEmail(ctx, accessToken)
		if err != nil {
			return nil, err
		}
	}

	// Accounts without a public display name fall back to the login handle
	name := profile.Name
	if name == "" {
		name = profile.Login
	}

	// The numeric GitHub ID seeds a stable placeholder avatar path when the
	// account has none.
	photo := profile.AvatarURL
	if photo == "" {
		photo = "https://avatars.githubusercontent.com/u/" + strconv.Itoa(profile.ID)
	}

	return &Profile{
		Name:     name,
		Email:    email,
		Photo:    photo,
		Provider: ProviderGitHub,
	}, nil
}

// exchangeCode trades the authorization code for a bearer access token.
func (provider *GitHubProvider) exchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"client_id":     {provider.clientID},
		"client_secret": {provider.clientSecret},
		"code":          {code},
		"redirect_uri":  {provider.redirectURL},
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("github_token_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json")

	response, err := provider.httpClient.Do(request)
	if err != nil {
		return "", apperr.UpstreamFailure(fmt.Errorf("github_token_exchange_failed: %w", err))
	}
	defer response.Body.Close()

	tokens := struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
		ErrorDesc   string `json:"error_description"`
	}{}
	if err := json.NewDecoder(response.Body).Decode(&tokens); err != nil {
		return "", apperr.UpstreamFailure(fmt.Errorf("github_token_decode_failed: %w", err))
	}

	if tokens.Error != "" || tokens.AccessToken == "" {
		return "", apperr.ProviderRejected(fmt.Sprintf("GitHub rejected the authorization code: %s %s", tokens.Error, tokens.ErrorDesc))
	}

	return tokens.AccessToken, nil
}

// fetchPrimaryEmail resolves a private profile email through /user/emails.
func (provider *GitHubProvider) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.emailsURL, nil)
	if err != nil {
		return "", fmt.Errorf("github_emails_request_failed: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)
	request.Header.Set("Accept", "application/vnd.github+json")

	response, err := provider.httpClient.Do(request)
	if err != nil {
		return "", apperr.UpstreamFailure(fmt.Errorf("github_emails_fetch_failed: %w", err))
	}
	defer response.Body.Close()

	emails := []struct {
		Email   string `json:"email"`
		Primary bool   `json:"primary"`
	}{}
	if err := json.NewDecoder(response.Body).Decode(&emails); err != nil {
		return "", apperr.UpstreamFailure(fmt.Errorf("github_emails_decode_failed: %w", err))
	}

	for _, candidate := range emails {
		if candidate.Primary {
			return candidate.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}

	return "", apperr.ProviderRejected("GitHub account has no resolvable email address")
}
