// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selvohq/selvo/internal/platform/apperr"
)

// newGoogleTestProvider points the Google endpoints at local test servers and
// stubs the ID token validator.
func newGoogleTestProvider(tokenHandler, userinfoHandler http.HandlerFunc, validate func(ctx context.Context, token, audience string) error) (*GoogleProvider, func()) {
	tokenServer := httptest.NewServer(tokenHandler)
	userinfoServer := httptest.NewServer(userinfoHandler)

	provider := NewGoogleProvider("client-id", "client-secret", "https://selvo.store/oauth/google", tokenServer.Client())
	provider.tokenURL = tokenServer.URL
	provider.userinfoURL = userinfoServer.URL
	provider.validateIDToken = validate

	cleanup := func() {
		tokenServer.Close()
		userinfoServer.Close()
	}
	return provider, cleanup
}

func googleTokenOK(t *testing.T) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		assert.NoError(t, request.ParseForm())
		assert.Equal(t, "authorization_code", request.PostFormValue("grant_type"))
		assert.Equal(t, "good-code", request.PostFormValue("code"))

		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(map[string]string{
			"access_token": "ya29.test",
			"id_token":     "signed-id-token",
		})
	}
}

/*
TestGoogleProvider_Profile walks the full exchange, validation and userinfo
path for a verified account.
*/
func TestGoogleProvider_Profile(t *testing.T) {
	validatedToken := ""
	validatedAudience := ""
	provider, cleanup := newGoogleTestProvider(
		googleTokenOK(t),
		func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "Bearer ya29.test", request.Header.Get("Authorization"))
			assert.Equal(t, "json", request.URL.Query().Get("alt"))
			json.NewEncoder(writer).Encode(map[string]any{
				"name":           "Mai Tran",
				"email":          "mai@example.com",
				"picture":        "https://lh3.googleusercontent.com/a/photo",
				"verified_email": true,
			})
		},
		func(_ context.Context, token, audience string) error {
			validatedToken = token
			validatedAudience = audience
			return nil
		},
	)
	defer cleanup()

	profile, err := provider.Profile(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "Mai Tran", profile.Name)
	assert.Equal(t, "mai@example.com", profile.Email)
	assert.Equal(t, ProviderGoogle, profile.Provider)

	// The ID token from the exchange is checked against this client's audience
	assert.Equal(t, "signed-id-token", validatedToken)
	assert.Equal(t, "client-id", validatedAudience)
}

/*
TestGoogleProvider_Profile_InvalidIDToken stops before the userinfo fetch when
the ID token fails validation.
*/
func TestGoogleProvider_Profile_InvalidIDToken(t *testing.T) {
	provider, cleanup := newGoogleTestProvider(
		googleTokenOK(t),
		func(writer http.ResponseWriter, request *http.Request) {
			t.Error("userinfo must not be fetched for an invalid ID token")
		},
		func(_ context.Context, _, _ string) error {
			return errors.New("idtoken: signature mismatch")
		},
	)
	defer cleanup()

	_, err := provider.Profile(context.Background(), "good-code")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeProviderRejected))
}

/*
TestGoogleProvider_Profile_UnverifiedEmail rejects accounts whose email Google
itself has not verified.
*/
func TestGoogleProvider_Profile_UnverifiedEmail(t *testing.T) {
	provider, cleanup := newGoogleTestProvider(
		googleTokenOK(t),
		func(writer http.ResponseWriter, request *http.Request) {
			json.NewEncoder(writer).Encode(map[string]any{
				"name":           "Mai Tran",
				"email":          "mai@example.com",
				"verified_email": false,
			})
		},
		func(_ context.Context, _, _ string) error { return nil },
	)
	defer cleanup()

	_, err := provider.Profile(context.Background(), "good-code")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeProviderRejected))
	assert.Contains(t, err.Error(), "not verified")
}

/*
TestGoogleProvider_Profile_RejectedCode surfaces a non-200 exchange response.
*/
func TestGoogleProvider_Profile_RejectedCode(t *testing.T) {
	provider, cleanup := newGoogleTestProvider(
		func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(writer).Encode(map[string]string{"error": "invalid_grant"})
		},
		func(writer http.ResponseWriter, request *http.Request) {
			t.Error("userinfo must not be fetched on a failed exchange")
		},
		func(_ context.Context, _, _ string) error { return nil },
	)
	defer cleanup()

	_, err := provider.Profile(context.Background(), "stale-code")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeProviderRejected))
}
