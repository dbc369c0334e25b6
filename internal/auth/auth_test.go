package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArpitKhatri1/docusign-connector/internal/config"
)

// testKey generates an RSA key pair and returns the PEM-encoded private key.
func testKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	return key, string(pem.EncodeToMemory(block))
}

func testConfig(pemKey string) *config.Config {
	return &config.Config{
		IntegrationKey: "int-key",
		UserID:         "user-1",
		OAuthBaseURL:   "account-d.docusign.com",
		BaseURL:        "https://demo.docusign.net/restapi",
		AccountID:      "acct-1",
		PrivateKey:     pemKey,
	}
}

func TestRefresh_ExchangesAssertionForToken(t *testing.T) {
	key, pemKey := testKey(t)

	var gotAssertion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.PostFormValue("grant_type"))
		gotAssertion = r.PostFormValue("assertion")
		require.NotEmpty(t, gotAssertion)

		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-abc123"})
	}))
	defer server.Close()

	a := New(testConfig(pemKey), WithTokenURL(server.URL), WithHTTPClient(server.Client()))
	a.now = func() time.Time { return time.Unix(1700000000, 0) }

	token, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc123", token)

	// The assertion must verify against the key and carry the grant claims.
	// Claim validation is disabled because the test clock is fixed.
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, err := parser.Parse(gotAssertion, func(tok *jwt.Token) (any, error) {
		require.IsType(t, &jwt.SigningMethodRSA{}, tok.Method)
		return &key.PublicKey, nil
	})
	require.NoError(t, err)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "int-key", claims["iss"])
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "account-d.docusign.com", claims["aud"])
	assert.Equal(t, "signature impersonation", claims["scope"])
	assert.Equal(t, float64(1700000000), claims["iat"])
	assert.Equal(t, float64(1700000000+28800), claims["exp"])
}

func TestToken_CachesAfterFirstExchange(t *testing.T) {
	_, pemKey := testKey(t)

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
	}))
	defer server.Close()

	a := New(testConfig(pemKey), WithTokenURL(server.URL), WithHTTPClient(server.Client()))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		token, err := a.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
	}
	assert.Equal(t, int32(1), requests.Load())
}

func TestRefresh_SingleFlight(t *testing.T) {
	_, pemKey := testKey(t)

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		time.Sleep(100 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
	}))
	defer server.Close()

	a := New(testConfig(pemKey), WithTokenURL(server.URL), WithHTTPClient(server.Client()))

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			token, err := a.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok-1", token)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), requests.Load())
}

func TestRefresh_MissingAccessToken(t *testing.T) {
	_, pemKey := testKey(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token_type": "Bearer"})
	}))
	defer server.Close()

	a := New(testConfig(pemKey), WithTokenURL(server.URL), WithHTTPClient(server.Client()))

	_, err := a.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "access_token")
}

func TestRefresh_EndpointError(t *testing.T) {
	_, pemKey := testKey(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"consent_required"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	a := New(testConfig(pemKey), WithTokenURL(server.URL), WithHTTPClient(server.Client()))

	_, err := a.Refresh(context.Background())
	require.Error(t, err)

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusBadRequest, authErr.StatusCode)
}

func TestRefresh_BadPrivateKey(t *testing.T) {
	a := New(testConfig("not a pem"))

	_, err := a.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

func TestRefresh_MissingKeyFile(t *testing.T) {
	cfg := testConfig("")
	cfg.PrivateKeyPath = "/nonexistent/private_key"
	a := New(cfg)

	_, err := a.Refresh(context.Background())
	require.Error(t, err)

	var notFound *config.KeyNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "", MaskToken(""))
	assert.Equal(t, "abc123", MaskToken("abc123"))
	assert.Equal(t, "...def456", MaskToken("abc123def456"))
}
