package issuance

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-api/internal/domain"
	"solana-token-api/internal/finalizer"
	"solana-token-api/internal/ledger/stub"
	"solana-token-api/internal/provision"
)

func testSecret(t *testing.T) []byte {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 21
	return []byte(ed25519.NewKeyFromSeed(seed))
}

type stubRegistry struct {
	mu         sync.Mutex
	configured bool
	err        error
	submitted  []domain.RegistryToken
	done       chan struct{}
}

func newStubRegistry(configured bool) *stubRegistry {
	return &stubRegistry{configured: configured, done: make(chan struct{}, 8)}
}

func (s *stubRegistry) Configured() bool { return s.configured }

func (s *stubRegistry) ProposeAddition(_ context.Context, tok domain.RegistryToken) (string, error) {
	s.mu.Lock()
	s.submitted = append(s.submitted, tok)
	s.mu.Unlock()
	s.done <- struct{}{}
	if s.err != nil {
		return "", s.err
	}
	return "https://github.com/example/registry/pull/1", nil
}

func (s *stubRegistry) waitForDispatch(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("registry dispatch never happened")
	}
}

func metadataServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newIssuer(t *testing.T, client *stub.Client, registry RegistrySubmitter, metadataURI string) *Issuer {
	t.Helper()
	fin := finalizer.New(client, finalizer.WithPollInterval(time.Millisecond))
	var httpClient *http.Client
	if metadataURI != "" {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return New(Options{
		Provisioner: provision.New(client, fin),
		Finalizer:   fin,
		Registry:    registry,
		HTTPClient:  httpClient,
		MetadataURI: metadataURI,
		LogoURI:     "https://example.com/logo.png",
		Website:     "https://example.com",
		Logger:      log.New(io.Discard, "", 0),
	})
}

func fundedClient(t *testing.T, secret []byte) *stub.Client {
	t.Helper()
	client := stub.NewClient()
	client.RentExemption = 1_461_600

	pub := ed25519.PrivateKey(secret).Public().(ed25519.PublicKey)
	client.Balances[solana.PublicKeyFromBytes(pub)] = 1_000_000_000
	return client
}

func TestIssue(t *testing.T) {
	srv := metadataServer(t, `{"name":"Token_001","symbol":"BCS","image":"https://example.com/logo.png"}`)
	secret := testSecret(t)
	client := fundedClient(t, secret)
	registry := newStubRegistry(true)

	issuer := newIssuer(t, client, registry, srv.URL)
	result, err := issuer.Issue(context.Background(), secret, domain.IssueRequest{
		Name:     "Token_001",
		Symbol:   "BCS",
		Quantity: 60,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.MintAddress)
	assert.NotEmpty(t, result.TokenAccountAddress)
	assert.Equal(t, srv.URL, result.MetadataURI)

	// Four submissions: mint creation, associated account creation,
	// supply minting, metadata attachment.
	require.Len(t, client.SentTransactions, 4)

	mintToData := client.SentTransactions[2].Message.Instructions[0].Data
	require.Len(t, []byte(mintToData), 9)
	assert.Equal(t, byte(7), mintToData[0])
	assert.Equal(t, uint64(60_000_000), binary.LittleEndian.Uint64(mintToData[1:]))

	registry.waitForDispatch(t)
	require.Len(t, registry.submitted, 1)
	tok := registry.submitted[0]
	assert.Equal(t, result.MintAddress, tok.Mint)
	assert.Equal(t, "Token_001", tok.Name)
	assert.Equal(t, "BCS", tok.Symbol)
	assert.Equal(t, uint8(6), tok.Decimals)
	assert.Equal(t, []string{"devnet", "test"}, tok.Tags)
	assert.Equal(t, "https://example.com", tok.Extensions["website"])
}

func TestIssue_RegistryFailureDoesNotAffectResult(t *testing.T) {
	srv := metadataServer(t, `{"name":"Token_001","symbol":"BCS","image":"https://example.com/logo.png"}`)
	secret := testSecret(t)
	client := fundedClient(t, secret)
	registry := newStubRegistry(true)
	registry.err = errors.New("422 Unprocessable Entity")

	issuer := newIssuer(t, client, registry, srv.URL)
	result, err := issuer.Issue(context.Background(), secret, domain.IssueRequest{
		Name:     "Token_001",
		Symbol:   "BCS",
		Quantity: 60,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.MintAddress)
	registry.waitForDispatch(t)
}

func TestIssue_UnconfiguredRegistrySkipped(t *testing.T) {
	secret := testSecret(t)
	client := fundedClient(t, secret)
	registry := newStubRegistry(false)

	issuer := newIssuer(t, client, registry, "")
	_, err := issuer.Issue(context.Background(), secret, domain.IssueRequest{
		Name:     "Token_001",
		Symbol:   "BCS",
		Quantity: 60,
	})
	require.NoError(t, err)
	assert.Empty(t, registry.submitted)
}

func TestIssue_ValidationBeforeNetwork(t *testing.T) {
	secret := testSecret(t)
	longName := make([]byte, domain.MaxNameLength+1)
	for i := range longName {
		longName[i] = 'a'
	}

	tests := []struct {
		name  string
		req   domain.IssueRequest
		field string
	}{
		{
			name:  "empty name",
			req:   domain.IssueRequest{Symbol: "BCS", Quantity: 1},
			field: "name",
		},
		{
			name:  "name too long",
			req:   domain.IssueRequest{Name: string(longName), Symbol: "BCS", Quantity: 1},
			field: "name",
		},
		{
			name:  "symbol too long",
			req:   domain.IssueRequest{Name: "Token_001", Symbol: "TOOLONGSYMBOL", Quantity: 1},
			field: "symbol",
		},
		{
			name:  "zero quantity",
			req:   domain.IssueRequest{Name: "Token_001", Symbol: "BCS", Quantity: 0},
			field: "quantity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := stub.NewClient()
			issuer := newIssuer(t, client, nil, "")
			_, err := issuer.Issue(context.Background(), secret, tt.req)
			require.Error(t, err)
			assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

			var derr *domain.Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.field, derr.Field)
			assert.Zero(t, client.Calls)
		})
	}
}

func TestIssue_BadSecret(t *testing.T) {
	client := stub.NewClient()
	issuer := newIssuer(t, client, nil, "")
	_, err := issuer.Issue(context.Background(), []byte{1, 2, 3}, domain.IssueRequest{
		Name:     "Token_001",
		Symbol:   "BCS",
		Quantity: 1,
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	assert.Zero(t, client.Calls)
}

func TestIssue_MetadataDocumentRejected(t *testing.T) {
	secret := testSecret(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing image", body: `{"name":"Token_001","symbol":"BCS"}`},
		{name: "missing name", body: `{"symbol":"BCS","image":"https://example.com/logo.png"}`},
		{name: "not json", body: `<html>gateway timeout</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := metadataServer(t, tt.body)
			client := fundedClient(t, secret)

			issuer := newIssuer(t, client, nil, srv.URL)
			_, err := issuer.Issue(context.Background(), secret, domain.IssueRequest{
				Name:     "Token_001",
				Symbol:   "BCS",
				Quantity: 60,
			})
			require.Error(t, err)
			assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
			assert.Empty(t, client.SentTransactions)
		})
	}
}

func TestIssue_MetadataNameMismatchTolerated(t *testing.T) {
	srv := metadataServer(t, `{"name":"Other","symbol":"OTH","image":"https://example.com/logo.png"}`)
	secret := testSecret(t)
	client := fundedClient(t, secret)

	issuer := newIssuer(t, client, nil, srv.URL)
	result, err := issuer.Issue(context.Background(), secret, domain.IssueRequest{
		Name:     "Token_001",
		Symbol:   "BCS",
		Quantity: 60,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.MintAddress)
}

func TestIssue_InsufficientFunds(t *testing.T) {
	secret := testSecret(t)
	client := stub.NewClient()
	client.RentExemption = 1_461_600 // no balance configured

	issuer := newIssuer(t, client, nil, "")
	_, err := issuer.Issue(context.Background(), secret, domain.IssueRequest{
		Name:     "Token_001",
		Symbol:   "BCS",
		Quantity: 60,
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindInsufficientFunds, domain.KindOf(err))
	assert.Empty(t, client.SentTransactions)
}
