// Package stub implements ledger.Client for testing.
package stub

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"

	"solana-token-api/internal/ledger"
)

// Client is an in-memory ledger.Client. Every method increments Calls so
// tests can assert how many network round-trips an operation performed.
type Client struct {
	mu sync.Mutex

	Balances      map[solana.PublicKey]uint64
	Accounts      map[solana.PublicKey]*ledger.AccountInfo
	RentExemption uint64
	Blockhash     ledger.Blockhash

	// SendErr fails SendTransaction when set.
	SendErr error
	// ConfirmAfter delays confirmation for that many status polls.
	ConfirmAfter int
	// NeverConfirm makes GetSignatureStatus always report unknown.
	NeverConfirm bool
	// StatusErr is reported as the on-chain error of confirmed transactions.
	StatusErr interface{}

	// OnSend, when set, observes every submitted transaction.
	OnSend func(tx *solana.Transaction)

	SentTransactions []*solana.Transaction
	Calls            int

	statusPolls map[solana.Signature]int
	nextSig     uint64
}

// NewClient creates an empty stub ledger.
func NewClient() *Client {
	return &Client{
		Balances:    make(map[solana.PublicKey]uint64),
		Accounts:    make(map[solana.PublicKey]*ledger.AccountInfo),
		Blockhash:   ledger.Blockhash{Hash: solana.Hash{1}, LastValidBlockHeight: 1000},
		statusPolls: make(map[solana.Signature]int),
	}
}

// SetAccount registers account state at an address.
func (c *Client) SetAccount(addr solana.PublicKey, info *ledger.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[addr] = info
}

// GetBalance returns the configured balance for an account.
func (c *Client) GetBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	return c.Balances[account], nil
}

// GetMinimumBalanceForRentExemption returns the configured reserve.
func (c *Client) GetMinimumBalanceForRentExemption(_ context.Context, _ uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	return c.RentExemption, nil
}

// GetLatestBlockhash returns the configured blockhash.
func (c *Client) GetLatestBlockhash(_ context.Context) (ledger.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	return c.Blockhash, nil
}

// GetAccountInfo returns registered account state or ErrAccountNotFound.
func (c *Client) GetAccountInfo(_ context.Context, account solana.PublicKey) (*ledger.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	info, ok := c.Accounts[account]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return info, nil
}

// SendTransaction records the transaction and returns a fresh signature.
func (c *Client) SendTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	c.mu.Lock()
	c.Calls++
	if c.SendErr != nil {
		err := c.SendErr
		c.mu.Unlock()
		return solana.Signature{}, err
	}
	c.SentTransactions = append(c.SentTransactions, tx)
	c.nextSig++
	var sig solana.Signature
	sig[0] = byte(c.nextSig)
	onSend := c.OnSend
	c.mu.Unlock()

	if onSend != nil {
		onSend(tx)
	}
	return sig, nil
}

// GetSignatureStatus reports confirmation according to the stub's settings.
func (c *Client) GetSignatureStatus(_ context.Context, sig solana.Signature) (*ledger.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	if c.NeverConfirm {
		return nil, nil
	}
	c.statusPolls[sig]++
	if c.statusPolls[sig] <= c.ConfirmAfter {
		return nil, nil
	}
	return &ledger.SignatureStatus{Confirmed: true, Err: c.StatusErr}, nil
}
