// Package httpapi exposes the issuance and transfer operations over HTTP.
// Requests are validated here and reach the core as typed, already-validated
// values.
package httpapi

import (
	"context"
	"log"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"solana-token-api/internal/domain"
	"solana-token-api/internal/keyring"
	"solana-token-api/internal/observability"
)

// Issuer is the issuance entry point consumed by the HTTP layer.
type Issuer interface {
	Issue(ctx context.Context, secret []byte, req domain.IssueRequest) (*domain.IssueResult, error)
}

// Transferrer is the transfer entry point consumed by the HTTP layer.
type Transferrer interface {
	Transfer(ctx context.Context, signer *keyring.Keypair, req domain.TransferRequest) (solana.Signature, error)
}

// MetadataDescriptor is the static token descriptor served at /api/metadata.
type MetadataDescriptor struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Website     string `json:"website,omitempty"`
	Image       string `json:"image"`
}

// Handler wires HTTP routes to the core components.
type Handler struct {
	issuer      Issuer
	transferrer Transferrer
	secret      []byte
	descriptor  MetadataDescriptor
	metrics     *observability.Metrics
	logger      *log.Logger
}

// Options for creating a Handler.
type Options struct {
	Issuer      Issuer
	Transferrer Transferrer
	// Secret is the process-wide signing secret, already decoded.
	Secret     []byte
	Descriptor MetadataDescriptor
	Metrics    *observability.Metrics
	Logger     *log.Logger
}

// NewHandler creates a Handler.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		issuer:      opts.Issuer,
		transferrer: opts.Transferrer,
		secret:      opts.Secret,
		descriptor:  opts.Descriptor,
		metrics:     opts.Metrics,
		logger:      logger,
	}
}

// Register attaches all routes to the engine.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")
	api.POST("/create-token", h.createToken)
	api.POST("/transfer", h.transfer)
	api.GET("/metadata", h.metadata)
	r.GET("/healthz", h.health)
}

func (h *Handler) createToken(c *gin.Context) {
	var body CreateTokenRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.countIssuance("error")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	req, err := body.Validate()
	if err != nil {
		h.countIssuance("error")
		h.writeError(c, err)
		return
	}

	result, err := h.issuer.Issue(c.Request.Context(), h.secret, req)
	if err != nil {
		h.countIssuance("error")
		h.logger.Printf("create-token failed: %v", err)
		h.writeError(c, err)
		return
	}

	h.countIssuance("ok")
	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"mint":         result.MintAddress,
		"tokenAccount": result.TokenAccountAddress,
		"metadataUri":  result.MetadataURI,
		"message":      "token created successfully",
	})
}

func (h *Handler) transfer(c *gin.Context) {
	var body TransferRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.countTransfer("error")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	req, err := body.Validate()
	if err != nil {
		h.countTransfer("error")
		h.writeError(c, err)
		return
	}

	signer, err := keyring.FromSecretBytes(h.secret)
	if err != nil {
		h.countTransfer("error")
		h.logger.Printf("signing secret unusable: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "signing identity unavailable"})
		return
	}

	sig, err := h.transferrer.Transfer(c.Request.Context(), signer, req)
	if err != nil {
		h.countTransfer("error")
		h.logger.Printf("transfer failed: %v", err)
		h.writeError(c, err)
		return
	}

	h.countTransfer("ok")
	c.JSON(http.StatusOK, gin.H{"success": true, "signature": sig.String()})
}

func (h *Handler) metadata(c *gin.Context) {
	c.JSON(http.StatusOK, h.descriptor)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps an error kind to a status code. Input validation maps to
// client errors; ledger interaction failures map to server errors carrying
// the underlying network message for diagnostics.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if domain.IsKind(err, domain.KindInvalidInput) {
		status = http.StatusBadRequest
	}
	if h.metrics != nil {
		if kind := domain.KindOf(err); kind != "" && kind != domain.KindInvalidInput {
			h.metrics.SubmissionErrors.WithLabelValues(string(kind)).Inc()
		}
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func (h *Handler) countIssuance(outcome string) {
	if h.metrics != nil {
		h.metrics.IssuancesTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) countTransfer(outcome string) {
	if h.metrics != nil {
		h.metrics.TransfersTotal.WithLabelValues(outcome).Inc()
	}
}
