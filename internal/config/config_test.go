package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir()) // no config file present
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "https://api.devnet.solana.com", cfg.Solana.RPCURL)
	assert.Empty(t, cfg.Solana.SecretKey)
}

func TestLoad_File(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: 8080
solana:
  rpc_url: https://api.mainnet-beta.solana.com
  ws_url: wss://api.mainnet-beta.solana.com
  secret_key: "5Kd3N..."
token:
  name: Token_001
  symbol: BCS
  metadata_uri: https://example.com/api/metadata
  logo_uri: https://example.com/logo.png
  website: https://example.com
  description: Test token
registry:
  github_token: ghp_test
  owner: solflare-wallet
  repo: utl-aggregator
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.Solana.RPCURL)
	assert.Equal(t, "wss://api.mainnet-beta.solana.com", cfg.Solana.WSURL)
	assert.Equal(t, "5Kd3N...", cfg.Solana.SecretKey)
	assert.Equal(t, "Token_001", cfg.Token.Name)
	assert.Equal(t, "BCS", cfg.Token.Symbol)
	assert.Equal(t, "https://example.com/api/metadata", cfg.Token.MetadataURI)
	assert.Equal(t, "ghp_test", cfg.Registry.GithubToken)
	assert.Equal(t, "solflare-wallet", cfg.Registry.Owner)
	assert.Empty(t, cfg.Registry.BaseBranch)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := writeConfig(t, `
solana:
  rpc_url: https://config-file.example.com
`)
	t.Setenv("TOKENAPI_SOLANA_RPC_URL", "https://env.example.com")
	t.Setenv("TOKENAPI_SERVER_PORT", "4000")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Solana.RPCURL)
	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := writeConfig(t, "server: [not: valid\n")

	_, err := Load(dir)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		var c Config
		c.Server.Port = 3000
		c.Solana.RPCURL = "https://api.devnet.solana.com"
		c.Solana.SecretKey = "secret"
		return &c
	}

	assert.NoError(t, valid().Validate())

	noRPC := valid()
	noRPC.Solana.RPCURL = ""
	assert.ErrorContains(t, noRPC.Validate(), "rpc_url")

	noSecret := valid()
	noSecret.Solana.SecretKey = ""
	assert.ErrorContains(t, noSecret.Validate(), "secret_key")

	badPort := valid()
	badPort.Server.Port = 0
	assert.ErrorContains(t, badPort.Validate(), "port")
}
