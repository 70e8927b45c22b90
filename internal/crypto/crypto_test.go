package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0000000000000000000000000000000000000000000000000000000000000001"

func TestNewSignerDerivesAddress(t *testing.T) {
	s, err := NewSigner(testKey, 137)
	require.NoError(t, err)

	// Well-known address for private key 0x...01.
	assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", s.Address().Hex())

	// 0x prefix is accepted too.
	s2, err := NewSigner("0x"+testKey, 137)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), s2.Address())
}

func TestNewSignerRejectsBadKey(t *testing.T) {
	_, err := NewSigner("not-hex", 137)
	assert.Error(t, err)
}

func TestSignAuthMessage(t *testing.T) {
	s, err := NewSigner(testKey, 137)
	require.NoError(t, err)

	sig, err := s.SignAuthMessage(1756300000, 0)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sig, "0x"))
	assert.Len(t, sig, 2+65*2)

	// Deterministic for identical inputs.
	sig2, err := s.SignAuthMessage(1756300000, 0)
	require.NoError(t, err)
	assert.Equal(t, sig, sig2)

	// Different inputs produce different signatures.
	sig3, err := s.SignAuthMessage(1756300001, 0)
	require.NoError(t, err)
	assert.NotEqual(t, sig, sig3)
}

func TestSignOrder(t *testing.T) {
	s, err := NewSigner(testKey, 137)
	require.NoError(t, err)

	payload := OrderPayload{
		Salt:        "12345",
		Maker:       s.Address().Hex(),
		Signer:      s.Address().Hex(),
		Taker:       "0x0000000000000000000000000000000000000000",
		TokenID:     "123456",
		MakerAmount: "20000000",
		TakerAmount: "40000000",
		Expiration:  "0",
		Nonce:       "0",
		FeeRateBps:  "0",
		Side:        0,
	}

	sig, err := s.SignOrder(payload)
	require.NoError(t, err)
	assert.Len(t, sig, 2+65*2)

	// Any field change changes the signature.
	payload.TakerAmount = "40000001"
	sig2, err := s.SignOrder(payload)
	require.NoError(t, err)
	assert.NotEqual(t, sig, sig2)
}

func TestSignOrderRejectsBadNumbers(t *testing.T) {
	s, err := NewSigner(testKey, 137)
	require.NoError(t, err)

	_, err = s.SignOrder(OrderPayload{Salt: "not-a-number"})
	assert.Error(t, err)
}

func TestL2HeadersAt(t *testing.T) {
	creds := &APICreds{
		Key:        "key-1",
		Secret:     "c2VjcmV0", // "secret"
		Passphrase: "pass",
	}

	h := creds.L2HeadersAt("0xabc", "POST", "/order", `{"x":1}`, 1756300000)

	assert.Equal(t, "0xabc", h["POLY_ADDRESS"])
	assert.Equal(t, "key-1", h["POLY_API_KEY"])
	assert.Equal(t, "1756300000", h["POLY_TIMESTAMP"])
	assert.Equal(t, "pass", h["POLY_PASSPHRASE"])
	assert.NotEmpty(t, h["POLY_SIGNATURE"])

	// Same inputs, same signature; different body, different signature.
	h2 := creds.L2HeadersAt("0xabc", "POST", "/order", `{"x":1}`, 1756300000)
	assert.Equal(t, h["POLY_SIGNATURE"], h2["POLY_SIGNATURE"])

	h3 := creds.L2HeadersAt("0xabc", "POST", "/order", `{"x":2}`, 1756300000)
	assert.NotEqual(t, h["POLY_SIGNATURE"], h3["POLY_SIGNATURE"])
}

func TestEncryptDecryptKey(t *testing.T) {
	blob, err := EncryptKey(testKey, "hunter2")
	require.NoError(t, err)

	got, err := DecryptKey(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKey, got)

	_, err = DecryptKey(blob, "wrong")
	assert.Error(t, err)
}

func TestLoadKeyPrefersRaw(t *testing.T) {
	got, err := LoadKey(KeyConfig{RawPrivateKey: "0x" + testKey})
	require.NoError(t, err)
	assert.Equal(t, testKey, got)

	_, err = LoadKey(KeyConfig{})
	assert.Error(t, err)
}
