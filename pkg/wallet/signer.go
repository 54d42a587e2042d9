// Package wallet holds the process-wide signing identity for the exchange.
// The signer is created once at startup and shared by every order-placing
// call site.
package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Signer wraps the trading key. The maker address is the proxy wallet when
// one is configured, otherwise the EOA derived from the key; the signer
// address is always the EOA.
type Signer struct {
	privateKey    *ecdsa.PrivateKey
	address       string // EOA
	proxyAddress  string // optional proxy (maker/funder)
	signatureType int
}

// NewSigner parses the hex private key and derives the EOA address.
func NewSigner(privateKeyHex, proxyAddress string, signatureType int) (*Signer, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("derive public key")
	}

	return &Signer{
		privateKey:    privateKey,
		address:       crypto.PubkeyToAddress(*publicKey).Hex(),
		proxyAddress:  proxyAddress,
		signatureType: signatureType,
	}, nil
}

// PrivateKey returns the ECDSA key for order signing.
func (s *Signer) PrivateKey() *ecdsa.PrivateKey {
	return s.privateKey
}

// Address returns the EOA (signer) address.
func (s *Signer) Address() string {
	return s.address
}

// MakerAddress returns the proxy address if set, otherwise the EOA.
func (s *Signer) MakerAddress() string {
	if s.proxyAddress != "" {
		return s.proxyAddress
	}
	return s.address
}

// SignatureType returns the exchange signature type discriminator.
func (s *Signer) SignatureType() int {
	return s.signatureType
}
