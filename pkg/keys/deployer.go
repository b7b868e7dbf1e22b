// Package keys resolves the deployer identity that creates a ledger.
// Keys are secp256k1, so the creator address is the usual Ethereum account
// address and the ledger address follows contract-creation derivation.
package keys

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Deployer is the account that creates a ledger and receives its supply
type Deployer struct {
	key     *ecdsa.PrivateKey
	Address common.Address
}

// ParseDeployer decodes a hex private key, with or without 0x prefix
func ParseDeployer(hexKey string) (*Deployer, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("empty private key")
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &Deployer{
		key:     key,
		Address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// LedgerAddress returns the address a ledger created by this deployer at
// the given account nonce is identified by.
func (d *Deployer) LedgerAddress(nonce uint64) common.Address {
	return crypto.CreateAddress(d.Address, nonce)
}

// DeploymentDigest hashes the parameters a ledger was created with
func DeploymentDigest(ledger common.Address, name, symbol string, totalSupply []byte) common.Hash {
	return crypto.Keccak256Hash(
		ledger.Bytes(),
		[]byte(name),
		[]byte(symbol),
		common.LeftPadBytes(totalSupply, 32),
	)
}

// Sign produces a 65-byte recoverable signature over digest
func (d *Deployer) Sign(digest common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(digest.Bytes(), d.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}
	return sig, nil
}

// RecoverSigner returns the address that produced sig over digest
func RecoverSigner(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(sig))
	}
	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
