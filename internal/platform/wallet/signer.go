// Package wallet provides a local development wallet that signs the
// structured decryption-grant message with an ed25519 key. Addresses are
// derived from the public key so sessions, the value service, and tests
// agree on identity without an external wallet.
package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"

	"aqualedger/contexts/client-session/reveal-service/ports"
)

// LocalSigner holds a private key in process memory. It never exports the
// key; callers only see the derived address and signatures.
type LocalSigner struct {
	privateKey ed25519.PrivateKey
	address    string
}

// NewLocalSigner generates a fresh random key pair.
func NewLocalSigner() (*LocalSigner, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate wallet key: %w", err)
	}
	return &LocalSigner{privateKey: privateKey, address: DeriveAddress(publicKey)}, nil
}

// NewLocalSignerFromSeed derives a deterministic key pair from an arbitrary
// seed. Equal seeds always yield the same address.
func NewLocalSignerFromSeed(seed []byte) *LocalSigner {
	digest := keccak(seed)
	privateKey := ed25519.NewKeyFromSeed(digest)
	return &LocalSigner{
		privateKey: privateKey,
		address:    DeriveAddress(privateKey.Public().(ed25519.PublicKey)),
	}
}

func (s *LocalSigner) Address() string {
	return s.address
}

func (s *LocalSigner) PublicKey() ed25519.PublicKey {
	return s.privateKey.Public().(ed25519.PublicKey)
}

// SignTypedData signs the canonical digest of the structured message and
// returns the signature hex encoded with a 0x prefix.
func (s *LocalSigner) SignTypedData(_ context.Context, data ports.TypedData) (string, error) {
	digest := TypedDataDigest(data)
	signature := ed25519.Sign(s.privateKey, digest[:])
	return "0x" + hex.EncodeToString(signature), nil
}

// DeriveAddress maps a public key to a 20-byte hex address, taking the low
// bytes of the key's keccak digest.
func DeriveAddress(publicKey ed25519.PublicKey) string {
	digest := keccak(publicKey)
	return "0x" + hex.EncodeToString(digest[12:])
}

// TypedDataDigest computes the canonical keccak digest of a grant message.
// Every field is written with a terminator byte so adjacent fields cannot
// collide, and addresses are lowercased before hashing. Signer and verifier
// must both use this encoding.
func TypedDataDigest(data ports.TypedData) [32]byte {
	hash := sha3.NewLegacyKeccak256()
	writeField := func(value string) {
		hash.Write([]byte(value))
		hash.Write([]byte{0x00})
	}

	writeField(data.Domain.Name)
	writeField(data.Domain.Version)
	writeField(strconv.FormatUint(data.Domain.ChainID, 10))
	writeField(strings.ToLower(data.Domain.VerifyingContract))
	writeField(data.PrimaryType)
	writeField(data.Message.PublicKey)
	for _, contract := range data.Message.ContractAddresses {
		writeField(strings.ToLower(contract))
	}
	writeField(strconv.FormatInt(data.Message.StartTimestamp, 10))
	writeField(strconv.FormatUint(uint64(data.Message.DurationDays), 10))

	var digest [32]byte
	copy(digest[:], hash.Sum(nil))
	return digest
}

func keccak(input []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(input)
	return hash.Sum(nil)
}
