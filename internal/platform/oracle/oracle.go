// Package oracle is an in-process stand-in for the confidential value
// service. It issues ciphertext handles with single-use input proofs, adds
// ciphertexts without revealing them, and decrypts handles only under a
// signed grant from a registered account. Plaintexts never leave the vault
// except through UserDecrypt.
package oracle

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/sha3"

	domainerrors "aqualedger/contexts/client-session/reveal-service/domain/errors"
	"aqualedger/contexts/client-session/reveal-service/ports"
	"aqualedger/internal/platform/wallet"
	"aqualedger/internal/shared/confidential"
)

var (
	ErrUnknownHandle = errors.New("oracle: unknown ciphertext handle")
	ErrProofMismatch = errors.New("oracle: input proof does not match handle")
	ErrProofConsumed = errors.New("oracle: input proof already consumed")
	ErrWrongBinding  = errors.New("oracle: handle is bound to another contract or user")
)

type Clock interface {
	Now() time.Time
}

// ciphertext is a vault entry. The proof authorizes exactly one ledger
// write of the handle it was issued with.
type ciphertext struct {
	plaintext  uint64
	contract   string
	user       string
	proof      string
	proofSpent bool
}

// Oracle is safe for concurrent use. One instance backs every module in a
// process so handles issued to a session verify on the ledger side.
type Oracle struct {
	chainID  uint64
	verifier string
	clock    Clock

	mu           sync.Mutex
	vault        map[confidential.Handle]ciphertext
	accounts     map[string]ed25519.PublicKey
	revoked      map[string]struct{}
	seq          uint64
	decryptCalls int
}

func New(chainID uint64, verifierAddress string, clock Clock) *Oracle {
	return &Oracle{
		chainID:  chainID,
		verifier: strings.ToLower(strings.TrimSpace(verifierAddress)),
		clock:    clock,
		vault:    make(map[confidential.Handle]ciphertext),
		accounts: make(map[string]ed25519.PublicKey),
		revoked:  make(map[string]struct{}),
	}
}

// RegisterAccount binds a user address to the public key its grant
// signatures verify against. Grants from unregistered addresses are
// rejected.
func (o *Oracle) RegisterAccount(userAddress string, publicKey ed25519.PublicKey) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.accounts[normalize(userAddress)] = publicKey
}

// RevokeSignature invalidates one issued grant signature so later decrypts
// under it are rejected. Used to exercise stale-grant handling.
func (o *Oracle) RevokeSignature(signature string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.revoked[signature] = struct{}{}
}

// DecryptCalls reports how many UserDecrypt requests reached the oracle.
func (o *Oracle) DecryptCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.decryptCalls
}

// Encrypt stores the plaintext in the vault and returns a fresh handle with
// a single-use proof bound to the contract and user.
func (o *Oracle) Encrypt(_ context.Context, plaintext uint64, contractAddress, userAddress string) (ports.EncryptedInput, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	contract := normalize(contractAddress)
	user := normalize(userAddress)
	handle := o.newHandleLocked(plaintext, contract, user)
	proof := hex.EncodeToString(keccak([]byte("proof|" + string(handle))))
	o.vault[handle] = ciphertext{
		plaintext: plaintext,
		contract:  contract,
		user:      user,
		proof:     proof,
	}
	return ports.EncryptedInput{Handle: handle, Proof: confidential.Proof(proof)}, nil
}

// VerifyInput checks that the proof was issued for this handle, contract,
// and user, then consumes it.
func (o *Oracle) VerifyInput(_ context.Context, handle confidential.Handle, proof confidential.Proof, contractAddress, userAddress string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry, ok := o.vault[handle]
	if !ok {
		return ErrUnknownHandle
	}
	if entry.contract != normalize(contractAddress) || entry.user != normalize(userAddress) {
		return ErrWrongBinding
	}
	if entry.proof == "" || entry.proof != string(proof) {
		return ErrProofMismatch
	}
	if entry.proofSpent {
		return ErrProofConsumed
	}
	entry.proofSpent = true
	o.vault[handle] = entry
	return nil
}

// Add returns a handle for the sum of two ciphertexts. The result carries
// the binding of the first operand and no input proof; it can be decrypted
// but never submitted as a fresh input.
func (o *Oracle) Add(_ context.Context, a, b confidential.Handle) (confidential.Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	left, ok := o.vault[a]
	if !ok {
		return "", ErrUnknownHandle
	}
	right, ok := o.vault[b]
	if !ok {
		return "", ErrUnknownHandle
	}
	if left.user != right.user {
		return "", ErrWrongBinding
	}

	sum := left.plaintext + right.plaintext
	handle := o.newHandleLocked(sum, left.contract, left.user)
	o.vault[handle] = ciphertext{
		plaintext: sum,
		contract:  left.contract,
		user:      left.user,
	}
	return handle, nil
}

func (o *Oracle) GenerateKeypair(_ context.Context) (ports.Keypair, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq++
	seed := keccak([]byte(fmt.Sprintf("keypair|%d", o.seq)))
	return ports.Keypair{
		PublicKey:  "0x" + hex.EncodeToString(seed),
		PrivateKey: "0x" + hex.EncodeToString(keccak(seed)),
	}, nil
}

// UserDecrypt resolves handles to plaintexts under a grant. The grant must
// be inside its validity window, signed by the registered key of its user,
// not revoked, and must cover every requested contract; each handle must be
// bound to the grant's user and its paired contract.
func (o *Oracle) UserDecrypt(_ context.Context, grant ports.DecryptionGrant, pairs []ports.HandleContractPair) (map[confidential.Handle]uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decryptCalls++

	if err := o.verifyGrantLocked(grant); err != nil {
		return nil, err
	}

	covered := make(map[string]struct{}, len(grant.ContractAddresses))
	for _, contract := range grant.ContractAddresses {
		covered[normalize(contract)] = struct{}{}
	}

	user := normalize(grant.UserAddress)
	values := make(map[confidential.Handle]uint64, len(pairs))
	for _, pair := range pairs {
		entry, ok := o.vault[pair.Handle]
		if !ok {
			return nil, ErrUnknownHandle
		}
		contract := normalize(pair.ContractAddress)
		if _, ok := covered[contract]; !ok {
			return nil, domainerrors.ErrGrantRejected
		}
		if entry.contract != contract || entry.user != user {
			return nil, ErrWrongBinding
		}
		values[pair.Handle] = entry.plaintext
	}
	return values, nil
}

func (o *Oracle) verifyGrantLocked(grant ports.DecryptionGrant) error {
	if !grant.ValidAt(o.now()) {
		return domainerrors.ErrGrantRejected
	}
	if _, revoked := o.revoked[grant.Signature]; revoked {
		return domainerrors.ErrGrantRejected
	}

	publicKey, ok := o.accounts[normalize(grant.UserAddress)]
	if !ok {
		return domainerrors.ErrGrantRejected
	}
	signature, err := hex.DecodeString(strings.TrimPrefix(grant.Signature, "0x"))
	if err != nil {
		return domainerrors.ErrGrantRejected
	}

	digest := wallet.TypedDataDigest(ports.TypedData{
		Domain: ports.TypedDataDomain{
			Name:              "Decryption",
			Version:           "1",
			ChainID:           o.chainID,
			VerifyingContract: o.verifier,
		},
		PrimaryType: "UserDecryptRequestVerification",
		Message: ports.GrantMessage{
			PublicKey:         grant.PublicKey,
			ContractAddresses: grant.ContractAddresses,
			StartTimestamp:    grant.StartTimestamp,
			DurationDays:      grant.DurationDays,
		},
	})
	if !ed25519.Verify(publicKey, digest[:], signature) {
		return domainerrors.ErrGrantRejected
	}
	return nil
}

func (o *Oracle) newHandleLocked(plaintext uint64, contract, user string) confidential.Handle {
	o.seq++
	digest := keccak([]byte(fmt.Sprintf("handle|%d|%d|%s|%s", o.seq, plaintext, contract, user)))
	return confidential.Handle("0x" + hex.EncodeToString(digest))
}

func (o *Oracle) now() time.Time {
	if o.clock == nil {
		return time.Now().UTC()
	}
	return o.clock.Now().UTC()
}

func normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func keccak(input []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(input)
	return hash.Sum(nil)
}
