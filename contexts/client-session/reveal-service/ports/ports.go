package ports

import (
	"context"
	"time"

	"aqualedger/internal/shared/confidential"
)

// Keypair is the ephemeral reencryption key pair a grant is issued for.
type Keypair struct {
	PublicKey  string
	PrivateKey string
}

// EncryptedInput is a freshly encrypted plaintext: the handle plus the
// validity proof consumed exactly once by a ledger write.
type EncryptedInput struct {
	Handle confidential.Handle
	Proof  confidential.Proof
}

type HandleContractPair struct {
	Handle          confidential.Handle
	ContractAddress string
}

// DecryptionGrant is the signer-held credential authorizing decryption of
// handles bound to the listed contracts. It lives in process memory only
// and is never shared across user addresses.
type DecryptionGrant struct {
	PublicKey         string
	PrivateKey        string
	Signature         string
	UserAddress       string
	ContractAddresses []string
	StartTimestamp    int64
	DurationDays      uint32
}

// ValidAt reports whether now falls inside the grant validity window.
// Expiry is evaluated lazily at use time; there is no timer.
func (g DecryptionGrant) ValidAt(now time.Time) bool {
	if g.Signature == "" || g.DurationDays == 0 {
		return false
	}
	expiry := g.StartTimestamp + int64(g.DurationDays)*86400
	return now.Unix() >= g.StartTimestamp && now.Unix() <= expiry
}

// TypedDataDomain pins the structured message to one chain and verifier.
type TypedDataDomain struct {
	Name              string
	Version           string
	ChainID           uint64
	VerifyingContract string
}

type GrantMessage struct {
	PublicKey         string
	ContractAddresses []string
	StartTimestamp    int64
	DurationDays      uint32
}

// TypedData is the structured message presented to the wallet for signing.
type TypedData struct {
	Domain      TypedDataDomain
	PrimaryType string
	Message     GrantMessage
}

// Signer is the user's wallet.
type Signer interface {
	Address() string
	SignTypedData(ctx context.Context, data TypedData) (string, error)
}

// ValueService is the confidential compute service consumed by the client:
// input encryption, keypair generation, and grant-authorized decryption.
type ValueService interface {
	Encrypt(ctx context.Context, plaintext uint64, contractAddress, userAddress string) (EncryptedInput, error)
	GenerateKeypair(ctx context.Context) (Keypair, error)
	// UserDecrypt resolves a batch of handles under one grant. It is
	// idempotent per call.
	UserDecrypt(ctx context.Context, grant DecryptionGrant, pairs []HandleContractPair) (map[confidential.Handle]uint64, error)
}

// GrantStore caches grants keyed by (user, contract set) for the lifetime
// of the process. Implementations must not persist grants.
type GrantStore interface {
	Get(key string, now time.Time) (DecryptionGrant, bool)
	Put(key string, grant DecryptionGrant)
	Delete(key string)
}

// LedgerSubmission mirrors the ledger write surface consumed by the
// orchestrator; wiring to the ledger module happens in the composition root.
type LedgerSubmission struct {
	UserAddress string
	Amount      confidential.Handle
	Proof       confidential.Proof
	ActionType  uint8
	CityCode    uint32
}

type LedgerStats struct {
	TotalDays     uint32
	Streak        uint32
	LastSubmitDay uint64
	TotalLiters   confidential.Handle
}

type LedgerGateway interface {
	Submit(ctx context.Context, submission LedgerSubmission) error
	GetUserStats(ctx context.Context, userAddress string) (LedgerStats, error)
}

type Clock interface {
	Now() time.Time
}
