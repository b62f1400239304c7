package application

import (
	"context"
	"sort"
	"strings"

	domainerrors "aqualedger/contexts/client-session/reveal-service/domain/errors"
	"aqualedger/contexts/client-session/reveal-service/ports"
)

const (
	grantPrimaryType = "UserDecryptRequestVerification"
	domainName       = "Decryption"
	domainVersion    = "1"
)

// AcquireGrant returns a cached grant for (user, contract set) when one is
// still inside its validity window, otherwise builds a fresh key pair,
// requests one wallet signature, and caches the result. A signature is
// requested at most once per validity window per contract set.
func (s Service) AcquireGrant(
	ctx context.Context,
	userAddress string,
	signer ports.Signer,
	contractAddresses []string,
) (ports.DecryptionGrant, error) {
	userAddress = strings.ToLower(strings.TrimSpace(userAddress))
	contracts := normalizeContracts(contractAddresses)
	if userAddress == "" || len(contracts) == 0 {
		return ports.DecryptionGrant{}, domainerrors.ErrGrantUnavailable
	}

	key := grantKey(userAddress, contracts)
	now := s.now()
	if grant, ok := s.Grants.Get(key, now); ok {
		return grant, nil
	}

	keypair, err := s.Values.GenerateKeypair(ctx)
	if err != nil {
		return ports.DecryptionGrant{}, domainerrors.ErrGrantUnavailable
	}

	message := ports.GrantMessage{
		PublicKey:         keypair.PublicKey,
		ContractAddresses: contracts,
		StartTimestamp:    now.Unix(),
		DurationDays:      s.durationDays(),
	}
	signature, err := signer.SignTypedData(ctx, ports.TypedData{
		Domain: ports.TypedDataDomain{
			Name:              domainName,
			Version:           domainVersion,
			ChainID:           s.ChainID,
			VerifyingContract: s.DecryptionVerifier,
		},
		PrimaryType: grantPrimaryType,
		Message:     message,
	})
	if err != nil {
		return ports.DecryptionGrant{}, domainerrors.ErrSignatureRejected
	}

	grant := ports.DecryptionGrant{
		PublicKey:         keypair.PublicKey,
		PrivateKey:        keypair.PrivateKey,
		Signature:         signature,
		UserAddress:       userAddress,
		ContractAddresses: contracts,
		StartTimestamp:    message.StartTimestamp,
		DurationDays:      message.DurationDays,
	}
	s.Grants.Put(key, grant)

	resolveLogger(s.Logger).Info("decryption grant signed",
		"event", "reveal_grant_signed",
		"module", "client-session/reveal-service",
		"layer", "application",
		"user_address", userAddress,
		"contracts", len(contracts),
		"duration_days", grant.DurationDays,
	)
	return grant, nil
}

func (s Service) invalidateGrant(userAddress string, contractAddresses []string) {
	s.Grants.Delete(grantKey(
		strings.ToLower(strings.TrimSpace(userAddress)),
		normalizeContracts(contractAddresses),
	))
}

func normalizeContracts(contractAddresses []string) []string {
	seen := make(map[string]struct{}, len(contractAddresses))
	contracts := make([]string, 0, len(contractAddresses))
	for _, address := range contractAddresses {
		value := strings.ToLower(strings.TrimSpace(address))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		contracts = append(contracts, value)
	}
	sort.Strings(contracts)
	return contracts
}

func grantKey(userAddress string, contracts []string) string {
	return userAddress + "|" + strings.Join(contracts, ",")
}
