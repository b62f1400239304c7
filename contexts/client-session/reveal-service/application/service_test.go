package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"aqualedger/contexts/client-session/reveal-service/adapters/memory"
	domainerrors "aqualedger/contexts/client-session/reveal-service/domain/errors"
	"aqualedger/contexts/client-session/reveal-service/ports"
	"aqualedger/internal/shared/confidential"
)

const (
	testUser     = "0xuser"
	testContract = "0x00000000000000000000000000000000000000aa"
	testVerifier = "0x00000000000000000000000000000000000000bb"
)

type countingSigner struct {
	signCalls   int
	decline     bool
	lastRequest ports.TypedData
}

func (s *countingSigner) Address() string { return testUser }

func (s *countingSigner) SignTypedData(_ context.Context, data ports.TypedData) (string, error) {
	s.signCalls++
	s.lastRequest = data
	if s.decline {
		return "", errors.New("user rejected the request")
	}
	return fmt.Sprintf("sig-%d", s.signCalls), nil
}

type fakeValues struct {
	plaintexts   map[confidential.Handle]uint64
	omitted      map[confidential.Handle]struct{}
	encryptCalls int
	keypairCalls int
	decryptCalls int
	rejectNext   int
	blockDecrypt chan struct{}
	blockEncrypt chan struct{}
}

func newFakeValues() *fakeValues {
	return &fakeValues{plaintexts: make(map[confidential.Handle]uint64)}
}

func (f *fakeValues) Encrypt(_ context.Context, plaintext uint64, _, _ string) (ports.EncryptedInput, error) {
	if f.blockEncrypt != nil {
		<-f.blockEncrypt
	}
	f.encryptCalls++
	handle := confidential.Handle(fmt.Sprintf("0x%063x1", f.encryptCalls))
	f.plaintexts[handle] = plaintext
	return ports.EncryptedInput{Handle: handle, Proof: confidential.Proof("proof")}, nil
}

func (f *fakeValues) GenerateKeypair(_ context.Context) (ports.Keypair, error) {
	f.keypairCalls++
	return ports.Keypair{
		PublicKey:  fmt.Sprintf("pub-%d", f.keypairCalls),
		PrivateKey: fmt.Sprintf("priv-%d", f.keypairCalls),
	}, nil
}

func (f *fakeValues) UserDecrypt(_ context.Context, _ ports.DecryptionGrant, pairs []ports.HandleContractPair) (map[confidential.Handle]uint64, error) {
	if f.blockDecrypt != nil {
		<-f.blockDecrypt
	}
	f.decryptCalls++
	if f.rejectNext > 0 {
		f.rejectNext--
		return nil, domainerrors.ErrGrantRejected
	}
	values := make(map[confidential.Handle]uint64, len(pairs))
	for _, pair := range pairs {
		if _, skip := f.omitted[pair.Handle]; skip {
			continue
		}
		value, ok := f.plaintexts[pair.Handle]
		if !ok {
			return nil, errors.New("unknown handle")
		}
		values[pair.Handle] = value
	}
	return values, nil
}

type fakeLedger struct {
	submitErr   error
	statsErr    error
	submissions []ports.LedgerSubmission
	stats       ports.LedgerStats
}

func (f *fakeLedger) Submit(_ context.Context, submission ports.LedgerSubmission) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submissions = append(f.submissions, submission)
	f.stats.TotalDays++
	f.stats.Streak++
	return nil
}

func (f *fakeLedger) GetUserStats(_ context.Context, _ string) (ports.LedgerStats, error) {
	if f.statsErr != nil {
		return ports.LedgerStats{}, f.statsErr
	}
	return f.stats, nil
}

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func newTestService(values ports.ValueService, ledger ports.LedgerGateway, clock ports.Clock) Service {
	return Service{
		Ledger:             ledger,
		Values:             values,
		Grants:             memory.NewGrantStore(),
		Clock:              clock,
		ChainID:            31337,
		LedgerContract:     testContract,
		DecryptionVerifier: testVerifier,
	}
}

func storedHandle(values *fakeValues, plaintext uint64, suffix byte) confidential.Handle {
	handle := confidential.Handle(fmt.Sprintf("0x%062x%02x", plaintext, suffix))
	values.plaintexts[handle] = plaintext
	return handle
}

func TestRevealOneZeroHandleSkipsService(t *testing.T) {
	values := newFakeValues()
	signer := &countingSigner{}
	service := newTestService(values, &fakeLedger{}, nil)
	session := service.NewSession(testUser, signer)

	value, err := session.RevealOne(context.Background(), confidential.ZeroHandle)
	if err != nil {
		t.Fatalf("reveal zero handle failed: %v", err)
	}
	if value != 0 {
		t.Fatalf("expected 0, got %d", value)
	}
	if signer.signCalls != 0 || values.decryptCalls != 0 || values.keypairCalls != 0 {
		t.Fatalf("zero handle must not touch signer or value service")
	}
}

func TestGrantReuseWithinValidityWindow(t *testing.T) {
	values := newFakeValues()
	signer := &countingSigner{}
	service := newTestService(values, &fakeLedger{}, nil)
	session := service.NewSession(testUser, signer)
	ctx := context.Background()

	first := storedHandle(values, 10, 0x01)
	second := storedHandle(values, 5, 0x02)

	if _, err := session.RevealOne(ctx, first); err != nil {
		t.Fatalf("first reveal failed: %v", err)
	}
	if _, err := session.RevealOne(ctx, second); err != nil {
		t.Fatalf("second reveal failed: %v", err)
	}
	if signer.signCalls != 1 {
		t.Fatalf("expected exactly one signature request, got %d", signer.signCalls)
	}
}

func TestGrantExpiryRequestsFreshSignature(t *testing.T) {
	values := newFakeValues()
	signer := &countingSigner{}
	clock := &manualClock{now: time.Unix(1_760_000_000, 0).UTC()}
	service := newTestService(values, &fakeLedger{}, clock)
	session := service.NewSession(testUser, signer)
	ctx := context.Background()

	handle := storedHandle(values, 42, 0x01)
	if _, err := session.RevealOne(ctx, handle); err != nil {
		t.Fatalf("first reveal failed: %v", err)
	}

	clock.now = clock.now.Add(time.Duration(DefaultGrantDurationDays)*24*time.Hour + time.Hour)
	if _, err := session.RevealOne(ctx, handle); err != nil {
		t.Fatalf("reveal after expiry failed: %v", err)
	}
	if signer.signCalls != 2 {
		t.Fatalf("expected a fresh signature after expiry, got %d requests", signer.signCalls)
	}
}

func TestConfiguredGrantDurationIsSignedAndEnforced(t *testing.T) {
	values := newFakeValues()
	signer := &countingSigner{}
	clock := &manualClock{now: time.Unix(1_760_000_000, 0).UTC()}
	service := newTestService(values, &fakeLedger{}, clock)
	service.GrantDurationDays = 2
	session := service.NewSession(testUser, signer)
	ctx := context.Background()

	handle := storedHandle(values, 9, 0x01)
	if _, err := session.RevealOne(ctx, handle); err != nil {
		t.Fatalf("first reveal failed: %v", err)
	}
	if got := signer.lastRequest.Message.DurationDays; got != 2 {
		t.Fatalf("expected configured duration 2 in signed message, got %d", got)
	}

	// Inside the shorter window the grant is reused.
	clock.now = clock.now.Add(47 * time.Hour)
	if _, err := session.RevealOne(ctx, handle); err != nil {
		t.Fatalf("reveal within window failed: %v", err)
	}
	if signer.signCalls != 1 {
		t.Fatalf("expected grant reuse within window, got %d signatures", signer.signCalls)
	}

	// Past two days the grant is gone, well before the default seven.
	clock.now = clock.now.Add(2 * time.Hour)
	if _, err := session.RevealOne(ctx, handle); err != nil {
		t.Fatalf("reveal after expiry failed: %v", err)
	}
	if signer.signCalls != 2 {
		t.Fatalf("expected a fresh signature after the configured expiry, got %d", signer.signCalls)
	}
}

func TestRevealManyUsesOneGrantAndOneDecrypt(t *testing.T) {
	values := newFakeValues()
	signer := &countingSigner{}
	service := newTestService(values, &fakeLedger{}, nil)
	session := service.NewSession(testUser, signer)

	a := storedHandle(values, 10, 0x01)
	b := storedHandle(values, 5, 0x02)

	results, err := session.RevealMany(context.Background(), []confidential.Handle{a, confidential.ZeroHandle, b})
	if err != nil {
		t.Fatalf("reveal many failed: %v", err)
	}
	if results[a] != 10 || results[b] != 5 || results[confidential.ZeroHandle] != 0 {
		t.Fatalf("unexpected results: %#v", results)
	}
	if signer.signCalls != 1 {
		t.Fatalf("expected one grant acquisition, got %d", signer.signCalls)
	}
	if values.decryptCalls != 1 {
		t.Fatalf("expected one batched decrypt call, got %d", values.decryptCalls)
	}
}

func TestRevealManyRejectsPartialDecryptResponse(t *testing.T) {
	values := newFakeValues()
	signer := &countingSigner{}
	service := newTestService(values, &fakeLedger{}, nil)
	session := service.NewSession(testUser, signer)

	a := storedHandle(values, 10, 0x01)
	b := storedHandle(values, 5, 0x02)
	values.omitted = map[confidential.Handle]struct{}{b: {}}

	results, err := session.RevealMany(context.Background(), []confidential.Handle{a, b})
	if !errors.Is(err, domainerrors.ErrDecryptFailed) {
		t.Fatalf("expected ErrDecryptFailed for missing handle, got %v", err)
	}
	if results != nil {
		t.Fatalf("expected no results on partial response, got %#v", results)
	}
}

func TestSignerDeclineSurfacesSignatureRejected(t *testing.T) {
	values := newFakeValues()
	signer := &countingSigner{decline: true}
	service := newTestService(values, &fakeLedger{}, nil)
	session := service.NewSession(testUser, signer)

	handle := storedHandle(values, 7, 0x01)
	if _, err := session.RevealOne(context.Background(), handle); !errors.Is(err, domainerrors.ErrSignatureRejected) {
		t.Fatalf("expected ErrSignatureRejected, got %v", err)
	}
}

func TestStaleGrantReacquiredExactlyOnce(t *testing.T) {
	values := newFakeValues()
	values.rejectNext = 1
	signer := &countingSigner{}
	service := newTestService(values, &fakeLedger{}, nil)
	session := service.NewSession(testUser, signer)

	handle := storedHandle(values, 33, 0x01)
	value, err := session.RevealOne(context.Background(), handle)
	if err != nil {
		t.Fatalf("reveal after stale grant failed: %v", err)
	}
	if value != 33 {
		t.Fatalf("expected 33, got %d", value)
	}
	if signer.signCalls != 2 {
		t.Fatalf("expected one re-acquisition, got %d signatures", signer.signCalls)
	}
	if values.decryptCalls != 2 {
		t.Fatalf("expected one retry, got %d decrypt calls", values.decryptCalls)
	}
}

func TestStaleGrantSurfacesAfterSingleRetry(t *testing.T) {
	values := newFakeValues()
	values.rejectNext = 2
	signer := &countingSigner{}
	service := newTestService(values, &fakeLedger{}, nil)
	session := service.NewSession(testUser, signer)

	handle := storedHandle(values, 33, 0x01)
	if _, err := session.RevealOne(context.Background(), handle); !errors.Is(err, domainerrors.ErrDecryptFailed) {
		t.Fatalf("expected ErrDecryptFailed, got %v", err)
	}
	if values.decryptCalls != 2 {
		t.Fatalf("expected exactly two decrypt attempts, got %d", values.decryptCalls)
	}
}

func TestRevealSingleFlightRejectsConcurrentCalls(t *testing.T) {
	values := newFakeValues()
	values.blockDecrypt = make(chan struct{})
	signer := &countingSigner{}
	service := newTestService(values, &fakeLedger{}, nil)
	session := service.NewSession(testUser, signer)
	ctx := context.Background()

	handle := storedHandle(values, 9, 0x01)
	done := make(chan error, 1)
	go func() {
		_, err := session.RevealOne(ctx, handle)
		done <- err
	}()

	// Wait for the first reveal to reach the blocked decrypt call.
	deadline := time.After(2 * time.Second)
	for {
		if _, err := session.RevealOne(ctx, handle); errors.Is(err, domainerrors.ErrOperationInFlight) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("second reveal was never rejected as in-flight")
		default:
		}
	}

	close(values.blockDecrypt)
	if err := <-done; err != nil {
		t.Fatalf("first reveal failed: %v", err)
	}
}

func TestSubmitActionSingleFlight(t *testing.T) {
	values := newFakeValues()
	values.blockEncrypt = make(chan struct{})
	signer := &countingSigner{}
	service := newTestService(values, &fakeLedger{}, nil)
	session := service.NewSession(testUser, signer)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := session.SubmitAction(ctx, 10, 0, 1)
		done <- err
	}()

	deadline := time.After(2 * time.Second)
	for {
		if _, err := session.SubmitAction(ctx, 10, 0, 1); errors.Is(err, domainerrors.ErrOperationInFlight) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("second submit was never rejected as in-flight")
		default:
		}
	}

	close(values.blockEncrypt)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
}

func TestSubmitActionRefreshFailureKeepsSubmission(t *testing.T) {
	values := newFakeValues()
	ledger := &fakeLedger{statsErr: errors.New("node unavailable")}
	service := newTestService(values, ledger, nil)
	session := service.NewSession(testUser, &countingSigner{})

	outcome, err := session.SubmitAction(context.Background(), 10, 0, 1)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !outcome.Submitted {
		t.Fatal("expected submission to be recorded")
	}
	if outcome.StatsFresh {
		t.Fatal("stats must be reported stale when the refresh fails")
	}
	if len(ledger.submissions) != 1 {
		t.Fatalf("expected one ledger write, got %d", len(ledger.submissions))
	}
}

func TestSubmitActionPassesLedgerConflictThrough(t *testing.T) {
	conflict := errors.New("a submission already exists for this user and day")
	values := newFakeValues()
	ledger := &fakeLedger{submitErr: conflict}
	service := newTestService(values, ledger, nil)
	session := service.NewSession(testUser, &countingSigner{})

	if _, err := session.SubmitAction(context.Background(), 10, 0, 1); !errors.Is(err, conflict) {
		t.Fatalf("expected ledger conflict to pass through, got %v", err)
	}
}
