package escrow

import (
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"sponsornet/core/events"
	"sponsornet/core/types"
)

var (
	errNilState        = errors.New("escrow engine: state not configured")
	errNilFeeCollector = errors.New("escrow engine: fee collector not configured")
	errNilTickSource   = errors.New("escrow engine: tick source not configured")
)

// DefaultTicksPerDay converts a retention period expressed in whole days to
// host ticks. The host advances one tick per second by default; deployments
// with a different tick cadence override it via SetTicksPerDay.
const DefaultTicksPerDay uint64 = 86_400

type engineState interface {
	EscrowPut(*Deal) error
	EscrowGet(id [32]byte) (*Deal, bool)
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

type dealEvent struct {
	evt *types.Event
}

func (e dealEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e dealEvent) Event() *types.Event { return e.evt }

// ModuleVaultAddress is the ledger identity that holds escrowed principal
// between deposit and resolution. It is derived, not key-controlled; only
// the engine's transfer path moves funds out of it.
func ModuleVaultAddress() [20]byte {
	hash := ethcrypto.Keccak256([]byte("sponsornet/escrow-vault"))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// Engine wires the escrow state machine to external state, the host clock
// and an event emitter. Business-rule rejections are reported as Outcome
// values with the record untouched; errors are reserved for host failures,
// which abort the invocation before any record mutation is persisted.
type Engine struct {
	state        engineState
	emitter      events.Emitter
	feeCollector [20]byte
	tickFn       func() uint64
	ticksPerDay  uint64
}

// NewEngine creates an escrow engine with a no-op emitter and the default
// tick cadence. The state backend, fee collector and tick source must be
// configured before use.
func NewEngine() *Engine {
	return &Engine{
		emitter:     events.NoopEmitter{},
		ticksPerDay: DefaultTicksPerDay,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetFeeCollector configures the identity that receives the platform fee at
// deposit time.
func (e *Engine) SetFeeCollector(addr [20]byte) { e.feeCollector = addr }

// SetTickSource configures the host clock. The engine never reads wall time.
func (e *Engine) SetTickSource(tick func() uint64) { e.tickFn = tick }

// SetTicksPerDay overrides the retention-period conversion constant. Zero
// resets the default.
func (e *Engine) SetTicksPerDay(ticks uint64) {
	if ticks == 0 {
		e.ticksPerDay = DefaultTicksPerDay
		return
	}
	e.ticksPerDay = ticks
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(dealEvent{evt: event})
}

func (e *Engine) currentTick() (uint64, error) {
	if e == nil || e.tickFn == nil {
		return 0, errNilTickSource
	}
	return e.tickFn(), nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return types.NewAccount()
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func (e *Engine) storeDeal(d *Deal) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return e.state.EscrowPut(d)
}

// transfer moves value between two ledger identities. A failed transfer is a
// host failure: the caller must not have mutated the record yet.
func (e *Engine) transfer(from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("escrow: negative transfer amount")
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	if fromAcc.Balance.Cmp(amt) < 0 {
		return fmt.Errorf("escrow: insufficient balance")
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

func (e *Engine) ensureFeeCollector() error {
	if e == nil {
		return errNilFeeCollector
	}
	if e.feeCollector == ([20]byte{}) {
		return errNilFeeCollector
	}
	return nil
}

// SetOracle binds the verification authority for the deal. The first call
// wins; any caller may perform the bootstrap, and later calls are silent
// no-ops so a compromised caller cannot redirect verification authority.
func (e *Engine) SetOracle(id [32]byte, candidate [20]byte) (Outcome, error) {
	if e == nil || e.state == nil {
		return Outcome{}, errNilState
	}
	deal, ok := e.state.EscrowGet(id)
	if !ok {
		deal = &Deal{ID: id, EscrowBalance: big.NewInt(0), PlatformFee: big.NewInt(0)}
	}
	if deal.OracleSet {
		return rejected(ReasonOracleAlreadySet), nil
	}
	deal.Oracle = candidate
	deal.OracleSet = true
	if err := e.storeDeal(deal); err != nil {
		return Outcome{}, err
	}
	e.emit(NewOracleBoundEvent(deal))
	return applied(), nil
}

// Deposit funds the escrow. The caller is recorded as the brand, the
// platform fee is carved off and forwarded to the fee collector immediately,
// and the remaining principal moves into the module vault. A deal accepts
// exactly one deposit in its lifetime, and never before its oracle is bound:
// rejections happen before any transfer, so the brand's payment is never
// retained.
func (e *Engine) Deposit(id [32]byte, from, influencer [20]byte, amount *big.Int, retentionDays uint32) (Outcome, error) {
	if e == nil || e.state == nil {
		return Outcome{}, errNilState
	}
	deal, ok := e.state.EscrowGet(id)
	if !ok || !deal.OracleSet {
		return rejected(ReasonOracleUnset), nil
	}
	if deal.Resolved() {
		return rejected(ReasonAlreadyResolved), nil
	}
	if deal.Active {
		return rejected(ReasonAlreadyFunded), nil
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return rejected(ReasonInvalidAmount), nil
	}
	if err := e.ensureFeeCollector(); err != nil {
		return Outcome{}, err
	}
	now, err := e.currentTick()
	if err != nil {
		return Outcome{}, err
	}
	fee, net := SplitFee(amt)
	vault := ModuleVaultAddress()
	if err := e.transfer(from, vault, amt); err != nil {
		return Outcome{}, err
	}
	if err := e.transfer(vault, e.feeCollector, fee); err != nil {
		return Outcome{}, err
	}
	deal.Brand = from
	deal.Influencer = influencer
	deal.EscrowBalance = net
	deal.PlatformFee = fee
	deal.RetentionEndTick = now + uint64(retentionDays)*e.ticksPerDay
	deal.CreatedAtTick = now
	deal.Active = true
	if err := e.storeDeal(deal); err != nil {
		return Outcome{}, err
	}
	e.emit(NewDepositedEvent(deal))
	return applied(), nil
}

// SubmitScore records the oracle's verification outcome. It is the single
// authoritative attestation: only the bound oracle may submit, and only
// once. Unauthorized or repeat calls leave the record unchanged.
func (e *Engine) SubmitScore(id [32]byte, caller [20]byte, score uint8) (Outcome, error) {
	if e == nil || e.state == nil {
		return Outcome{}, errNilState
	}
	deal, ok := e.state.EscrowGet(id)
	if !ok || !deal.OracleSet {
		return rejected(ReasonOracleUnset), nil
	}
	if score > MaxScore {
		return rejected(ReasonInvalidScore), nil
	}
	if caller != deal.Oracle {
		return rejected(ReasonNotOracle), nil
	}
	if deal.Verified {
		return rejected(ReasonAlreadyVerified), nil
	}
	deal.VerificationScore = score
	deal.Verified = true
	if err := e.storeDeal(deal); err != nil {
		return Outcome{}, err
	}
	e.emit(NewScoreSubmittedEvent(deal))
	return applied(), nil
}

// Release pays the held principal to the influencer once the deal is funded,
// verified with a passing score, and past its retention tick. Anyone may
// trigger it; a rejection is "not yet resolvable", not an error, and the
// call can be retried once conditions change.
func (e *Engine) Release(id [32]byte) (Outcome, error) {
	if e == nil || e.state == nil {
		return Outcome{}, errNilState
	}
	deal, ok := e.state.EscrowGet(id)
	if !ok {
		return rejected(ReasonNotActive), nil
	}
	if deal.Resolved() {
		return rejected(ReasonAlreadyResolved), nil
	}
	if !deal.Active {
		return rejected(ReasonNotActive), nil
	}
	if !deal.Verified {
		return rejected(ReasonNotVerified), nil
	}
	if deal.VerificationScore < RequiredScore {
		return rejected(ReasonScoreBelowBar), nil
	}
	now, err := e.currentTick()
	if err != nil {
		return Outcome{}, err
	}
	if now < deal.RetentionEndTick {
		return rejected(ReasonRetentionPending), nil
	}
	if err := e.transfer(ModuleVaultAddress(), deal.Influencer, deal.EscrowBalance); err != nil {
		return Outcome{}, err
	}
	deal.Paid = true
	deal.Active = false
	if err := e.storeDeal(deal); err != nil {
		return Outcome{}, err
	}
	e.emit(NewReleasedEvent(deal))
	return applied(), nil
}

// Refund returns the full original deposit to the brand when verification
// failed the score threshold. No retention gate applies: a failing score is
// refundable immediately. The withheld platform fee is clawed back from the
// fee collector so the brand is made whole.
func (e *Engine) Refund(id [32]byte) (Outcome, error) {
	if e == nil || e.state == nil {
		return Outcome{}, errNilState
	}
	deal, ok := e.state.EscrowGet(id)
	if !ok {
		return rejected(ReasonNotActive), nil
	}
	if deal.Resolved() {
		return rejected(ReasonAlreadyResolved), nil
	}
	if !deal.Active {
		return rejected(ReasonNotActive), nil
	}
	if !deal.Verified {
		return rejected(ReasonNotVerified), nil
	}
	if deal.VerificationScore >= RequiredScore {
		return rejected(ReasonScoreMeetsBar), nil
	}
	if err := e.ensureFeeCollector(); err != nil {
		return Outcome{}, err
	}
	if err := e.transfer(ModuleVaultAddress(), deal.Brand, deal.EscrowBalance); err != nil {
		return Outcome{}, err
	}
	if err := e.transfer(e.feeCollector, deal.Brand, deal.PlatformFee); err != nil {
		return Outcome{}, err
	}
	deal.Refunded = true
	deal.Active = false
	if err := e.storeDeal(deal); err != nil {
		return Outcome{}, err
	}
	e.emit(NewRefundedEvent(deal))
	return applied(), nil
}

// Snapshot returns a copy of the current record. It always succeeds for a
// known deal and reflects whatever state currently holds, including
// pre-deposit zero values.
func (e *Engine) Snapshot(id [32]byte) (*Deal, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	deal, ok := e.state.EscrowGet(id)
	if !ok {
		return nil, false, nil
	}
	return deal.Clone(), true, nil
}
