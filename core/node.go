package core

import (
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"sync/atomic"

	"sponsornet/core/events"
	"sponsornet/core/state"
	"sponsornet/core/types"
	"sponsornet/native/escrow"
	"sponsornet/observability/metrics"
	"sponsornet/storage"
)

// ErrEscrowNotFound is returned when a queried deal identifier has no record.
var ErrEscrowNotFound = errors.New("core: escrow not found")

// Config carries the host parameters the node needs beyond its database.
type Config struct {
	FeeCollector [20]byte
	TicksPerDay  uint64
}

// Node is the invocation dispatcher for the escrow state machine. It owns
// the database, the state manager, the engine and the logical clock, and it
// serialises every invocation so each call executes to completion without
// interleaving.
type Node struct {
	mu     sync.Mutex
	db     storage.Database
	state  *state.Manager
	engine *escrow.Engine
	logger *slog.Logger

	tick atomic.Uint64

	eventsMu sync.RWMutex
	events   []types.Event
}

// NewNode assembles a node over the provided database. The clock resumes
// from the last persisted tick so restarts never observe time moving
// backwards.
func NewNode(db storage.Database, cfg Config) (*Node, error) {
	if db == nil {
		return nil, errors.New("core: database required")
	}
	manager := state.NewManager(db)
	n := &Node{
		db:     db,
		state:  manager,
		logger: slog.Default().With("component", "node"),
	}
	lastTick, err := manager.TickGet()
	if err != nil {
		return nil, err
	}
	n.tick.Store(lastTick)

	engine := escrow.NewEngine()
	engine.SetState(manager)
	engine.SetFeeCollector(cfg.FeeCollector)
	engine.SetTickSource(n.CurrentTick)
	engine.SetTicksPerDay(cfg.TicksPerDay)
	engine.SetEmitter(n)
	n.engine = engine
	return n, nil
}

// Emit implements events.Emitter: applied transitions land in the node's
// event log and the escrow metrics.
func (n *Node) Emit(evt events.Event) {
	carrier, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	payload := carrier.Event()
	if payload == nil {
		return
	}
	n.eventsMu.Lock()
	n.events = append(n.events, *payload)
	n.eventsMu.Unlock()
	metrics.Escrow().ObserveEvent(payload.Type)
}

// Events returns a copy of the emitted event log.
func (n *Node) Events() []types.Event {
	n.eventsMu.RLock()
	defer n.eventsMu.RUnlock()
	out := make([]types.Event, len(n.events))
	copy(out, n.events)
	return out
}

// CurrentTick reports the host's logical clock.
func (n *Node) CurrentTick() uint64 {
	return n.tick.Load()
}

// AdvanceTick moves the logical clock forward and persists it. The clock is
// monotonically non-decreasing; a zero delta is a no-op.
func (n *Node) AdvanceTick(delta uint64) uint64 {
	if delta == 0 {
		return n.tick.Load()
	}
	next := n.tick.Add(delta)
	if err := n.state.TickPut(next); err != nil {
		n.logger.Error("persist tick", "tick", next, "err", err)
	}
	return next
}

func (n *Node) observe(op string, out escrow.Outcome, err error) {
	if err != nil {
		n.logger.Error("escrow invocation failed", "op", op, "err", err)
		metrics.Escrow().ObserveFailure(op)
		return
	}
	if !out.Applied {
		n.logger.Debug("escrow call rejected", "op", op, "reason", string(out.Reason))
		metrics.Escrow().ObserveRejection(op, string(out.Reason))
		return
	}
	n.logger.Info("escrow transition applied", "op", op)
	metrics.Escrow().ObserveApplied(op)
}

// EscrowSetOracle binds the verification oracle for a deal.
func (n *Node) EscrowSetOracle(id [32]byte, candidate [20]byte) (escrow.Outcome, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out, err := n.engine.SetOracle(id, candidate)
	n.observe("set_oracle", out, err)
	return out, err
}

// EscrowDeposit funds a deal from the brand's ledger balance.
func (n *Node) EscrowDeposit(id [32]byte, from, influencer [20]byte, amount *big.Int, retentionDays uint32) (escrow.Outcome, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out, err := n.engine.Deposit(id, from, influencer, amount, retentionDays)
	n.observe("deposit", out, err)
	return out, err
}

// EscrowSubmitScore records the oracle's verification score.
func (n *Node) EscrowSubmitScore(id [32]byte, caller [20]byte, score uint8) (escrow.Outcome, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out, err := n.engine.SubmitScore(id, caller, score)
	n.observe("submit_score", out, err)
	return out, err
}

// EscrowRelease attempts the release transition.
func (n *Node) EscrowRelease(id [32]byte) (escrow.Outcome, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out, err := n.engine.Release(id)
	n.observe("release", out, err)
	return out, err
}

// EscrowRefund attempts the refund transition.
func (n *Node) EscrowRefund(id [32]byte) (escrow.Outcome, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out, err := n.engine.Refund(id)
	n.observe("refund", out, err)
	return out, err
}

// EscrowGet returns a snapshot of the deal record.
func (n *Node) EscrowGet(id [32]byte) (*escrow.Deal, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	deal, ok, err := n.engine.Snapshot(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEscrowNotFound
	}
	return deal, nil
}

// Mint credits an account balance. Local networks use it to seed brand
// wallets; it is not reachable from the escrow state machine.
func (n *Node) Mint(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("core: mint amount must be positive")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	acc, err := n.state.GetAccount(addr[:])
	if err != nil {
		return err
	}
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	return n.state.PutAccount(addr[:], acc)
}

// BalanceOf reports the ledger balance for an address.
func (n *Node) BalanceOf(addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	acc, err := n.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(acc.Balance), nil
}
