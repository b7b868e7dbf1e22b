package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/chainsafe/mobee-ledger/internal/metrics"
	apperrors "github.com/chainsafe/mobee-ledger/pkg/app/errors"
	"github.com/chainsafe/mobee-ledger/pkg/ledger"
	"github.com/chainsafe/mobee-ledger/pkg/ledgerstore"
	"github.com/chainsafe/mobee-ledger/pkg/token"
)

// Sink names used in the events persisted metric
const (
	sinkJournal   = "journal"
	sinkPublisher = "kafka"
)

// Journal stores emitted events
type Journal interface {
	AppendEvents(ctx context.Context, token common.Address, opID uuid.UUID, events ...ledger.Event) error
}

// Publisher forwards emitted events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, token common.Address, opID uuid.UUID, events ...ledger.Event) error
}

// JournalReader loads a stored ledger
type JournalReader interface {
	GetToken(ctx context.Context, address common.Address) (*ledgerstore.Token, error)
	ListEvents(ctx context.Context, token common.Address, fromSeq uint64) ([]ledger.Event, error)
}

// Service defines the token operations exposed over a single ledger
type Service interface {
	Info(ctx context.Context) *token.Info
	BalanceOf(ctx context.Context, account string) (*uint256.Int, error)
	Allowance(ctx context.Context, owner, spender string) (*uint256.Int, error)
	Transfer(ctx context.Context, req *token.TransferRequest) (*token.Result, error)
	Approve(ctx context.Context, req *token.ApproveRequest) (*token.Result, error)
	TransferFrom(ctx context.Context, req *token.TransferFromRequest) (*token.Result, error)
	// Flush hands events not yet accepted by the journal or the publisher
	// to them again and reports what still failed.
	Flush(ctx context.Context) error
}

// Option configures a TokenService
type Option func(*TokenService)

// WithJournal persists every emitted event to j
func WithJournal(j Journal) Option {
	return func(s *TokenService) { s.journal = j }
}

// WithPublisher publishes every emitted event to p
func WithPublisher(p Publisher) Option {
	return func(s *TokenService) { s.publisher = p }
}

// WithPersisted marks events below seq as already journaled and published
func WithPersisted(seq uint64) Option {
	return func(s *TokenService) {
		s.journaled = seq
		s.published = seq
	}
}

// WithRepublish hands every event to the publisher again on the next flush.
// Use it with Load when earlier publishing may not have completed.
func WithRepublish() Option {
	return func(s *TokenService) { s.published = 0 }
}

var _ Service = (*TokenService)(nil)

// TokenService fronts one ledger. Mutations are serialized so that events
// reach the journal and the publisher in sequence order.
type TokenService struct {
	address   common.Address
	ledger    *ledger.Ledger
	journal   Journal
	publisher Publisher
	validate  *validator.Validate
	logger    *zap.Logger

	mu        sync.Mutex
	journaled uint64
	published uint64
}

// NewTokenService creates a service for the ledger identified by address
func NewTokenService(address common.Address, l *ledger.Ledger, logger *zap.Logger, opts ...Option) *TokenService {
	s := &TokenService{
		address:  address,
		ledger:   l,
		validate: validator.New(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	metrics.TotalSupply.WithLabelValues(l.Symbol()).
		Set(ledger.ToDecimal(l.TotalSupply(), l.Decimals()).InexactFloat64())
	return s
}

// Load rebuilds the service of a stored ledger by replaying its journal
func Load(ctx context.Context, store JournalReader, address common.Address, logger *zap.Logger, opts ...Option) (*TokenService, error) {
	stored, err := store.GetToken(ctx, address)
	if err != nil {
		if errors.Is(err, ledgerstore.ErrTokenNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "token not found")
		}
		return nil, apperrors.DependencyError(err, "failed to load token")
	}

	events, err := store.ListEvents(ctx, address, 0)
	if err != nil {
		return nil, apperrors.DependencyError(err, "failed to load journal")
	}

	l, err := ledger.Restore(stored.Metadata, events)
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}

	logger.Info("Ledger restored from journal",
		zap.String("address", address.Hex()),
		zap.String("symbol", stored.Metadata.Symbol),
		zap.Int("events", len(events)))

	opts = append([]Option{WithPersisted(uint64(len(events)))}, opts...)
	return NewTokenService(address, l, logger, opts...), nil
}

func (s *TokenService) Info(_ context.Context) *token.Info {
	meta := s.ledger.Metadata()
	return &token.Info{
		Address:           s.address,
		Name:              meta.Name,
		Symbol:            meta.Symbol,
		Decimals:          meta.Decimals,
		TotalSupply:       meta.TotalSupply.Dec(),
		TotalSupplyTokens: ledger.ToDecimal(meta.TotalSupply, meta.Decimals),
	}
}

func (s *TokenService) BalanceOf(_ context.Context, account string) (balance *uint256.Int, err error) {
	defer s.observe(token.OpBalanceOf, time.Now(), &err)

	addr, err := s.parseAddress(account)
	if err != nil {
		return nil, err
	}
	return s.ledger.BalanceOf(addr), nil
}

func (s *TokenService) Allowance(_ context.Context, owner, spender string) (allowance *uint256.Int, err error) {
	defer s.observe(token.OpAllowance, time.Now(), &err)

	ownerAddr, err := s.parseAddress(owner)
	if err != nil {
		return nil, err
	}
	spenderAddr, err := s.parseAddress(spender)
	if err != nil {
		return nil, err
	}
	return s.ledger.Allowance(ownerAddr, spenderAddr), nil
}

func (s *TokenService) Transfer(ctx context.Context, req *token.TransferRequest) (res *token.Result, err error) {
	defer s.observe(token.OpTransfer, time.Now(), &err)

	if err = s.validateRequest(req); err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, token.OpTransfer, func() (*ledger.Receipt, error) {
		return s.ledger.Transfer(common.HexToAddress(req.Caller), common.HexToAddress(req.To), amount)
	})
}

func (s *TokenService) Approve(ctx context.Context, req *token.ApproveRequest) (res *token.Result, err error) {
	defer s.observe(token.OpApprove, time.Now(), &err)

	if err = s.validateRequest(req); err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, token.OpApprove, func() (*ledger.Receipt, error) {
		return s.ledger.Approve(common.HexToAddress(req.Caller), common.HexToAddress(req.Spender), amount)
	})
}

func (s *TokenService) TransferFrom(ctx context.Context, req *token.TransferFromRequest) (res *token.Result, err error) {
	defer s.observe(token.OpTransferFrom, time.Now(), &err)

	if err = s.validateRequest(req); err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, token.OpTransferFrom, func() (*ledger.Receipt, error) {
		return s.ledger.TransferFrom(
			common.HexToAddress(req.Caller),
			common.HexToAddress(req.Owner),
			common.HexToAddress(req.To),
			amount,
		)
	})
}

func (s *TokenService) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush(ctx, uuid.New())
}

// apply runs one ledger mutation and hands its event to the sinks. Sink
// failures are logged; the event stays pending and is retried on the next
// mutation or Flush.
func (s *TokenService) apply(ctx context.Context, op string, mutate func() (*ledger.Receipt, error)) (*token.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipt, err := mutate()
	if err != nil {
		return nil, apperrors.FromLedger(err)
	}

	opID := uuid.New()
	if ev := receipt.Event; ev.Kind == ledger.EventTransfer {
		metrics.TransferVolume.WithLabelValues(op, s.ledger.Symbol()).
			Observe(ledger.ToDecimal(ev.Value, ledger.Decimals).InexactFloat64())
	}

	if err := s.flush(ctx, opID); err != nil {
		s.logger.Warn("Ledger event not persisted, will retry",
			zap.String("operation", op),
			zap.String("operation_id", opID.String()),
			zap.Uint64("seq", receipt.Event.Seq),
			zap.Error(err))
	}

	return &token.Result{
		OperationID: opID,
		Success:     receipt.Success,
		Event:       receipt.Event,
	}, nil
}

// flush must be called with mu held
func (s *TokenService) flush(ctx context.Context, opID uuid.UUID) error {
	var errs []error

	if s.journal != nil {
		if pending := s.ledger.Events(s.journaled); len(pending) > 0 {
			if err := s.journal.AppendEvents(ctx, s.address, opID, pending...); err != nil {
				metrics.EventsPersisted.WithLabelValues(sinkJournal, "error").Add(float64(len(pending)))
				errs = append(errs, fmt.Errorf("journal: %w", err))
			} else {
				metrics.EventsPersisted.WithLabelValues(sinkJournal, "ok").Add(float64(len(pending)))
				s.journaled += uint64(len(pending))
			}
		}
	}

	if s.publisher != nil {
		if pending := s.ledger.Events(s.published); len(pending) > 0 {
			if err := s.publisher.Publish(ctx, s.address, opID, pending...); err != nil {
				metrics.EventsPersisted.WithLabelValues(sinkPublisher, "error").Add(float64(len(pending)))
				errs = append(errs, fmt.Errorf("publisher: %w", err))
			} else {
				metrics.EventsPersisted.WithLabelValues(sinkPublisher, "ok").Add(float64(len(pending)))
				s.published += uint64(len(pending))
			}
		}
	}

	if len(errs) > 0 {
		return apperrors.DependencyError(errors.Join(errs...), "failed to persist ledger events")
	}
	return nil
}

func (s *TokenService) observe(op string, start time.Time, errp *error) {
	metrics.OperationsTotal.WithLabelValues(op, apperrors.CategoryOf(*errp).Label()).Inc()
	metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *TokenService) validateRequest(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return apperrors.BadRequestError(err, "invalid request")
	}
	return nil
}

func (s *TokenService) parseAddress(raw string) (common.Address, error) {
	if err := s.validate.Var(raw, "required,eth_addr"); err != nil {
		return common.Address{}, apperrors.BadRequestError(err, "invalid address")
	}
	return common.HexToAddress(raw), nil
}

func parseAmount(raw string) (*uint256.Int, error) {
	amount, err := ledger.ParseAmount(raw)
	if err != nil {
		return nil, apperrors.BadRequestError(fmt.Errorf("%w: %w", ledger.ErrOverflow, err), "invalid amount")
	}
	return amount, nil
}
