package service

import (
	"context"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/chainsafe/mobee-ledger/pkg/token"
)

const serviceName = "TokenService"

// logService wraps Service with logging of every mutating call
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the token Service.
// Reads are passed through; mutations log entry, outcome and duration.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) Info(ctx context.Context) *token.Info {
	return ls.svc.Info(ctx)
}

func (ls *logService) BalanceOf(ctx context.Context, account string) (*uint256.Int, error) {
	return ls.svc.BalanceOf(ctx, account)
}

func (ls *logService) Allowance(ctx context.Context, owner, spender string) (*uint256.Int, error) {
	return ls.svc.Allowance(ctx, owner, spender)
}

// Transfer wraps the service method with logging
func (ls *logService) Transfer(ctx context.Context, req *token.TransferRequest) (res *token.Result, err error) {
	start := time.Now()
	fields := []zap.Field{
		zap.String("caller", req.Caller),
		zap.String("to", req.To),
		zap.String("amount", req.Amount),
	}
	ls.started(token.OpTransfer, fields)
	defer func() { ls.finished(token.OpTransfer, start, fields, res, err) }()

	return ls.svc.Transfer(ctx, req)
}

// Approve wraps the service method with logging
func (ls *logService) Approve(ctx context.Context, req *token.ApproveRequest) (res *token.Result, err error) {
	start := time.Now()
	fields := []zap.Field{
		zap.String("caller", req.Caller),
		zap.String("spender", req.Spender),
		zap.String("amount", req.Amount),
	}
	ls.started(token.OpApprove, fields)
	defer func() { ls.finished(token.OpApprove, start, fields, res, err) }()

	return ls.svc.Approve(ctx, req)
}

// TransferFrom wraps the service method with logging
func (ls *logService) TransferFrom(ctx context.Context, req *token.TransferFromRequest) (res *token.Result, err error) {
	start := time.Now()
	fields := []zap.Field{
		zap.String("caller", req.Caller),
		zap.String("owner", req.Owner),
		zap.String("to", req.To),
		zap.String("amount", req.Amount),
	}
	ls.started(token.OpTransferFrom, fields)
	defer func() { ls.finished(token.OpTransferFrom, start, fields, res, err) }()

	return ls.svc.TransferFrom(ctx, req)
}

func (ls *logService) Flush(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.logger.Error("Flush failed",
				zap.String("service", serviceName),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
		}
	}()
	return ls.svc.Flush(ctx)
}

func (ls *logService) started(method string, fields []zap.Field) {
	ls.logger.Debug(method+" started", append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
	}, fields...)...)
}

func (ls *logService) finished(method string, start time.Time, fields []zap.Field, res *token.Result, err error) {
	fields = append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
		zap.Duration("duration", time.Since(start)),
	}, fields...)

	if err != nil {
		ls.logger.Warn(method+" failed", append(fields, zap.Error(err))...)
		return
	}
	ls.logger.Info(method+" completed", append(fields,
		zap.String("operation_id", res.OperationID.String()),
		zap.Uint64("seq", res.Event.Seq),
	)...)
}
