// Package deployer implements app.Runner for the ledger deployment process.
package deployer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chainsafe/mobee-ledger/pkg/app"
	"github.com/chainsafe/mobee-ledger/pkg/config"
	"github.com/chainsafe/mobee-ledger/pkg/events/kafka"
	"github.com/chainsafe/mobee-ledger/pkg/keys"
	"github.com/chainsafe/mobee-ledger/pkg/ledger"
	"github.com/chainsafe/mobee-ledger/pkg/ledgerstore"
	"github.com/chainsafe/mobee-ledger/pkg/pgutil"
	"github.com/chainsafe/mobee-ledger/pkg/token"
	"github.com/chainsafe/mobee-ledger/pkg/token/service"
)

const defaultFlushTimeout = 30 * time.Second

var _ app.Runner = (*Server)(nil)

// Journal is the persistence a deployment writes to and resumes from
type Journal interface {
	CreateToken(ctx context.Context, token *ledgerstore.Token, opID uuid.UUID, mint ledger.Event) error
	service.Journal
	service.JournalReader
}

// Deployment is the outcome of creating a ledger
type Deployment struct {
	Address   common.Address
	Creator   common.Address
	Info      *token.Info
	Signature []byte
	Service   service.Service
}

// Server holds configuration for the deployment process.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new deployment Server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run creates the configured ledger, persists and publishes its mint record
// when the sinks are enabled, and logs the resulting ledger address.
func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("nil config")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging, zap.String("service", "ledger-deployer"))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := LoadEnvFile(cfg.Deployer.EnvFile); err != nil {
		return err
	}

	hexKey, err := cfg.Deployer.DeployerKey()
	if err != nil {
		return err
	}
	dep, err := keys.ParseDeployer(hexKey)
	if err != nil {
		return fmt.Errorf("load deployer key: %w", err)
	}
	logger.Info("Deploying with account", zap.String("account", dep.Address.Hex()))

	var journal Journal
	if cfg.Database.Enabled {
		db, err := pgutil.ConnectDB(ctx, &cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("connect journal db: %w", err)
		}
		defer func() { _ = db.Close() }()
		journal = ledgerstore.NewStore(db)
	}

	var publisher service.Publisher
	if cfg.Kafka.Enabled() {
		p := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := p.Close(); err != nil {
				logger.Warn("Failed to close kafka publisher", zap.Error(err))
			}
		}()
		publisher = p
		logger.Info("Publishing ledger events",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	ctx, cancel := context.WithTimeout(ctx, defaultFlushTimeout)
	defer cancel()

	_, err = Deploy(ctx, cfg.Token, dep, cfg.Deployer.Nonce, journal, publisher, logger)
	return err
}

// Deploy creates a ledger owned by dep. The ledger address is derived from
// the deployer address and nonce. journal and publisher may be nil.
func Deploy(
	ctx context.Context,
	tokenCfg config.TokenConfig,
	dep *keys.Deployer,
	nonce uint64,
	journal Journal,
	publisher service.Publisher,
	logger *zap.Logger,
) (*Deployment, error) {
	rawSupply, err := ledger.ParseAmount(tokenCfg.RawSupply)
	if err != nil {
		return nil, fmt.Errorf("invalid raw supply: %w", err)
	}

	l, err := ledger.New(tokenCfg.Name, tokenCfg.Symbol, rawSupply, dep.Address)
	if err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}

	address := dep.LedgerAddress(nonce)
	meta := l.Metadata()
	sig, err := dep.Sign(keys.DeploymentDigest(address, meta.Name, meta.Symbol, meta.TotalSupply.Bytes()))
	if err != nil {
		return nil, err
	}

	var opts []service.Option
	if publisher != nil {
		opts = append(opts, service.WithPublisher(publisher))
	}

	var ts *service.TokenService
	if journal != nil {
		tok := &ledgerstore.Token{
			Address:   address,
			Creator:   dep.Address,
			Metadata:  meta,
			Signature: sig,
		}
		if sig, err = createToken(ctx, journal, tok, l.Events(0)[0], logger); err != nil {
			return nil, err
		}
		// the mint is already journaled; the publisher may not have it yet
		opts = append(opts, service.WithJournal(journal), service.WithRepublish())
		if ts, err = service.Load(ctx, journal, address, logger, opts...); err != nil {
			return nil, fmt.Errorf("load deployed ledger: %w", err)
		}
	} else {
		ts = service.NewTokenService(address, l, logger, opts...)
	}

	svc := service.NewLog(ts, logger)
	if err := svc.Flush(ctx); err != nil {
		return nil, fmt.Errorf("persist mint record: %w", err)
	}

	info := svc.Info(ctx)
	logger.Info("Ledger deployed",
		zap.String("address", address.Hex()),
		zap.String("creator", dep.Address.Hex()),
		zap.String("name", info.Name),
		zap.String("symbol", info.Symbol),
		zap.Uint8("decimals", info.Decimals),
		zap.String("total_supply", ledger.FormatUnits(meta.TotalSupply, info.Decimals)),
		zap.Bool("journaled", journal != nil),
		zap.Bool("published", publisher != nil))

	return &Deployment{
		Address:   address,
		Creator:   dep.Address,
		Info:      info,
		Signature: sig,
		Service:   svc,
	}, nil
}

// createToken stores the ledger identity with its mint. When an earlier
// attempt already stored the same creator and metadata under the address,
// that deployment is resumed and its stored signature is returned.
func createToken(
	ctx context.Context,
	journal Journal,
	tok *ledgerstore.Token,
	mint ledger.Event,
	logger *zap.Logger,
) ([]byte, error) {
	err := journal.CreateToken(ctx, tok, uuid.New(), mint)
	if err == nil {
		return tok.Signature, nil
	}
	if !errors.Is(err, ledgerstore.ErrTokenExists) {
		return nil, fmt.Errorf("save token: %w", err)
	}

	stored, getErr := journal.GetToken(ctx, tok.Address)
	if getErr != nil {
		return nil, fmt.Errorf("save token: %w", errors.Join(err, getErr))
	}
	if !sameDeployment(stored, tok) {
		return nil, fmt.Errorf("save token: %w: stored creator or metadata differ", err)
	}

	logger.Info("Resuming stored deployment",
		zap.String("address", tok.Address.Hex()),
		zap.Time("created_at", stored.CreatedAt))
	if len(stored.Signature) > 0 {
		return stored.Signature, nil
	}
	return tok.Signature, nil
}

func sameDeployment(stored, tok *ledgerstore.Token) bool {
	a, b := stored.Metadata, tok.Metadata
	return stored.Creator == tok.Creator &&
		a.Name == b.Name &&
		a.Symbol == b.Symbol &&
		a.Decimals == b.Decimals &&
		a.TotalSupply != nil && b.TotalSupply != nil &&
		a.TotalSupply.Eq(b.TotalSupply)
}

// LoadEnvFile loads variables from a dotenv file without overriding the
// ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
