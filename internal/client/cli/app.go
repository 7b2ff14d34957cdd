package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/voxkeeper/internal/client/client"
	"github.com/dmitrijs2005/voxkeeper/internal/client/config"
	"github.com/dmitrijs2005/voxkeeper/internal/client/metrics"
	"github.com/dmitrijs2005/voxkeeper/internal/client/services"
	"github.com/dmitrijs2005/voxkeeper/internal/client/store"
	"github.com/dmitrijs2005/voxkeeper/internal/logging"
	"github.com/jonboulle/clockwork"

	_ "modernc.org/sqlite"
)

// sessionController is the part of services.SessionController the CLI drives.
type sessionController interface {
	Snapshot() services.Snapshot
	Handle(ctx context.Context, sig services.Signal) error
	Refresh(ctx context.Context) error
	Subscribe(fn func(services.Snapshot)) (unsubscribe func())
}

type App struct {
	config        *config.Config
	db            *sql.DB
	logger        logging.Logger
	metrics       *metrics.Metrics
	clock         clockwork.Clock
	session       sessionController
	authService   services.AuthService
	speechService services.SpeechService
	reader        *bufio.Reader
	out           io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	logger, err := logging.NewTextLogger(os.Stderr, c.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewHTTPClient(c.ServerURL)
	if err != nil {
		db.Close()
		return nil, err
	}

	clock := clockwork.NewRealClock()
	m := metrics.New()
	opts := []services.Option{
		services.WithLogger(logger),
		services.WithMetrics(m),
		services.WithClock(clock),
	}

	st := store.NewSQLiteStore(db, clock)
	syncer := services.NewProfileSynchronizer(apiClient, st, services.SyncConfig{
		FetchTimeout:            c.ProfileFetchTimeout,
		BreakerFailureThreshold: c.BreakerFailureThreshold,
		BreakerOpenTimeout:      c.BreakerOpenTimeout,
	}, opts...)
	session := services.NewSessionController(st, syncer, opts...)
	authorizer := services.NewActionAuthorizer(session, c.BalanceMaxAge, opts...)

	return &App{
		config:        c,
		db:            db,
		logger:        logger,
		metrics:       m,
		clock:         clock,
		session:       session,
		authService:   services.NewAuthService(apiClient, session),
		speechService: services.NewSpeechService(apiClient, st, authorizer, session, opts...),
		reader:        bufio.NewReader(os.Stdin),
		out:           os.Stdout,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.db.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().IsAuthenticated()
}

// StartRefreshWatcher re-validates the session every interval until ctx is
// done. Failures are already logged by the session layer.
func (a *App) StartRefreshWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := a.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			_ = a.session.Handle(ctx, services.SignalFocus)
		case <-ctx.Done():
			return
		}
	}
}
