package ingest

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/navwatch/internal/config"
	"github.com/yourusername/navwatch/internal/database"
	"github.com/yourusername/navwatch/internal/models"
	"github.com/yourusername/navwatch/internal/repository"
)

// failingRepository returns err from every call.
type failingRepository struct {
	err error
}

func (r *failingRepository) Upsert(context.Context, *models.StrategySnapshot) error { return r.err }
func (r *failingRepository) GetByName(context.Context, string) (*models.StrategySnapshot, error) {
	return nil, r.err
}
func (r *failingRepository) List(context.Context) ([]*models.StrategySnapshot, error) {
	return nil, r.err
}
func (r *failingRepository) Count(context.Context) (int, error) { return 0, r.err }

// recordingRepository keeps upserts in memory.
type recordingRepository struct {
	mu   sync.Mutex
	rows map[string]*models.StrategySnapshot
}

func (r *recordingRepository) Upsert(_ context.Context, s *models.StrategySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows == nil {
		r.rows = make(map[string]*models.StrategySnapshot)
	}
	copied := *s
	r.rows[s.StrategyName] = &copied
	return nil
}
func (r *recordingRepository) GetByName(_ context.Context, name string) (*models.StrategySnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[name]
	if !ok {
		return nil, models.ErrNotFound
	}
	return s, nil
}
func (r *recordingRepository) List(context.Context) ([]*models.StrategySnapshot, error) {
	return nil, nil
}
func (r *recordingRepository) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows), nil
}

func newTestService(t *testing.T, repo repository.SnapshotRepository) (*Service, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	svc, err := NewService(testAPIKey, repo, log)
	require.NoError(t, err)
	return svc, hook
}

func post(body []byte) Request {
	return Request{Method: http.MethodPost, Body: body, RemoteAddr: "10.0.0.7"}
}

func TestServiceHandleSuccess(t *testing.T) {
	repo := &recordingRepository{}
	svc, hook := newTestService(t, repo)

	res := svc.Handle(context.Background(), post(payload(t, map[string]any{
		"strategy_name": " btc_usdt_strategy_1 ",
		"system_token":  "ETH",
	})))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, Response{
		Status:   "success",
		Message:  "Data updated successfully",
		Strategy: "btc_usdt_strategy_1",
	}, res.Response)

	stored, err := repo.GetByName(context.Background(), "btc_usdt_strategy_1")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-22 14:30:00", stored.LastUpdate)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "btc_usdt_strategy_1", entry.Data["strategy_name"])
	assert.Equal(t, "ETH", entry.Data["system_token"])
	assert.NotContains(t, entry.Data, "nav_btc")
}

func TestServiceHandleRejection(t *testing.T) {
	repo := &recordingRepository{}
	svc, hook := newTestService(t, repo)

	res := svc.Handle(context.Background(), post(payload(t, map[string]any{"api_key": "leaked-guess"})))

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "error", res.Response.Status)
	assert.Equal(t, "Invalid API key", res.Response.Message)
	assert.Empty(t, res.Response.Strategy)

	count, _ := repo.Count(context.Background())
	assert.Zero(t, count)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "InvalidApiKey", entry.Data["error_kind"])
	for _, v := range entry.Data {
		assert.NotEqual(t, "leaked-guess", v)
	}
}

func TestServiceHandleWrongMethod(t *testing.T) {
	svc, _ := newTestService(t, &recordingRepository{})

	res := svc.Handle(context.Background(), Request{Method: http.MethodGet})

	assert.Equal(t, http.StatusMethodNotAllowed, res.Code)
	assert.Equal(t, "Method not allowed. Use POST.", res.Response.Message)
}

func TestServiceHandleStoreFailure(t *testing.T) {
	cause := errors.New("connection refused to 10.1.2.3:5432")
	svc, hook := newTestService(t, &failingRepository{err: cause})

	res := svc.Handle(context.Background(), post(payload(t, nil)))

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, Response{Status: "error", Message: "Internal server error"}, res.Response)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, cause, entry.Data[logrus.ErrorKey])
}

func TestServiceReject(t *testing.T) {
	svc, _ := newTestService(t, &recordingRepository{})

	res := svc.Reject(NewError(KindRateLimited, MsgRateLimited), "10.0.0.7")

	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Equal(t, "Too many requests", res.Response.Message)
}

func newSQLiteService(t *testing.T) (*Service, repository.SnapshotRepository) {
	t.Helper()
	ctx := context.Background()
	conn, err := database.Initialize(ctx, &config.DatabaseConfig{
		Engine: config.EngineSQLite,
		Path:   filepath.Join(t.TempDir(), "ingest.sqlite"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	repos, err := repository.NewRepositories(conn, 5*time.Second)
	require.NoError(t, err)

	svc, _ := newTestService(t, repos.Snapshot)
	return svc, repos.Snapshot
}

func TestServiceFullReplaceOnSecondWrite(t *testing.T) {
	svc, repo := newSQLiteService(t)
	ctx := context.Background()

	first := []byte(`{"api_key":"test-secret-key","strategy_name":"eth_strategy","nav":5000,
		"nav_btc":0.1,"system_token":"BNB","fee_currency_balance":0.5,"fee_currency_balance_usd":300,
		"last_trade":"1729609530","timestamp":"2025-10-22 14:30:00"}`)
	require.Equal(t, http.StatusOK, svc.Handle(ctx, post(first)).Code)

	second := []byte(`{"api_key":"test-secret-key","strategy_name":"eth_strategy","nav":"6000",
		"timestamp":"2025-10-22 14:35:00"}`)
	require.Equal(t, http.StatusOK, svc.Handle(ctx, post(second)).Code)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.GetByName(ctx, "eth_strategy")
	require.NoError(t, err)
	assert.Equal(t, "6000", got.Nav.String())
	assert.False(t, got.NavBtc.Valid)
	assert.Nil(t, got.SystemToken)
	assert.False(t, got.FeeCurrencyBalance.Valid)
	assert.False(t, got.FeeCurrencyBalanceUSD.Valid)
	assert.Nil(t, got.LastTrade)
	assert.Equal(t, "2025-10-22 14:35:00", got.LastUpdate)
}

func TestServiceRejectedWriteLeavesStoreUntouched(t *testing.T) {
	svc, repo := newSQLiteService(t)
	ctx := context.Background()

	res := svc.Handle(ctx, post(payload(t, map[string]any{"nav": "not-a-number"})))
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "NAV must be numeric", res.Response.Message)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestServiceConcurrentWritesSameName(t *testing.T) {
	svc, repo := newSQLiteService(t)
	ctx := context.Background()

	body := payload(t, nil)
	var wg sync.WaitGroup
	codes := make(chan int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- svc.Handle(ctx, post(body)).Code
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
