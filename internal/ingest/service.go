package ingest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/navwatch/internal/logger"
	"github.com/yourusername/navwatch/internal/metrics"
	"github.com/yourusername/navwatch/internal/models"
	"github.com/yourusername/navwatch/internal/repository"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Request is one update call as seen by the service.
type Request struct {
	Method     string
	Body       []byte
	RemoteAddr string
}

// Response is the JSON body returned to the caller.
type Response struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Strategy string `json:"strategy,omitempty"`
}

// Result pairs the response body with its HTTP status code.
type Result struct {
	Code     int
	Response Response
}

// Service validates updates and upserts them into the snapshot store.
type Service struct {
	validator *Validator
	repo      repository.SnapshotRepository
	logger    *logger.IngestLogger
}

// NewService creates a new ingest service.
func NewService(apiKey string, repo repository.SnapshotRepository, log *logrus.Logger) (*Service, error) {
	v, err := NewValidator(apiKey)
	if err != nil {
		return nil, err
	}

	return &Service{
		validator: v,
		repo:      repo,
		logger:    logger.NewIngestLogger(log),
	}, nil
}

// Handle runs the full update pipeline. It never returns a datastore error
// to the caller; those are logged and reported as InternalError.
func (s *Service) Handle(ctx context.Context, req Request) Result {
	start := time.Now()

	snapshot, err := s.validator.Validate(req.Method, req.Body)
	if err != nil {
		return s.reject(err, req.RemoteAddr, start)
	}

	if err := s.repo.Upsert(ctx, snapshot); err != nil {
		s.logger.LogStoreFailure(snapshot.StrategyName, err)
		metrics.RecordStoreError("upsert")
		return s.reject(NewError(KindInternalError, MsgInternalError), req.RemoteAddr, start)
	}

	s.logger.LogSnapshotAccepted(snapshot.StrategyName, acceptedFields(snapshot))
	metrics.RecordIngest(StatusSuccess, time.Since(start).Seconds())
	nav, _ := snapshot.Nav.Float64()
	metrics.UpdateStrategyNav(snapshot.StrategyName, nav)

	return Result{
		Code: http.StatusOK,
		Response: Response{
			Status:   StatusSuccess,
			Message:  MsgSuccess,
			Strategy: snapshot.StrategyName,
		},
	}
}

// Reject builds the response for an error raised outside the pipeline, such
// as rate limiting.
func (s *Service) Reject(err *Error, remoteAddr string) Result {
	return s.reject(err, remoteAddr, time.Now())
}

func (s *Service) reject(err error, remoteAddr string, start time.Time) Result {
	var ingestErr *Error
	if !errors.As(err, &ingestErr) {
		ingestErr = NewError(KindInternalError, MsgInternalError)
	}

	if ingestErr.Kind != KindInternalError {
		s.logger.LogSnapshotRejected(string(ingestErr.Kind), ingestErr.Message, remoteAddr)
	}
	metrics.RecordIngest(string(ingestErr.Kind), time.Since(start).Seconds())

	return Result{
		Code: ingestErr.Status,
		Response: Response{
			Status:  StatusError,
			Message: ingestErr.Message,
		},
	}
}

func acceptedFields(s *models.StrategySnapshot) logrus.Fields {
	fields := logrus.Fields{
		FieldNav:       s.Nav.String(),
		FieldTimestamp: s.LastUpdate,
	}
	if s.NavBtc.Valid {
		fields[FieldNavBtc] = s.NavBtc.Decimal.String()
	}
	if s.SystemToken != nil {
		fields[FieldSystemToken] = *s.SystemToken
	}
	if s.FeeCurrencyBalance.Valid {
		fields[FieldFeeCurrencyBalance] = s.FeeCurrencyBalance.Decimal.String()
	}
	if s.FeeCurrencyBalanceUSD.Valid {
		fields[FieldFeeCurrencyBalanceUSD] = s.FeeCurrencyBalanceUSD.Decimal.String()
	}
	if s.LastTrade != nil {
		fields[FieldLastTrade] = *s.LastTrade
	}
	return fields
}
