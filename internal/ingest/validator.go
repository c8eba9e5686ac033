// Package ingest validates strategy snapshot updates and persists them.
package ingest

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/yourusername/navwatch/internal/models"
)

// MaxBodyBytes caps the size of an update payload.
const MaxBodyBytes = 1 << 20

// Decimal magnitude bounds for nav and fee values.
const (
	MaxDecimalExponent = 64
	MaxDecimalDigits   = 80
	MaxIntegerDigits   = 40
)

// MaxLastTrade is 9999-12-31 23:59:59 UTC.
const MaxLastTrade = 253402300799

// Payload field names.
const (
	FieldAPIKey                = "api_key"
	FieldStrategyName          = "strategy_name"
	FieldNav                   = "nav"
	FieldNavBtc                = "nav_btc"
	FieldSystemToken           = "system_token"
	FieldFeeCurrencyBalance    = "fee_currency_balance"
	FieldFeeCurrencyBalanceUSD = "fee_currency_balance_usd"
	FieldLastTrade             = "last_trade"
	FieldTimestamp             = "timestamp"
)

var requiredFields = []string{FieldAPIKey, FieldStrategyName, FieldNav, FieldTimestamp}

var (
	strategyNamePattern = regexp.MustCompile(`^[A-Za-z0-9_ -]+$`)
	digitsPattern       = regexp.MustCompile(`^[0-9]+$`)
)

// Validator runs the ordered update checks. It is safe for concurrent use.
type Validator struct {
	apiKeyHash [sha256.Size]byte
	validate   *validator.Validate
}

// NewValidator creates a validator bound to the configured API secret.
func NewValidator(apiKey string) (*Validator, error) {
	v := validator.New()
	if err := v.RegisterValidation("strategyname", func(fl validator.FieldLevel) bool {
		return strategyNamePattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}

	return &Validator{
		apiKeyHash: sha256.Sum256([]byte(apiKey)),
		validate:   v,
	}, nil
}

// Validate checks one update request. The first failing rule is returned
// as an *Error; on success the normalized snapshot is returned.
func (v *Validator) Validate(method string, body []byte) (*models.StrategySnapshot, error) {
	if method != http.MethodPost {
		return nil, NewError(KindMethodNotAllowed, MsgMethodNotAllowed)
	}

	input, err := decodeObject(body)
	if err != nil {
		return nil, NewError(KindInvalidJSON, MsgInvalidJSON)
	}

	if missing := missingFields(input); len(missing) > 0 {
		return nil, NewError(KindMissingParameters, MsgMissingParameters+strings.Join(missing, ", "))
	}

	if !v.apiKeyMatches(input[FieldAPIKey]) {
		return nil, NewError(KindInvalidAPIKey, MsgInvalidAPIKey)
	}

	snapshot := &models.StrategySnapshot{}

	if snapshot.StrategyName, err = v.strategyName(input[FieldStrategyName]); err != nil {
		return nil, err
	}

	nav, ok := parseDecimal(input[FieldNav])
	if !ok {
		return nil, NewError(KindInvalidNav, MsgInvalidNav)
	}
	snapshot.Nav = nav

	if snapshot.NavBtc, err = optionalDecimal(input, FieldNavBtc, KindInvalidNavBtc, MsgInvalidNavBtc); err != nil {
		return nil, err
	}

	if snapshot.SystemToken, err = v.systemToken(input); err != nil {
		return nil, err
	}

	if snapshot.FeeCurrencyBalance, err = optionalDecimal(input, FieldFeeCurrencyBalance, KindInvalidFeeBalance, MsgInvalidFeeBalance); err != nil {
		return nil, err
	}
	if snapshot.FeeCurrencyBalanceUSD, err = optionalDecimal(input, FieldFeeCurrencyBalanceUSD, KindInvalidFeeBalanceUSD, MsgInvalidFeeUSD); err != nil {
		return nil, err
	}

	if snapshot.LastTrade, err = lastTrade(input); err != nil {
		return nil, err
	}

	timestamp, ok := input[FieldTimestamp].(string)
	if !ok || !IsDatetime(timestamp) {
		return nil, NewError(KindInvalidDatetime, MsgInvalidDatetime)
	}
	snapshot.LastUpdate = timestamp

	return snapshot, nil
}

// decodeObject parses body as exactly one JSON object. Numbers are kept as
// json.Number so no precision is lost before decimal parsing.
func decodeObject(body []byte) (map[string]any, error) {
	if len(body) > MaxBodyBytes {
		return nil, errors.New("body too large")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var input map[string]any
	if err := dec.Decode(&input); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.New("body is not a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON object")
	}

	return input, nil
}

func missingFields(input map[string]any) []string {
	var missing []string
	for _, field := range requiredFields {
		if isBlank(input[field]) {
			missing = append(missing, field)
		}
	}
	return missing
}

// isBlank reports whether a value is absent, null or an all-space string.
func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

func (v *Validator) apiKeyMatches(value any) bool {
	key, ok := value.(string)
	if !ok {
		return false
	}
	given := sha256.Sum256([]byte(key))
	return subtle.ConstantTimeCompare(given[:], v.apiKeyHash[:]) == 1
}

func (v *Validator) strategyName(value any) (string, error) {
	raw, ok := value.(string)
	if !ok {
		return "", NewError(KindInvalidStrategyName, MsgStrategyNameCharset)
	}
	name := strings.TrimSpace(raw)

	err := v.validate.Var(name, "min=1,max=100,strategyname")
	if err == nil {
		return name, nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "strategyname" {
		return "", NewError(KindInvalidStrategyName, MsgStrategyNameCharset)
	}
	return "", NewError(KindInvalidStrategyName, MsgStrategyNameLength)
}

func (v *Validator) systemToken(input map[string]any) (*string, error) {
	value := input[FieldSystemToken]
	if isBlank(value) {
		return nil, nil
	}

	raw, ok := scalarString(value)
	if !ok {
		return nil, NewError(KindInvalidSystemToken, MsgInvalidSystemToken)
	}
	token := strings.TrimSpace(raw)
	if err := v.validate.Var(token, "max=20,alphanum"); err != nil {
		return nil, NewError(KindInvalidSystemToken, MsgInvalidSystemToken)
	}
	return &token, nil
}

func optionalDecimal(input map[string]any, field string, kind Kind, message string) (decimal.NullDecimal, error) {
	value := input[field]
	if isBlank(value) {
		return decimal.NullDecimal{}, nil
	}
	d, ok := parseDecimal(value)
	if !ok {
		return decimal.NullDecimal{}, NewError(kind, message)
	}
	return decimal.NewNullDecimal(d), nil
}

// parseDecimal accepts a JSON number or a numeric string.
func parseDecimal(value any) (decimal.Decimal, bool) {
	raw, ok := scalarString(value)
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !withinBounds(d) {
		return decimal.Decimal{}, false
	}
	return d, true
}

// withinBounds rejects values whose exponent or digit count would expand
// into an oversized string on storage or rendering.
func withinBounds(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	if exp > MaxDecimalExponent || exp < -MaxDecimalExponent {
		return false
	}
	digits := d.NumDigits()
	return digits <= MaxDecimalDigits && digits+exp <= MaxIntegerDigits
}

func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

// lastTrade converts an epoch second count, given as an integer or a digit
// string, into the stored UTC form.
func lastTrade(input map[string]any) (*string, error) {
	value := input[FieldLastTrade]
	if isBlank(value) {
		return nil, nil
	}

	invalid := NewError(KindInvalidLastTrade, MsgInvalidLastTrade)

	var raw string
	switch v := value.(type) {
	case json.Number:
		raw = v.String()
	case string:
		raw = strings.TrimSpace(v)
	default:
		return nil, invalid
	}
	if !digitsPattern.MatchString(raw) {
		return nil, invalid
	}

	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds > MaxLastTrade {
		return nil, invalid
	}

	formatted := time.Unix(seconds, 0).UTC().Format(models.TimestampLayout)
	return &formatted, nil
}

// IsDatetime reports whether value is a real calendar time written exactly
// as YYYY-MM-DD HH:MM:SS.
func IsDatetime(value string) bool {
	t, err := time.Parse(models.TimestampLayout, value)
	if err != nil {
		return false
	}
	return t.Format(models.TimestampLayout) == value
}
