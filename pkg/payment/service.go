package payment

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ticketmesh/ticketmesh/pkg/log"
	"github.com/ticketmesh/ticketmesh/pkg/types"
)

// DeclinedCard is the well-known card number the simulated processor
// always declines. Everything else is approved.
const DeclinedCard = "9999"

// Service is the payment facade: a simulated card processor with a durable
// transaction ledger. The ledger is one JSON file rewritten after every
// transaction and read once at startup.
type Service struct {
	mu           sync.Mutex
	path         string
	transactions map[string]*types.Transaction
	logger       zerolog.Logger
}

// NewService loads (or creates) the transaction ledger file.
func NewService(path string) (*Service, error) {
	s := &Service{
		path:         path,
		transactions: make(map[string]*types.Transaction),
		logger:       log.WithComponent("payment"),
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &s.transactions); err != nil {
			return nil, fmt.Errorf("failed to parse transaction ledger %s: %w", path, err)
		}
		s.logger.Info().Int("transactions", len(s.transactions)).Msg("loaded transaction ledger")
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read transaction ledger %s: %w", path, err)
	}
	return s, nil
}

// ProcessPayment charges a card and records the outcome. Declined charges
// are recorded too, so failed bookings leave an audit trail.
func (s *Service) ProcessPayment(userID string, amountCents int64, currency, cardNumber string) (*types.Transaction, string) {
	status := types.TransactionCompleted
	message := "Payment processed."
	if strings.TrimSpace(cardNumber) == DeclinedCard {
		status = types.TransactionFailed
		message = "Card declined by issuer."
	}

	txn := &types.Transaction{
		TransactionID: uuid.New().String(),
		UserID:        userID,
		AmountCents:   amountCents,
		Currency:      currency,
		Status:        status,
		CreatedAt:     time.Now().UTC(),
		CardMasked:    maskCard(cardNumber),
	}

	s.mu.Lock()
	s.transactions[txn.TransactionID] = txn
	err := s.persistLocked()
	s.mu.Unlock()
	if err != nil {
		s.logger.Error().Err(err).Str("transaction_id", txn.TransactionID).Msg("failed to persist ledger")
	}

	s.logger.Info().
		Str("transaction_id", txn.TransactionID).
		Str("user_id", userID).
		Int64("amount_cents", amountCents).
		Str("status", string(status)).
		Msg("payment processed")
	return txn, message
}

// QueryTransaction looks up a transaction by id.
func (s *Service) QueryTransaction(transactionID string) (*types.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.transactions[transactionID]
	return txn, ok
}

// persistLocked rewrites the ledger file. Callers must hold mu.
func (s *Service) persistLocked() error {
	data, err := json.MarshalIndent(s.transactions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode transaction ledger: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write transaction ledger: %w", err)
	}
	return nil
}

func maskCard(cardNumber string) string {
	cardNumber = strings.TrimSpace(cardNumber)
	if len(cardNumber) < 4 {
		return "XXXX-XXXX-XXXX-" + cardNumber
	}
	return "XXXX-XXXX-XXXX-" + cardNumber[len(cardNumber)-4:]
}
