package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bank-spn/manus-pos/internal/cart"
	"github.com/bank-spn/manus-pos/internal/cartstore"
	"github.com/bank-spn/manus-pos/internal/domain"
)

// Language of the terminal UI. Thai is the default.
type Language string

const (
	LanguageTH Language = "th"
	LanguageEN Language = "en"
)

func (l Language) IsValid() bool {
	return l == LanguageTH || l == LanguageEN
}

const persistTimeout = 2 * time.Second

// Session is one terminal's working state: the cart ledger, the selected
// table and the UI language. With a store attached every mutation is
// written behind, so a restarted terminal resumes mid-order.
type Session struct {
	terminalID string
	ledger     *cart.Ledger
	store      cartstore.Store

	mu       sync.RWMutex
	tableID  *int64
	language Language
}

func New(terminalID string) *Session {
	return &Session{
		terminalID: terminalID,
		ledger:     cart.NewLedger(),
		language:   LanguageTH,
	}
}

// WithStore attaches cart persistence.
func (s *Session) WithStore(store cartstore.Store) *Session {
	s.store = store
	return s
}

func (s *Session) TerminalID() string { return s.terminalID }

// Ledger exposes the cart for reading and for the checkout orchestrator.
// Mutations should go through the session so they persist.
func (s *Session) Ledger() *cart.Ledger { return s.ledger }

func (s *Session) AddProduct(product domain.Product, qty int) {
	s.ledger.Add(product, qty)
	s.persist()
}

func (s *Session) SetQuantity(productID int64, qty int) {
	s.ledger.SetQuantity(productID, qty)
	s.persist()
}

func (s *Session) RemoveProduct(productID int64) {
	s.ledger.Remove(productID)
	s.persist()
}

// ClearCart empties the ledger and drops the persisted copy.
func (s *Session) ClearCart() {
	s.ledger.Clear()
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, s.terminalID); err != nil && !errors.Is(err, cartstore.ErrCartNotFound) {
		log.Printf("error deleting saved cart for %s: %v", s.terminalID, err)
	}
}

// SelectTable sets the table for the order in progress. nil means
// takeaway / no table.
func (s *Session) SelectTable(tableID *int64) {
	s.mu.Lock()
	s.tableID = tableID
	s.mu.Unlock()
	s.persist()
}

func (s *Session) Table() *int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tableID
}

func (s *Session) SetLanguage(lang Language) error {
	if !lang.IsValid() {
		return fmt.Errorf("unknown language %q", lang)
	}
	s.mu.Lock()
	s.language = lang
	s.mu.Unlock()
	s.persist()
	return nil
}

func (s *Session) Language() Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// Restore loads the persisted session state, if any. A missing saved
// cart is not an error; the session just starts empty.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	saved, err := s.store.Load(ctx, s.terminalID)
	if errors.Is(err, cartstore.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session %s: %w", s.terminalID, err)
	}

	s.ledger.Replace(cartstore.FromSavedLines(saved.Lines))
	s.mu.Lock()
	s.tableID = saved.TableID
	if lang := Language(saved.Language); lang.IsValid() {
		s.language = lang
	}
	s.mu.Unlock()

	log.Printf("restored session %s: %d lines", s.terminalID, len(saved.Lines))
	return nil
}

// persist writes the current state behind. Best effort: the ledger is
// interactive UI state, a failed write must not block the cashier.
func (s *Session) persist() {
	if s.store == nil {
		return
	}

	s.mu.RLock()
	saved := &cartstore.SavedCart{
		TerminalID: s.terminalID,
		Lines:      cartstore.ToSavedLines(s.ledger.Lines()),
		TableID:    s.tableID,
		Language:   string(s.language),
	}
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.store.Save(ctx, saved); err != nil {
		log.Printf("error persisting session %s: %v", s.terminalID, err)
	}
}
