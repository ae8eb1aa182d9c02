package deeplink

import (
	"context"
	"sync"

	"github.com/mrz1836/paylink/internal/catalog"
	plerr "github.com/mrz1836/paylink/pkg/errors"
)

// ErrSuperseded indicates a newer wallet selection was made while a resolution was in flight.
var ErrSuperseded = &plerr.PaylinkError{
	Code:     "SELECTION_SUPERSEDED",
	Message:  "wallet selection was superseded",
	ExitCode: plerr.ExitGeneral,
}

// Ticket identifies one wallet selection. Zero is never issued.
type Ticket uint64

// Selector tracks the latest wallet selection so results of older,
// slower resolutions can be dropped. It is safe for concurrent use.
type Selector struct {
	mu     sync.Mutex
	seq    Ticket
	wallet catalog.WalletAppID
}

// Select records id as the current selection and returns its ticket.
func (s *Selector) Select(id catalog.WalletAppID) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.wallet = id
	return s.seq
}

// Current reports whether t is still the latest selection.
func (s *Selector) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t != 0 && t == s.seq
}

// Selected returns the wallet of the latest selection.
func (s *Selector) Selected() (catalog.WalletAppID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallet, s.seq != 0
}

// Resolve resolves the wallet selected under t and returns ErrSuperseded if
// t is no longer current, either before the call or once it completes.
func (s *Selector) Resolve(ctx context.Context, r *Resolver, t Ticket, pc PaymentContext) (Resolution, bool, error) {
	s.mu.Lock()
	current := t != 0 && t == s.seq
	id := s.wallet
	s.mu.Unlock()

	if !current {
		return Resolution{}, false, ErrSuperseded
	}

	res, ok, err := r.Resolve(ctx, id, pc)
	if !s.Current(t) {
		return Resolution{}, false, ErrSuperseded
	}
	if ok && res.WalletID != id {
		return Resolution{}, false, ErrSuperseded
	}
	return res, ok, err
}
