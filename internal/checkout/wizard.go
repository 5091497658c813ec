package checkout

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
)

// Step is one stage of the checkout wizard. Steps are strictly ordered;
// a failed submission returns to StepPaymentSelection, never further back.
type Step string

const (
	StepAddressSelection Step = "address_selection"
	StepPaymentSelection Step = "payment_selection"
	StepSubmitting       Step = "submitting"
	StepCompleted        Step = "completed"
)

// flow holds one user's progress through the wizard.
type flow struct {
	step          Step
	address       *models.Address
	paymentMethod *enums.PaymentMethod
	orderID       *uuid.UUID
}

func newFlow() *flow {
	return &flow{step: StepAddressSelection}
}

// flows tracks one wizard per user.
type flows struct {
	mu    sync.Mutex
	byUID map[uuid.UUID]*flow
}

func newFlows() *flows {
	return &flows{byUID: map[uuid.UUID]*flow{}}
}

func (f *flows) get(userID uuid.UUID) *flow {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.byUID[userID]
	if !ok {
		current = newFlow()
		f.byUID[userID] = current
	}
	return current
}

func (f *flows) reset(userID uuid.UUID) *flow {
	f.mu.Lock()
	defer f.mu.Unlock()
	current := newFlow()
	f.byUID[userID] = current
	return current
}
