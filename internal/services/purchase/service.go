// Package purchase drives the wizard through its steps and owns the submit
// flow: one payment session, then at most one fulfillment dispatch, strictly
// in that order.
package purchase

import (
	"context"
	"errors"
	"time"

	"advtopup/internal/core/checkout"
	"advtopup/internal/domain/operator"
	"advtopup/internal/domain/order"
	"advtopup/internal/domain/phone"
	"advtopup/internal/domain/wizard"
	"advtopup/internal/gateway/advansispay"
	"advtopup/internal/provider"
	"advtopup/internal/provider/reloadly"
	"advtopup/internal/store/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OperatorResolver validates a number against its claimed country and
// resolves the serving operator. Validation is a hard precondition and runs
// first.
type OperatorResolver interface {
	ValidatePhoneForCountry(ctx context.Context, msisdn, countryCode string) error
	DetectOperator(ctx context.Context, msisdn, countryCode string, flow wizard.Flow) (*operator.Info, error)
}

// PaymentInitiator starts a hosted checkout session.
type PaymentInitiator interface {
	Initiate(ctx context.Context, req advansispay.InitiateRequest) (*order.Session, error)
}

// CreditDispatcher issues the post-payment credit.
type CreditDispatcher interface {
	Dispatch(ctx context.Context, s *wizard.State, orderID string) (*order.PurchaseResult, error)
}

type Service struct {
	wizards    repositories.WizardStore
	resolver   OperatorResolver
	gateway    PaymentInitiator
	checkout   *checkout.Manager
	dispatcher CreditDispatcher
	txRepo     repositories.TransactionRepository
	registry   *provider.Registry

	// resolveTimeout bounds the background outcome resolution; it covers
	// the full polling window plus slack.
	resolveTimeout time.Duration
}

func NewService(
	wizards repositories.WizardStore,
	resolver OperatorResolver,
	gateway PaymentInitiator,
	checkoutMgr *checkout.Manager,
	dispatcher CreditDispatcher,
	txRepo repositories.TransactionRepository,
	registry *provider.Registry,
	resolveTimeout time.Duration,
) *Service {
	if resolveTimeout <= 0 {
		resolveTimeout = 12 * time.Minute
	}
	return &Service{
		wizards:        wizards,
		resolver:       resolver,
		gateway:        gateway,
		checkout:       checkoutMgr,
		dispatcher:     dispatcher,
		txRepo:         txRepo,
		registry:       registry,
		resolveTimeout: resolveTimeout,
	}
}

// StartInput captures the sender profile and purchase variant at session
// creation.
type StartInput struct {
	Flow        wizard.Flow
	CountryCode string
	SenderPhone string
	Email       string
	FirstName   string
	LastName    string
}

// Start opens a new wizard session at the country step.
func (s *Service) Start(ctx context.Context, in StartInput) (*wizard.State, error) {
	st := wizard.New(uuid.NewString(), in.Flow, time.Now())
	st.CountryCode = in.CountryCode
	st.SenderPhone = in.SenderPhone
	st.Email = in.Email
	st.FirstName = in.FirstName
	st.LastName = in.LastName
	st.Provider = string(s.registry.ForPurchase(in.Flow, in.CountryCode))

	if err := s.wizards.Save(ctx, st); err != nil {
		return nil, err
	}
	log.Info().
		Str("session_id", st.ID).
		Str("flow", string(st.Flow)).
		Str("country", st.CountryCode).
		Msg("wizard session started")
	return st, nil
}

// Get loads a wizard session.
func (s *Service) Get(ctx context.Context, id string) (*wizard.State, error) {
	return s.wizards.Load(ctx, id)
}

// AdvanceInput carries the fields the client supplies for the current step.
type AdvanceInput struct {
	CountryCode    string
	RecipientPhone string
	Amount         float64
	BundleAmount   float64
}

// Advance applies the step's input, runs the step's side effect and moves
// forward. A failing gate or side effect leaves the step unchanged.
func (s *Service) Advance(ctx context.Context, id string, in AdvanceInput) (*wizard.State, error) {
	locked, err := s.wizards.AcquireLock(ctx, id)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, wizard.ErrBusy
	}
	defer func() { _ = s.wizards.ReleaseLock(ctx, id) }()

	st, err := s.wizards.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.applyInput(st, in)

	if err := st.BeginAdvance(); err != nil {
		return st, err
	}

	// Step-specific side effect runs before the step increment.
	if st.Step == wizard.StepPhone {
		if err := s.resolveOperator(ctx, st); err != nil {
			st.AbortAdvance()
			_ = s.wizards.Save(ctx, st)
			return st, err
		}
	}

	st.FinishAdvance()
	if err := s.wizards.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) applyInput(st *wizard.State, in AdvanceInput) {
	switch st.Step {
	case wizard.StepCountry:
		if in.CountryCode != "" {
			st.CountryCode = in.CountryCode
			st.Provider = string(s.registry.ForPurchase(st.Flow, st.CountryCode))
		}
	case wizard.StepPhone:
		if in.RecipientPhone != "" {
			st.RecipientPhone = in.RecipientPhone
		}
	case wizard.StepAmount:
		if st.Flow == wizard.FlowData {
			if in.BundleAmount > 0 && st.Operator != nil {
				st.Bundle = findBundle(st.Operator.Bundles(), in.BundleAmount)
			}
		} else if in.Amount > 0 {
			st.Amount = in.Amount
		}
	}
}

func findBundle(bundles []operator.Bundle, amount float64) *operator.Bundle {
	for i := range bundles {
		if bundles[i].Amount == amount {
			return &bundles[i]
		}
	}
	return nil
}

// resolveOperator is the Phone->Network transition: country match first,
// operator detection second. Either failure blocks the step.
func (s *Service) resolveOperator(ctx context.Context, st *wizard.State) error {
	msisdn := phone.Normalize(st.RecipientPhone, st.CountryCode)

	if err := s.resolver.ValidatePhoneForCountry(ctx, msisdn, st.CountryCode); err != nil {
		return err
	}

	op, err := s.resolver.DetectOperator(ctx, msisdn, st.CountryCode, st.Flow)
	if err != nil {
		return err
	}
	if op == nil {
		return &provider.Error{
			Code:    provider.ErrOperatorNotFound,
			Message: "No network operator found for this phone number",
		}
	}

	st.SetOperator(op, op.DefaultAmount(reloadly.DefaultAirtimeAmount))
	st.Provider = string(s.registry.ForPurchase(st.Flow, st.CountryCode))
	log.Info().
		Str("session_id", st.ID).
		Str("operator", op.Name).
		Str("provider", st.Provider).
		Msg("operator resolved")
	return nil
}

// Retreat steps the wizard back one step.
func (s *Service) Retreat(ctx context.Context, id string) (*wizard.State, error) {
	locked, err := s.wizards.AcquireLock(ctx, id)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, wizard.ErrBusy
	}
	defer func() { _ = s.wizards.ReleaseLock(ctx, id) }()

	st, err := s.wizards.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	st.Retreat()
	if err := s.wizards.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// SubmitResponse hands the client what it needs to open the checkout.
type SubmitResponse struct {
	OrderID     string `json:"orderId"`
	CheckoutURL string `json:"checkoutUrl"`
	Token       string `json:"token,omitempty"`
}

// Submit runs the terminal action: initiate payment, then resolve the
// outcome in the background and dispatch fulfillment only on COMPLETE.
// Each submit allocates a fresh order id and at most one payment session.
func (s *Service) Submit(ctx context.Context, id string) (*SubmitResponse, error) {
	// The store lock turns the busy check-and-set into one atomic step, so
	// concurrent submits cannot each pass the gate. Once Busy is persisted
	// it guards the whole payment window and the lock can be dropped.
	locked, err := s.wizards.AcquireLock(ctx, id)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, wizard.ErrBusy
	}
	defer func() { _ = s.wizards.ReleaseLock(ctx, id) }()

	st, err := s.wizards.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Busy {
		return nil, wizard.ErrBusy
	}
	if !st.CanSubmit() {
		return nil, wizard.ErrNotSubmittable
	}

	st.Busy = true
	if err := s.wizards.Save(ctx, st); err != nil {
		return nil, err
	}

	orderID := order.NewOrderID(time.Now())
	rec := s.newTransactionRecord(st, orderID)
	if err := s.txRepo.Create(ctx, rec); err != nil {
		s.releaseBusy(ctx, st)
		return nil, err
	}

	sess, err := s.gateway.Initiate(ctx, advansispay.InitiateRequest{
		OrderID:   orderID,
		Amount:    st.PaymentAmount(),
		Email:     st.Email,
		FirstName: st.FirstName,
		LastName:  st.LastName,
		Phone:     phone.Normalize(st.SenderPhone, st.CountryCode),
	})
	if err != nil {
		_ = s.txRepo.UpdateStatus(ctx, orderID, order.StatusFailed, err.Error())
		s.releaseBusy(ctx, st)
		return nil, err
	}

	_ = s.txRepo.UpdateStatus(ctx, orderID, order.StatusProcessing, "")
	cs := s.checkout.Open(orderID)
	go s.resolveOutcome(st, cs)

	return &SubmitResponse{OrderID: orderID, CheckoutURL: sess.CheckoutURL, Token: sess.Token}, nil
}

// resolveOutcome waits for the payment race to settle and dispatches
// fulfillment exactly once on COMPLETE. It runs detached from the request.
func (s *Service) resolveOutcome(st *wizard.State, cs *checkout.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), s.resolveTimeout)
	defer cancel()

	orderID := cs.OrderID()
	if err := s.checkout.Await(ctx, cs); err != nil {
		status := order.StatusFailed
		var cErr *checkout.Error
		if errors.As(err, &cErr) {
			status = cErr.Status
		}
		_ = s.txRepo.UpdateStatus(ctx, orderID, status, err.Error())
		s.releaseBusy(ctx, st)
		return
	}

	// Payment confirmed COMPLETE; this is the only path to a credit call.
	_ = s.txRepo.UpdateStatus(ctx, orderID, order.StatusComplete, "")

	result, err := s.dispatcher.Dispatch(ctx, st, orderID)
	if err != nil {
		// Paid but not credited: surfaced through the order record, no
		// automatic retry.
		s.releaseBusy(ctx, st)
		return
	}

	log.Info().
		Str("order_id", result.OrderID).
		Str("transaction_id", result.TransactionID).
		Msg("purchase fulfilled")
	s.resetWizard(ctx, st)
}

// GetOrder returns the purchase record for an order id.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*order.Transaction, error) {
	return s.txRepo.FindByOrderID(ctx, orderID)
}

func (s *Service) newTransactionRecord(st *wizard.State, orderID string) *order.Transaction {
	operatorName, currency := "", ""
	if st.Operator != nil {
		operatorName = st.Operator.Name
		currency = st.Operator.SenderCurrency
	}
	rec, err := order.NewTransaction(
		orderID, string(st.Flow), st.CountryCode, operatorName,
		st.PaymentAmount(), currency,
		phone.Hash(phone.Normalize(st.RecipientPhone, st.CountryCode)),
	)
	if err != nil {
		// Submit gates guarantee a positive amount; reaching here means a
		// gate regressed.
		log.Error().Err(err).Str("order_id", orderID).Msg("invalid transaction record")
		rec = &order.Transaction{OrderID: orderID, Status: order.StatusPending}
	}
	return rec
}

func (s *Service) releaseBusy(ctx context.Context, st *wizard.State) {
	cur, err := s.wizards.Load(ctx, st.ID)
	if err != nil {
		return
	}
	cur.Busy = false
	_ = s.wizards.Save(ctx, cur)
}

// resetWizard returns a completed session to the first step with its
// selections cleared.
func (s *Service) resetWizard(ctx context.Context, st *wizard.State) {
	cur, err := s.wizards.Load(ctx, st.ID)
	if err != nil {
		return
	}
	cur.Busy = false
	cur.Step = wizard.StepCountry
	cur.Operator = nil
	cur.Amount = 0
	cur.Bundle = nil
	cur.RecipientPhone = ""
	_ = s.wizards.Save(ctx, cur)
}
