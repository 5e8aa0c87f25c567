package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
	"homease-backend/internal/models"
)

const (
	Currency = "usd"

	EventCheckoutCompleted = "checkout.session.completed"
	EventAccountUpdated    = "account.updated"
	EventTransferSucceeded = "transfer.succeeded"
	EventTransferFailed    = "transfer.failed"
	EventTransferReversed  = "transfer.reversed"
	EventChargeSucceeded   = "charge.succeeded"
	EventChargeFailed      = "charge.failed"

	metaLeadID       = "leadId"
	metaContractorID = "contractorId"
	metaProjectID    = "projectId"
)

// ErrMissingData is returned when a checkout event lacks the metadata or
// amounts needed to record a purchase.
var ErrMissingData = errors.New("Missing data")

type Client struct {
	api           *client.API
	webhookSecret string
	baseURL       string
}

func NewClient(secretKey, webhookSecret, baseURL string) *Client {
	return NewClientWithBackends(secretKey, webhookSecret, baseURL, nil)
}

// NewClientWithBackends lets callers point the Stripe SDK at a different API
// host.
func NewClientWithBackends(secretKey, webhookSecret, baseURL string, backends *stripe.Backends) *Client {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &Client{
		api:           api,
		webhookSecret: webhookSecret,
		baseURL:       strings.TrimRight(baseURL, "/"),
	}
}

type CheckoutSession struct {
	ID  string
	URL string
}

// LeadCheckoutParams builds the Checkout Session request for a lead
// purchase.
func (c *Client) LeadCheckoutParams(leadID, contractorID uuid.UUID, amountCents int64) *stripe.CheckoutSessionParams {
	leadURL := fmt.Sprintf("%s/contractor/leads/%s", c.baseURL, leadID)

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(fmt.Sprintf("Lead Purchase for Project %s", leadID)),
					Description: stripe.String("Access to homeowner contact information and project details."),
				},
				UnitAmount: stripe.Int64(amountCents),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(leadURL + "?payment_success=true&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(leadURL + "?payment_cancelled=true"),
	}
	params.AddMetadata(metaLeadID, leadID.String())
	params.AddMetadata(metaContractorID, contractorID.String())
	params.SetIdempotencyKey(fmt.Sprintf("lead-checkout-%s-%s", leadID, contractorID))
	return params
}

// CreateLeadCheckout opens a hosted Checkout Session for a lead.
func (c *Client) CreateLeadCheckout(ctx context.Context, leadID, contractorID uuid.UUID, amountCents int64) (*CheckoutSession, error) {
	params := c.LeadCheckoutParams(leadID, contractorID, amountCents)
	params.Context = ctx

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	if s.ID == "" || s.URL == "" {
		return nil, errors.New("failed to create Stripe Checkout session URL")
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// CreateConnectAccount creates an Express connected account for a
// contractor and returns its id.
func (c *Client) CreateConnectAccount(ctx context.Context, contractorID uuid.UUID, email string) (string, error) {
	params := &stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Country: stripe.String("US"),
		Email:   stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
		BusinessType: stripe.String(string(stripe.AccountBusinessTypeIndividual)),
	}
	params.Context = ctx
	params.SetIdempotencyKey("connect-account-" + contractorID.String())

	acct, err := c.api.Accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create connected account: %w", err)
	}
	return acct.ID, nil
}

// CreateOnboardingLink returns a one-time account onboarding URL.
func (c *Client) CreateOnboardingLink(ctx context.Context, accountID string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(c.baseURL + "/contractor/dashboard?stripe_refresh=true"),
		ReturnURL:  stripe.String(c.baseURL + "/contractor/dashboard?stripe_onboarding=complete"),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := c.api.AccountLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create account link: %w", err)
	}
	return link.URL, nil
}

// CreateTransfer pays a contractor's connected account for a project.
func (c *Client) CreateTransfer(ctx context.Context, projectID, contractorID uuid.UUID, accountID string, amountCents int64) (string, error) {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String(Currency),
		Destination: stripe.String(accountID),
	}
	params.Context = ctx
	params.AddMetadata(metaProjectID, projectID.String())
	params.AddMetadata(metaContractorID, contractorID.String())
	params.SetIdempotencyKey(fmt.Sprintf("payout-%s-%s", projectID, contractorID))

	tr, err := c.api.Transfers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create transfer: %w", err)
	}
	return tr.ID, nil
}

// ConstructEvent verifies the Stripe-Signature header against the webhook
// secret and decodes the event.
func (c *Client) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// LeadPurchaseFromEvent extracts the purchase facts from a
// checkout.session.completed event.
func LeadPurchaseFromEvent(event stripe.Event) (*models.LeadPurchase, error) {
	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	leadID, err := uuid.Parse(s.Metadata[metaLeadID])
	if err != nil {
		return nil, ErrMissingData
	}
	contractorID, err := uuid.Parse(s.Metadata[metaContractorID])
	if err != nil {
		return nil, ErrMissingData
	}
	if s.AmountTotal <= 0 || s.Currency == "" || s.PaymentIntent == nil || s.PaymentIntent.ID == "" {
		return nil, ErrMissingData
	}

	return &models.LeadPurchase{
		EventID:         event.ID,
		EventType:       string(event.Type),
		LeadID:          leadID,
		ContractorID:    contractorID,
		AmountCents:     s.AmountTotal,
		Currency:        string(s.Currency),
		PaymentIntentID: s.PaymentIntent.ID,
	}, nil
}

// AccountStatus is the onboarding state of a connected account.
type AccountStatus struct {
	AccountID string
	Verified  bool
}

func AccountStatusFromEvent(event stripe.Event) (*AccountStatus, error) {
	var a stripe.Account
	if err := json.Unmarshal(event.Data.Raw, &a); err != nil {
		return nil, fmt.Errorf("failed to decode account: %w", err)
	}
	if a.ID == "" {
		return nil, ErrMissingData
	}
	return &AccountStatus{
		AccountID: a.ID,
		Verified:  a.ChargesEnabled && a.PayoutsEnabled && a.DetailsSubmitted,
	}, nil
}

// TransferIDFromEvent returns the id of the transfer an event refers to.
func TransferIDFromEvent(event stripe.Event) (string, error) {
	var tr stripe.Transfer
	if err := json.Unmarshal(event.Data.Raw, &tr); err != nil {
		return "", fmt.Errorf("failed to decode transfer: %w", err)
	}
	if tr.ID == "" {
		return "", ErrMissingData
	}
	return tr.ID, nil
}
