package payments_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"homease-backend/internal/payments"
)

const testSecret = "whsec_test_secret"

func signedPayload(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Header, signed.Payload
}

func eventJSON(eventType, object string) string {
	return fmt.Sprintf(`{"id":"evt_1","object":"event","type":%q,"data":{"object":%s}}`, eventType, object)
}

func TestLeadCheckoutParams(t *testing.T) {
	leadID, contractorID := uuid.New(), uuid.New()
	client := payments.NewClient("sk_test", testSecret, "https://homease.example/")

	params := client.LeadCheckoutParams(leadID, contractorID, 2500)

	assert.Equal(t, "payment", *params.Mode)
	require.Len(t, params.LineItems, 1)
	assert.Equal(t, int64(2500), *params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "usd", *params.LineItems[0].PriceData.Currency)
	assert.Equal(t, int64(1), *params.LineItems[0].Quantity)
	assert.Equal(t, "https://homease.example/contractor/leads/"+leadID.String()+"?payment_success=true&session_id={CHECKOUT_SESSION_ID}", *params.SuccessURL)
	assert.Equal(t, "https://homease.example/contractor/leads/"+leadID.String()+"?payment_cancelled=true", *params.CancelURL)
	assert.Equal(t, leadID.String(), params.Metadata["leadId"])
	assert.Equal(t, contractorID.String(), params.Metadata["contractorId"])
	assert.Equal(t, "lead-checkout-"+leadID.String()+"-"+contractorID.String(), *params.IdempotencyKey)
}

func TestCreateLeadCheckout_SendsRequest(t *testing.T) {
	leadID, contractorID := uuid.New(), uuid.New()
	var form url.Values
	var idemKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
		idemKey = r.Header.Get("Idempotency-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/cs_test_1"}`))
	}))
	defer server.Close()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(server.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	client := payments.NewClientWithBackends("sk_test", testSecret, "https://homease.example", &stripe.Backends{
		API: backend, Connect: backend, Uploads: backend,
	})

	session, err := client.CreateLeadCheckout(context.Background(), leadID, contractorID, 1500)
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", session.URL)
	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "1500", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, leadID.String(), form.Get("metadata[leadId]"))
	assert.Equal(t, "lead-checkout-"+leadID.String()+"-"+contractorID.String(), idemKey)
}

func TestConstructEvent(t *testing.T) {
	client := payments.NewClient("sk_test", testSecret, "")
	header, payload := signedPayload(t, eventJSON("charge.succeeded", `{"id":"ch_1","object":"charge"}`))

	event, err := client.ConstructEvent(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, stripe.EventType("charge.succeeded"), event.Type)
}

func TestConstructEvent_BadSignature(t *testing.T) {
	client := payments.NewClient("sk_test", testSecret, "")
	_, payload := signedPayload(t, eventJSON("charge.succeeded", `{"id":"ch_1"}`))

	_, err := client.ConstructEvent(payload, "t=1,v1=deadbeef")
	assert.Error(t, err)
}

func checkoutEvent(t *testing.T, object map[string]any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return stripe.Event{
		ID:   "evt_checkout",
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestLeadPurchaseFromEvent(t *testing.T) {
	leadID, contractorID := uuid.New(), uuid.New()
	event := checkoutEvent(t, map[string]any{
		"id":             "cs_1",
		"object":         "checkout.session",
		"amount_total":   2500,
		"currency":       "usd",
		"payment_intent": "pi_123",
		"metadata": map[string]string{
			"leadId":       leadID.String(),
			"contractorId": contractorID.String(),
		},
	})

	purchase, err := payments.LeadPurchaseFromEvent(event)
	require.NoError(t, err)

	assert.Equal(t, "evt_checkout", purchase.EventID)
	assert.Equal(t, leadID, purchase.LeadID)
	assert.Equal(t, contractorID, purchase.ContractorID)
	assert.Equal(t, int64(2500), purchase.AmountCents)
	assert.Equal(t, "usd", purchase.Currency)
	assert.Equal(t, "pi_123", purchase.PaymentIntentID)
}

func TestLeadPurchaseFromEvent_MissingData(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"id":             "cs_1",
			"amount_total":   2500,
			"currency":       "usd",
			"payment_intent": "pi_123",
			"metadata": map[string]string{
				"leadId":       uuid.NewString(),
				"contractorId": uuid.NewString(),
			},
		}
	}

	tests := map[string]func(m map[string]any){
		"no lead":           func(m map[string]any) { m["metadata"] = map[string]string{"contractorId": uuid.NewString()} },
		"no contractor":     func(m map[string]any) { m["metadata"] = map[string]string{"leadId": uuid.NewString()} },
		"no amount":         func(m map[string]any) { delete(m, "amount_total") },
		"no currency":       func(m map[string]any) { delete(m, "currency") },
		"no payment intent": func(m map[string]any) { delete(m, "payment_intent") },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			obj := base()
			mutate(obj)
			_, err := payments.LeadPurchaseFromEvent(checkoutEvent(t, obj))
			assert.ErrorIs(t, err, payments.ErrMissingData)
		})
	}
}

func TestAccountStatusFromEvent(t *testing.T) {
	event := checkoutEvent(t, map[string]any{
		"id":                "acct_1",
		"object":            "account",
		"charges_enabled":   true,
		"payouts_enabled":   true,
		"details_submitted": true,
	})
	status, err := payments.AccountStatusFromEvent(event)
	require.NoError(t, err)
	assert.Equal(t, "acct_1", status.AccountID)
	assert.True(t, status.Verified)

	event = checkoutEvent(t, map[string]any{"id": "acct_1", "charges_enabled": true})
	status, err = payments.AccountStatusFromEvent(event)
	require.NoError(t, err)
	assert.False(t, status.Verified)
}

func TestTransferIDFromEvent(t *testing.T) {
	id, err := payments.TransferIDFromEvent(checkoutEvent(t, map[string]any{"id": "tr_1", "object": "transfer"}))
	require.NoError(t, err)
	assert.Equal(t, "tr_1", id)

	_, err = payments.TransferIDFromEvent(checkoutEvent(t, map[string]any{}))
	assert.ErrorIs(t, err, payments.ErrMissingData)
}
