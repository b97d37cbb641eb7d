package payment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cimillas/taycan-raffle/internal/domain"
)

// Session is a hosted checkout session created by the payment provider.
// URL is where the buyer completes payment.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type CreateSessionInput struct {
	AmountCents int64
	Currency    string
	Quantity    int
	BuyerID     string
	OrderID     string
	// Numbers travel as session metadata so reconciliation can recover
	// context even if the local order lookup path is degraded.
	Numbers    []int
	SuccessURL string
	CancelURL  string
}

// SessionCreator is the provider surface the checkout flow depends on.
type SessionCreator interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (Session, error)
}

// Client talks to the provider's checkout API over HTTP.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(secretKey).
		SetTimeout(timeout)
	return &Client{http: c}
}

type createSessionRequest struct {
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	SuccessURL  string            `json:"success_url"`
	CancelURL   string            `json:"cancel_url"`
	Metadata    map[string]string `json:"metadata"`
}

func (c *Client) CreateSession(ctx context.Context, in CreateSessionInput) (Session, error) {
	numbers := make([]string, len(in.Numbers))
	for i, n := range in.Numbers {
		numbers[i] = strconv.Itoa(n)
	}

	body := createSessionRequest{
		AmountCents: in.AmountCents,
		Currency:    in.Currency,
		SuccessURL:  in.SuccessURL,
		CancelURL:   in.CancelURL,
		Metadata: map[string]string{
			"buyer_id": in.BuyerID,
			"order_id": in.OrderID,
			"quantity": strconv.Itoa(in.Quantity),
			"numbers":  strings.Join(numbers, ","),
		},
	}

	var session Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&session).
		Post("/v1/checkout/sessions")
	if err != nil {
		if isTimeout(err) {
			return Session{}, domain.ErrUpstreamTimeout
		}
		return Session{}, fmt.Errorf("create checkout session: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return Session{}, fmt.Errorf("create checkout session: status %d", resp.StatusCode())
	}
	if session.ID == "" || session.URL == "" {
		return Session{}, fmt.Errorf("create checkout session: incomplete response")
	}
	return session, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
