package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentLinkTTL is how long a generated payment link stays valid.
const PaymentLinkTTL = 24 * time.Hour

// PaymentLinkGenerator synthesizes hosted payment links. The link is a
// bearer URL; the token is the only credential the shopper needs.
type PaymentLinkGenerator struct {
	BaseURL string
}

func NewPaymentLinkGenerator(baseURL string) *PaymentLinkGenerator {
	return &PaymentLinkGenerator{BaseURL: baseURL}
}

func (g *PaymentLinkGenerator) Generate(orderNumber string, now time.Time) (string, time.Time) {
	token := uuid.New().String()
	link := fmt.Sprintf("%s/pay/%s?token=%s", g.BaseURL, orderNumber, token)
	return link, now.Add(PaymentLinkTTL)
}
