// Package payment builds simulated PIX charges and translates provider
// status vocabulary into payment statuses.
package payment

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lanchecard/canteen-api/internal/config"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/shopspring/decimal"
)

type Charge struct {
	PaymentID   string
	PixCode     string
	QRCodeImage string
	Expiration  time.Time
}

type Generator struct {
	cfg   config.PixConfig
	now   func() time.Time
	newID func() uuid.UUID
}

func NewGenerator(cfg config.PixConfig) *Generator {
	return &Generator{
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.New,
	}
}

// NewReference returns a payment id of the form PIX_<unix millis>_<8 hex>.
func (g *Generator) NewReference() string {
	id := g.newID()
	return fmt.Sprintf("PIX_%d_%s", g.now().UnixMilli(), strings.ReplaceAll(id.String(), "-", "")[:8])
}

func (g *Generator) Charge(paymentID string, amount decimal.Decimal) (*Charge, error) {
	code, err := BRCode{
		MerchantName: g.cfg.MerchantName,
		MerchantCity: g.cfg.MerchantCity,
		LocationURL:  strings.TrimSuffix(g.cfg.BaseURL, "/") + "/" + paymentID,
		Amount:       amount,
		TxID:         paymentID,
	}.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode pix code: %w", err)
	}

	return &Charge{
		PaymentID:   paymentID,
		PixCode:     code,
		QRCodeImage: g.cfg.QRCodeURL + url.QueryEscape(code),
		Expiration:  g.now().Add(g.cfg.ExpiresIn).UTC(),
	}, nil
}

// MapExternalStatus folds the provider's status names onto ours. Matching is
// exact; unknown names are treated as still pending.
func MapExternalStatus(external string) models.PaymentStatus {
	switch external {
	case "COMPLETED", "CONFIRMED":
		return models.PaymentStatusConfirmed
	case "EXPIRED", "FAILED":
		return models.PaymentStatusFailed
	case "REFUNDED":
		return models.PaymentStatusRefunded
	default:
		return models.PaymentStatusPending
	}
}
