package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/repositories"

	pfirestore "github.com/sobri3195/WarungWA/internal/platform/firestore"
)

// PaymentRepository stores settlement records under
// shops/{shopID}/orders/{orderID}/payments.
type PaymentRepository struct {
	provider *pfirestore.Provider
}

func NewPaymentRepository(provider *pfirestore.Provider) (*PaymentRepository, error) {
	if provider == nil {
		return nil, errors.New("firestore payment repository requires provider")
	}
	return &PaymentRepository{provider: provider}, nil
}

type paymentDocument struct {
	Amount    int64     `firestore:"amount"`
	Method    string    `firestore:"method"`
	Reference string    `firestore:"reference,omitempty"`
	Note      string    `firestore:"note,omitempty"`
	PaidAt    time.Time `firestore:"paidAt"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func (r *PaymentRepository) collection(shopID, orderID string) string {
	return fmt.Sprintf("shops/%s/orders/%s/%s", shopID, orderID, orderPaymentsCollection)
}

func (r *PaymentRepository) Insert(ctx context.Context, payment domain.Payment) error {
	if strings.TrimSpace(payment.ShopID) == "" || strings.TrimSpace(payment.OrderID) == "" {
		return pfirestore.WrapError("payments.insert", errors.New("shop id and order id are required"))
	}
	if strings.TrimSpace(payment.ID) == "" {
		return pfirestore.WrapError("payments.insert", errors.New("payment id is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("payments.insert", err)
	}

	ref := client.Collection(r.collection(payment.ShopID, payment.OrderID)).Doc(payment.ID)
	data := paymentDocument{
		Amount:    payment.Amount,
		Method:    string(payment.Method),
		Reference: payment.Reference,
		Note:      payment.Note,
		PaidAt:    payment.PaidAt.UTC(),
		CreatedAt: payment.CreatedAt.UTC(),
	}
	if err := createDoc(ctx, ref, data); err != nil {
		return pfirestore.WrapError("payments.insert", err)
	}
	return nil
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, shopID string, orderID string) ([]domain.Payment, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(orderID) == "" {
		return nil, pfirestore.WrapError("payments.list", errors.New("shop id and order id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("payments.list", err)
	}

	query := client.Collection(r.collection(shopID, orderID)).
		OrderBy("createdAt", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)
	docs, err := queryDocs(ctx, query)
	if err != nil {
		return nil, pfirestore.WrapError("payments.list", err)
	}

	payments := make([]domain.Payment, 0, len(docs))
	for _, doc := range docs {
		var data paymentDocument
		if err := doc.DataTo(&data); err != nil {
			return nil, pfirestore.WrapError("payments.list", fmt.Errorf("decode payment %s: %w", doc.Ref.ID, err))
		}
		payments = append(payments, domain.Payment{
			ID:        doc.Ref.ID,
			ShopID:    shopID,
			OrderID:   orderID,
			Amount:    data.Amount,
			Method:    domain.PaymentMethod(data.Method),
			Reference: data.Reference,
			Note:      data.Note,
			PaidAt:    data.PaidAt,
			CreatedAt: data.CreatedAt,
		})
	}
	return payments, nil
}

var _ repositories.PaymentRepository = (*PaymentRepository)(nil)
