package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	billingdto "github.com/LavaJover/shvark-billing-service/internal/usecase/dto/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// checkoutPlan is a validated checkout: merged line items, the catalog rows
// they resolved to and the server-side amount.
type checkoutPlan struct {
	method          domain.PaymentMethod
	buyer           domain.Buyer
	deliveryAddress string
	items           []domain.LineItem
	products        map[string]*domain.Product
	amount          decimal.Decimal
	reference       string
}

func (p *checkoutPlan) productIDs() []string {
	ids := make([]string, 0, len(p.items))
	for _, it := range p.items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

func (uc *DefaultBillingUsecase) InitiateCheckout(ctx context.Context, input *billingdto.CheckoutInput) (*billingdto.CheckoutOutput, error) {
	start := uc.now()

	method, ok := domain.ParsePaymentMethod(input.PaymentMethod)
	if !ok {
		return nil, domain.Validationf("unknown payment method %q", input.PaymentMethod)
	}
	flow, ok := uc.flows[method]
	if !ok {
		return nil, domain.Validationf("payment method %s is not enabled", method)
	}

	plan, err := uc.preparePlan(ctx, method, input)
	if err != nil {
		uc.recordCheckoutFailure(ctx, method, input, plan, err)
		return nil, err
	}
	if err := flow.Validate(plan); err != nil {
		uc.recordCheckoutFailure(ctx, method, input, plan, err)
		return nil, err
	}

	res, err := flow.Reserve(ctx, plan)
	if err != nil {
		uc.recordCheckoutFailure(ctx, method, input, plan, err)
		return nil, err
	}
	out, err := flow.Capture(ctx, plan, res)
	if err != nil {
		uc.recordCheckoutFailure(ctx, method, input, plan, err)
		return nil, err
	}

	uc.recordCheckoutMetrics(method, "success", plan.amount, uc.now().Sub(start).Seconds())
	uc.Logger.Info("checkout accepted",
		zap.String("order_id", out.Order.ID),
		zap.String("reference", out.Order.Reference),
		zap.String("payment_method", string(method)),
		zap.String("amount", plan.amount.StringFixed(2)),
		zap.String("order_status", string(out.Order.Status)),
	)
	return out, nil
}

// preparePlan runs every precondition that needs no lock. Wallet and
// offline flows re-check stock under row locks before mutating.
func (uc *DefaultBillingUsecase) preparePlan(ctx context.Context, method domain.PaymentMethod, input *billingdto.CheckoutInput) (*checkoutPlan, error) {
	if len(input.LineItems) == 0 {
		return nil, domain.Validationf("at least one line item is required")
	}

	merged := make(map[string]int, len(input.LineItems))
	for _, it := range input.LineItems {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			return nil, domain.Validationf("line item without product id")
		}
		if it.Quantity <= 0 {
			return nil, domain.Validationf("quantity for product %s must be positive, got %d", id, it.Quantity)
		}
		merged[id] += it.Quantity
	}

	items := make([]domain.LineItem, 0, len(merged))
	for id, qty := range merged {
		items = append(items, domain.LineItem{ProductID: id, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	plan := &checkoutPlan{
		method:          method,
		buyer:           input.Buyer,
		deliveryAddress: strings.TrimSpace(input.DeliveryAddress),
		items:           items,
		products:        make(map[string]*domain.Product, len(items)),
	}
	plan.buyer.Email = strings.TrimSpace(plan.buyer.Email)

	found, err := uc.Ledger.GetProductsByIDs(ctx, plan.productIDs())
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for _, p := range found {
		plan.products[p.ID] = p
	}

	amount := decimal.Zero
	for _, it := range items {
		p, ok := plan.products[it.ProductID]
		if !ok || p.HasBeenDeleted {
			return plan, &domain.ProductError{ProductID: it.ProductID, Err: domain.ErrProductNotFound}
		}
		if it.Quantity > p.Available() {
			return plan, &domain.ProductError{
				ProductID: it.ProductID,
				Requested: it.Quantity,
				Available: p.Available(),
				Err:       domain.ErrOutOfStock,
			}
		}
		amount = amount.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	plan.amount = amount

	if input.ClientAmount != nil && !input.ClientAmount.Equal(amount) {
		uc.Logger.Warn("client amount differs from computed amount",
			zap.String("client_amount", input.ClientAmount.String()),
			zap.String("amount", amount.String()),
			zap.String("email", plan.buyer.Email),
		)
	}

	plan.reference = uc.newReference()
	return plan, nil
}

// newOrder builds the order and its line items from a plan. Nothing is
// persisted here.
func (uc *DefaultBillingUsecase) newOrder(plan *checkoutPlan, status domain.OrderStatus) *domain.Order {
	now := uc.now()
	order := &domain.Order{
		ID:              uuid.NewString(),
		Buyer:           plan.buyer,
		DeliveryAddress: plan.deliveryAddress,
		Amount:          plan.amount,
		Reference:       plan.reference,
		Status:          status,
		Products:        make([]domain.OrderProduct, 0, len(plan.items)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, it := range plan.items {
		p := plan.products[it.ProductID]
		order.Products = append(order.Products, domain.OrderProduct{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   it.ProductID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			UnitPrice:   p.Price,
		})
	}
	return order
}

func (uc *DefaultBillingUsecase) newTransaction(order *domain.Order, method domain.PaymentMethod, status domain.TransactionStatus, reference string) *domain.Transaction {
	now := uc.now()
	tx := &domain.Transaction{
		ID:            uuid.NewString(),
		PaymentMethod: method,
		Amount:        order.Amount,
		Status:        status,
		Reference:     reference,
		UserID:        order.Buyer.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	orderID := order.ID
	tx.OrderID = &orderID
	return tx
}

// reserveStock locks the order's products and decrements them. With strict
// set, any shortfall aborts the unit of work with ErrOutOfStock; otherwise
// stock is clamped at zero and the shortfall is reported.
func reserveStock(tx domain.LedgerTx, lines []domain.OrderProduct, strict bool) (map[string]int, error) {
	qty := make(map[string]int, len(lines))
	for _, l := range lines {
		qty[l.ProductID] += l.Quantity
	}
	ids := make([]string, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	products, err := tx.LockProducts(ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	byID := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	shortfalls := make(map[string]int)
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			if strict {
				return nil, &domain.ProductError{ProductID: id, Err: domain.ErrProductNotFound}
			}
			shortfalls[id] = qty[id]
			continue
		}
		if strict && qty[id] > p.Available() {
			return nil, &domain.ProductError{
				ProductID: id,
				Requested: qty[id],
				Available: p.Available(),
				Err:       domain.ErrOutOfStock,
			}
		}
		if short := p.Decrement(qty[id]); short > 0 {
			shortfalls[id] = short
		}
		if err := tx.UpdateProductStock(p.ID, p.Quantity, p.IsOutOfStock); err != nil {
			return nil, fmt.Errorf("update stock for product %s: %w", p.ID, err)
		}
	}
	return shortfalls, nil
}

// notifyPaid runs the post-commit side effects of a terminal payment:
// both notification jobs and the order event.
func (uc *DefaultBillingUsecase) notifyPaid(ctx context.Context, order *domain.Order, tx *domain.Transaction) {
	snap := domain.NewOrderSnapshot(order, tx)
	if uc.Notifications != nil {
		uc.Notifications.Enqueue(domain.NotificationOrderConfirmation, snap)
		uc.Notifications.Enqueue(domain.NotificationOwnerAlert, snap)
	}
	uc.publishOrderEvent(ctx, order, tx)
	uc.recordOrderPaidMetrics(order, tx)
}

func (uc *DefaultBillingUsecase) publishOrderEvent(ctx context.Context, order *domain.Order, tx *domain.Transaction) {
	if uc.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()

	event := domain.OrderEvent{
		OrderID:       order.ID,
		UserID:        order.Buyer.UserID,
		Status:        order.Status,
		PaymentMethod: tx.PaymentMethod,
		Amount:        order.Amount,
		Reference:     order.Reference,
		OccurredAt:    uc.now(),
	}
	if err := uc.Events.PublishOrderEvent(ctx, event); err != nil {
		uc.Logger.Error("failed to publish order event",
			zap.String("order_id", order.ID),
			zap.String("status", string(order.Status)),
			zap.Error(err),
		)
	}
}

// recordCheckoutFailure logs the failure and, for anything past input
// validation, appends it to the uncreated-orders log for operators.
func (uc *DefaultBillingUsecase) recordCheckoutFailure(ctx context.Context, method domain.PaymentMethod, input *billingdto.CheckoutInput, plan *checkoutPlan, cause error) {
	amount := decimal.Zero
	if plan != nil {
		amount = plan.amount
	}
	uc.recordCheckoutMetrics(method, errorLabel(cause), amount, 0)

	log := uc.Logger.With(
		zap.String("payment_method", string(method)),
		zap.String("email", input.Buyer.Email),
		zap.Error(cause),
	)
	if errors.Is(cause, domain.ErrValidation) {
		log.Info("checkout rejected")
		return
	}
	log.Warn("checkout failed")

	if uc.FailureLog == nil {
		return
	}
	productIDs := make([]string, 0, len(input.LineItems))
	for _, it := range input.LineItems {
		productIDs = append(productIDs, it.ProductID)
	}
	entry := &domain.UncreatedOrder{
		ID:            uuid.NewString(),
		UserID:        input.Buyer.UserID,
		Email:         input.Buyer.Email,
		PaymentMethod: method,
		Amount:        amount,
		ProductIDs:    productIDs,
		ErrorMessage:  cause.Error(),
		CreatedAt:     uc.now(),
	}
	if err := uc.FailureLog.CreateLog(context.WithoutCancel(ctx), entry); err != nil {
		uc.Logger.Error("failed to log uncreated order", zap.Error(err))
	}
}
