package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
)

const userIDHeader = "X-User-ID"

func userID(r *http.Request) string {
	return r.Header.Get(userIDHeader)
}

func requireUserID(r *http.Request) (string, error) {
	id := userID(r)
	if id == "" {
		return "", domain.Validationf("%s header is required", userIDHeader)
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Validationf("invalid request body: %v", err)
	}
	return nil
}

func pagination(r *http.Request) (domain.Pagination, error) {
	q := r.URL.Query()
	var page domain.Pagination
	var err error
	if v := q.Get("page"); v != "" {
		if page.Page, err = strconv.Atoi(v); err != nil {
			return page, domain.Validationf("page must be a number")
		}
	}
	if v := q.Get("limit"); v != "" {
		if page.Limit, err = strconv.Atoi(v); err != nil {
			return page, domain.Validationf("limit must be a number")
		}
	}
	return page, nil
}

func queryTime(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, domain.Validationf("%s must be RFC3339", key)
	}
	return t, nil
}

func queryBool(r *http.Request, key string) (*bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, domain.Validationf("%s must be true or false", key)
	}
	return &b, nil
}

func orderFilter(r *http.Request) (domain.OrderFilter, error) {
	q := r.URL.Query()
	filter := domain.OrderFilter{
		Status: domain.OrderStatus(q.Get("status")),
		Email:  q.Get("email"),
		UserID: q.Get("user_id"),
	}
	var err error
	if filter.IsDelivered, err = queryBool(r, "is_delivered"); err != nil {
		return filter, err
	}
	if filter.CreatedFrom, err = queryTime(r, "created_from"); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = queryTime(r, "created_to"); err != nil {
		return filter, err
	}
	return filter, nil
}

func transactionFilter(r *http.Request) (domain.TransactionFilter, error) {
	q := r.URL.Query()
	filter := domain.TransactionFilter{
		OrderID:   q.Get("order_id"),
		Status:    domain.TransactionStatus(q.Get("status")),
		Reference: q.Get("reference"),
		AlertType: domain.AlertType(q.Get("alert_type")),
		UserID:    q.Get("user_id"),
	}
	if v := q.Get("payment_method"); v != "" {
		method, ok := domain.ParsePaymentMethod(v)
		if !ok {
			return filter, domain.Validationf("unknown payment method %q", v)
		}
		filter.PaymentMethod = method
	}
	created, err := queryTime(r, "created_before")
	if err != nil {
		return filter, err
	}
	filter.CreatedBefore = created
	return filter, nil
}

func checkoutFailureFilter(r *http.Request) (domain.UncreatedOrdersFilter, error) {
	q := r.URL.Query()
	var filter domain.UncreatedOrdersFilter
	if v := q.Get("user_id"); v != "" {
		filter.UserID = &v
	}
	if v := q.Get("email"); v != "" {
		filter.Email = &v
	}
	if v := q.Get("payment_method"); v != "" {
		method, ok := domain.ParsePaymentMethod(v)
		if !ok {
			return filter, domain.Validationf("unknown payment method %q", v)
		}
		filter.PaymentMethod = &method
	}
	from, err := queryTime(r, "created_from")
	if err != nil {
		return filter, err
	}
	if !from.IsZero() {
		filter.TimeOpeningStart = &from
	}
	to, err := queryTime(r, "created_to")
	if err != nil {
		return filter, err
	}
	if !to.IsZero() {
		filter.TimeOpeningEnd = &to
	}
	return filter, nil
}
