package models

// All lists every model, for AutoMigrate in tests and local runs.
func All() []any {
	return []any{
		&ProductModel{},
		&OrderModel{},
		&OrderProductModel{},
		&TransactionModel{},
		&WalletModel{},
		&UncreatedOrderModel{},
	}
}
