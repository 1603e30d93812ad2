package services

import "bazaar/internal/apperror"

var (
	ErrInvalidOrderRequest      = apperror.New(apperror.KindValidation, "invalid_order_request", "invalid order request")
	ErrInvalidProductRequest    = apperror.New(apperror.KindValidation, "invalid_product_request", "invalid product request")
	ErrInvalidDeviceToken       = apperror.New(apperror.KindValidation, "invalid_device_token", "invalid device token")
	ErrInvalidStatus            = apperror.New(apperror.KindValidation, "invalid_status", "invalid order status")
	ErrInvalidVariant           = apperror.New(apperror.KindValidation, "invalid_variant", "requested size or color is not offered")
	ErrMixedShopCart            = apperror.New(apperror.KindValidation, "mixed_shop_cart", "all cart items must come from the same shop")
	ErrProductNotFound          = apperror.New(apperror.KindNotFound, "product_not_found", "product not found")
	ErrProductInactive          = apperror.New(apperror.KindConflict, "product_inactive", "product is no longer available")
	ErrInsufficientStock        = apperror.New(apperror.KindConflict, "insufficient_stock", "insufficient stock")
	ErrOrderPersistenceConflict = apperror.New(apperror.KindConflict, "order_persistence_conflict", "could not allocate a unique order number")
	ErrOrderNotFound            = apperror.New(apperror.KindNotFound, "order_not_found", "order not found")
	ErrIllegalTransition        = apperror.New(apperror.KindConflict, "illegal_transition", "illegal order status transition")
	ErrNotOrderOwner            = apperror.New(apperror.KindForbidden, "not_order_owner", "order belongs to another customer")
	ErrNotShopOwner             = apperror.New(apperror.KindForbidden, "not_shop_owner", "order or product belongs to another shop")
	ErrShopNotFound             = apperror.New(apperror.KindNotFound, "shop_not_found", "shop not found")
	ErrUserNotFound             = apperror.New(apperror.KindNotFound, "user_not_found", "user not found")
	ErrInvalidToken             = apperror.New(apperror.KindUnauthorized, "invalid_token", "invalid or expired token")
	ErrInternal                 = apperror.New(apperror.KindInternal, "internal_error", "internal error")
)
