package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ErrorKind classifies a domain error for translation at the transport boundary.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindUnauthenticated
	KindConflict
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeFileTooLarge        = "FILE_TOO_LARGE"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeInvalidAddress      = "INVALID_ADDRESS"
	ErrCodeInvalidPromotion    = "INVALID_PROMOTION"
	ErrCodeInvalidRating       = "INVALID_RATING"
	ErrCodeWeakPassword        = "WEAK_PASSWORD"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeCategoryNotFound    = "CATEGORY_NOT_FOUND"
	ErrCodePromotionNotFound   = "PROMOTION_NOT_FOUND"
	ErrCodeReviewNotFound      = "REVIEW_NOT_FOUND"
	ErrCodeCartNotFound        = "CART_NOT_FOUND"
	ErrCodeItemNotInCart       = "ITEM_NOT_IN_CART"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeNotificationMissing = "NOTIFICATION_NOT_FOUND"
	ErrCodeCartEmpty           = "CART_EMPTY"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeNoValidSellers      = "NO_VALID_SELLERS"
	ErrCodeInvalidTransition   = "INVALID_STATUS_TRANSITION"
	ErrCodeConcurrentUpdate    = "CONCURRENT_UPDATE"
	ErrCodeDuplicateUser       = "DUPLICATE_USER"
	ErrCodeShopNameTaken       = "SHOP_NAME_TAKEN"
	ErrCodeAlreadySeller       = "ALREADY_SELLER"
	ErrCodePromotionExists     = "PROMOTION_EXISTS"
	ErrCodeDuplicateProduct    = "DUPLICATE_PRODUCT_CODE"
	ErrCodeDuplicateCategory   = "DUPLICATE_CATEGORY"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken        = "INVALID_TOKEN"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// DomainError is an expected business-rule violation.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so sentinels keep matching
// after WithMessage has attached request-specific detail.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of the error with a more specific message.
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Kind: e.Kind, Code: e.Code, Message: message}
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with the MISSING_FIELD code.
func NewValidationError(message string) *DomainError {
	return NewDomainError(KindValidation, ErrCodeMissingField, message)
}

// Common domain errors
var (
	ErrInvalidQuantity   = NewDomainError(KindValidation, ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidAddress    = NewDomainError(KindValidation, ErrCodeInvalidAddress, "Address is missing required fields")
	ErrInvalidPromotion  = NewDomainError(KindValidation, ErrCodeInvalidPromotion, "Promotion details are invalid")
	ErrInvalidRating     = NewDomainError(KindValidation, ErrCodeInvalidRating, "Rating must be between 1 and 5")
	ErrWeakPassword      = NewDomainError(KindValidation, ErrCodeWeakPassword, "Password must be at least 8 characters")
	ErrProductNotFound   = NewDomainError(KindNotFound, ErrCodeProductNotFound, "Product not found")
	ErrCategoryNotFound  = NewDomainError(KindNotFound, ErrCodeCategoryNotFound, "Category not found")
	ErrPromotionNotFound = NewDomainError(KindNotFound, ErrCodePromotionNotFound, "Product has no promotion")
	ErrReviewNotFound    = NewDomainError(KindNotFound, ErrCodeReviewNotFound, "Review not found")
	ErrCartNotFound      = NewDomainError(KindNotFound, ErrCodeCartNotFound, "Cart not found")
	ErrItemNotInCart     = NewDomainError(KindNotFound, ErrCodeItemNotInCart, "Product is not in the cart")
	ErrOrderNotFound     = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrUserNotFound      = NewDomainError(KindNotFound, ErrCodeUserNotFound, "User not found")
	ErrNotificationGone  = NewDomainError(KindNotFound, ErrCodeNotificationMissing, "Notification not found")
	ErrCartEmpty         = NewDomainError(KindConflict, ErrCodeCartEmpty, "Cart is empty or does not exist")
	ErrInsufficientStock = NewDomainError(KindConflict, ErrCodeInsufficientStock, "Requested quantity exceeds available stock")
	ErrNoValidSellers    = NewDomainError(KindConflict, ErrCodeNoValidSellers, "No valid sellers for the items in the cart")
	ErrInvalidTransition = NewDomainError(KindConflict, ErrCodeInvalidTransition, "Order status does not allow this operation")
	ErrConcurrentUpdate  = NewDomainError(KindConflict, ErrCodeConcurrentUpdate, "The record was modified concurrently, please retry")
	ErrDuplicateUser     = NewDomainError(KindConflict, ErrCodeDuplicateUser, "Username, email or ID card is already in use")
	ErrShopNameTaken     = NewDomainError(KindConflict, ErrCodeShopNameTaken, "Shop name is already in use")
	ErrAlreadySeller     = NewDomainError(KindConflict, ErrCodeAlreadySeller, "User already owns a store")
	ErrPromotionExists   = NewDomainError(KindConflict, ErrCodePromotionExists, "Product already has a promotion")
	ErrDuplicateProduct  = NewDomainError(KindConflict, ErrCodeDuplicateProduct, "Product code is already in use")
	ErrDuplicateCategory = NewDomainError(KindConflict, ErrCodeDuplicateCategory, "Category name is already in use")
	ErrUnauthenticated   = NewDomainError(KindUnauthenticated, ErrCodeUnauthorised, "Authentication required")
	ErrInvalidCredential = NewDomainError(KindUnauthenticated, ErrCodeInvalidCredentials, "Invalid credentials")
	ErrInvalidToken      = NewDomainError(KindUnauthenticated, ErrCodeInvalidToken, "Token is invalid or expired")
	ErrForbidden         = NewDomainError(KindForbidden, ErrCodeForbidden, "You are not allowed to perform this operation")
)
