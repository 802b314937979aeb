package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to their own copy.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED" // logged out
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthAccountDisabled    = "AUTH_ACCOUNT_DISABLED"
	AuthWeakPassword       = "AUTH_WEAK_PASSWORD"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Menu (MENU_) ====================
	MenuProductNotFound    = "MENU_PRODUCT_NOT_FOUND"
	MenuProductUnavailable = "MENU_PRODUCT_UNAVAILABLE"
	MenuNameTaken          = "MENU_NAME_TAKEN"
	MenuInvalidCategory    = "MENU_INVALID_CATEGORY"
	MenuInvalidPrice       = "MENU_INVALID_PRICE"
	MenuAddOnNotFound      = "MENU_ADD_ON_NOT_FOUND"
	MenuInvalidRecipe      = "MENU_INVALID_RECIPE"

	// ==================== Inventory (INVENTORY_) ====================
	InventoryIngredientNotFound = "INVENTORY_INGREDIENT_NOT_FOUND"
	InventoryInsufficientStock  = "INVENTORY_INSUFFICIENT_STOCK"
	InventoryInvalidThresholds  = "INVENTORY_INVALID_THRESHOLDS"
	InventoryInvalidAdjustment  = "INVENTORY_INVALID_ADJUSTMENT"
	InventoryIngredientInUse    = "INVENTORY_INGREDIENT_IN_USE"

	// ==================== Cart (CART_) ====================
	CartSessionNotFound = "CART_SESSION_NOT_FOUND" // register session expired or never opened
	CartItemNotFound    = "CART_ITEM_NOT_FOUND"
	CartEmpty           = "CART_EMPTY"
	CartInvalidDiscount = "CART_INVALID_DISCOUNT"
	CartInvalidSize     = "CART_INVALID_SIZE"
	CartInvalidPrice    = "CART_INVALID_PRICE"
	CartCheckoutBusy    = "CART_CHECKOUT_IN_PROGRESS"
	CartBusy            = "CART_BUSY"

	// ==================== Order (ORDER_) ====================
	OrderNotFound             = "ORDER_NOT_FOUND"
	OrderInvalidPayload       = "ORDER_INVALID_PAYLOAD"
	OrderInvalidPaymentMethod = "ORDER_INVALID_PAYMENT_METHOD"
	OrderAlreadyVoided        = "ORDER_ALREADY_VOIDED"
	OrderCartNotCleared       = "ORDER_CART_NOT_CLEARED"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API" // redis, s3
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
