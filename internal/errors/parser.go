package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a client-safe code and message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps storage and infrastructure errors to a client-safe code
// and message. Driver details never reach the client.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. gorm errors (translated when TranslateError is on)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return parseDuplicateKeyError(errStr, context)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return parseForeignKeyError(errStr, context)
	}

	// 2. Raw driver messages (postgres and sqlite)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr, context)
	}
	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStr, context)
	}
	if strings.Contains(errStrLower, "not-null constraint") || strings.Contains(errStrLower, "not null constraint") {
		return ErrorInfo{
			Code:    ValidationRequired,
			Message: "A required field is missing",
		}
	}
	if strings.Contains(errStrLower, "check constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "Invalid input",
		}
	}

	// 3. Network and connection errors
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "A backing service is unavailable. Please try again shortly",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") {
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "Email is already in use"}
	}
	if strings.Contains(errLower, "order_number") {
		return ErrorInfo{Code: ResourceConflict, Message: "Order number collision. Please retry checkout"}
	}
	if strings.Contains(errLower, "recipe") {
		return ErrorInfo{Code: MenuInvalidRecipe, Message: "An ingredient appears twice in the recipe"}
	}
	if strings.Contains(errLower, "name") || strings.Contains(context, "product") ||
		strings.Contains(context, "add-on") || strings.Contains(context, "ingredient") {
		return ErrorInfo{Code: MenuNameTaken, Message: "That name is already in use"}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "This record already exists",
	}
}

func parseForeignKeyError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "still referenced") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "Other records still reference this " + subject(context),
		}
	}
	if strings.Contains(errLower, "ingredient") {
		return ErrorInfo{Code: InventoryIngredientNotFound, Message: "Ingredient not found"}
	}
	if strings.Contains(errLower, "product") {
		return ErrorInfo{Code: MenuProductNotFound, Message: "Product not found"}
	}

	return ErrorInfo{
		Code:    ResourceNotFound,
		Message: "A referenced record was not found",
	}
}

func subject(context string) string {
	for _, s := range []string{"product", "add-on", "ingredient", "order", "user"} {
		if strings.Contains(strings.ToLower(context), s) {
			return s
		}
	}
	return "record"
}

func getNotFoundMessage(context string) string {
	switch subject(context) {
	case "product":
		return "Product not found"
	case "add-on":
		return "Add-on not found"
	case "ingredient":
		return "Ingredient not found"
	case "order":
		return "Order not found"
	case "user":
		return "User not found"
	}
	return "The requested record was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"):
		return "Could not save. Please try again"
	case strings.Contains(contextLower, "update"):
		return "Could not update. Please try again"
	case strings.Contains(contextLower, "delete"):
		return "Could not delete. Please try again"
	case strings.Contains(contextLower, "checkout"):
		return "Checkout failed. The cart was kept, please try again"
	}
	return "Something went wrong. Please try again"
}

// ParseAndRespond parses err and writes it with statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
