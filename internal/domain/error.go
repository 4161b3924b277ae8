package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrSaleNotFound       = errors.New("sale not found")
	ErrPromotionNotFound  = errors.New("promotion not found")
	ErrNoActivePromotions = errors.New("sale has no active promotions")
	ErrSaleNotEligible    = errors.New("sale is not eligible for promotion")
	ErrInvalidWindow      = errors.New("promotion window end must be after start")
	ErrInvalidSignature   = errors.New("webhook signature verification failed")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrAdminToolsDisabled = errors.New("admin promotion tools are disabled")

	// Infrastructure-facing errors surfaced by repositories
	ErrOperationFailed    = errors.New("database operation failed")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
