package dto

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/domain/registers/ledger"
)

// RegisterValidators installs the warehouse_category and stock_event tags on
// gin's validator. Call once before serving.
func RegisterValidators(categories *inventory.Categories) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return registerOn(v, categories)
}

func registerOn(v *validator.Validate, categories *inventory.Categories) error {
	if err := v.RegisterValidation("warehouse_category", func(fl validator.FieldLevel) bool {
		return categories.IsValid(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register warehouse_category: %w", err)
	}

	// stock_event accepts only the events a caller may post directly.
	if err := v.RegisterValidation("stock_event", func(fl validator.FieldLevel) bool {
		switch ledger.EventType(fl.Field().String()) {
		case ledger.EventIn, ledger.EventOut, ledger.EventInitial:
			return true
		}
		return false
	}); err != nil {
		return fmt.Errorf("register stock_event: %w", err)
	}
	return nil
}
