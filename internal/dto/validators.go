package dto

import (
	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations installs the closed-set validators referenced
// by binding tags in this package. Call once at startup.
func RegisterCustomValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("allocationstrategy", func(fl validator.FieldLevel) bool {
		return domain.AllocationStrategy(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("documenttype", func(fl validator.FieldLevel) bool {
		return domain.DocumentType(fl.Field().String()).IsValid()
	})
}
