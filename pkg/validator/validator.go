package validator

import (
	"errors"
	"reflect"
	"strings"

	"printshop-api/internal/apperror"
	"printshop-api/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

func init() {
	// Report json names ("due_date") instead of Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})
	validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return model.ValidSlug(fl.Field().String())
	})
	// An empty domain clears it.
	validate.RegisterValidation("domain", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || validate.Var(s, "fqdn") == nil
	})
	validate.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		return model.OrderStatus(fl.Field().String()).IsValid()
	})
	validate.RegisterValidation("delivery_status", func(fl validator.FieldLevel) bool {
		return model.DeliveryStatus(fl.Field().String()).IsValid()
	})
	validate.RegisterValidation("ticket_status", func(fl validator.FieldLevel) bool {
		return model.TicketStatus(fl.Field().String()).IsValid()
	})
}

// ValidateStruct runs the struct's validate tags and returns nil or a
// validation apperror listing every failed field.
func ValidateStruct(data interface{}) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("invalid request")
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field: fieldPath(fe.Namespace()),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	first := fields[0]
	return apperror.ValidationFields("validation failed: field '"+first.Field+"' failed on '"+first.Tag+"'", fields)
}

// fieldPath drops the root struct name: "CreateOrderRequest.items[0].quantity" -> "items[0].quantity".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
