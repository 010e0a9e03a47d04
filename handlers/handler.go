package handlers

import (
	"errors"
	"log"
	"reflect"
	"strings"

	"github.com/anjiri1684/review_scheduler/apperror"
	"github.com/anjiri1684/review_scheduler/middleware"
	"github.com/anjiri1684/review_scheduler/models"
	"github.com/anjiri1684/review_scheduler/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return models.IsTimeOfDay(fl.Field().String())
	})
	_ = v.RegisterValidation("halfstep", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() == reflect.Ptr {
			if f.IsNil() {
				return true
			}
			f = f.Elem()
		}
		return services.ValidateScore(fl.FieldName(), f.Float()) == nil
	})
	return v
}

// bind parses the body into req and runs the struct validation.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperror.Invalid("body", "cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperror.Invalid(fieldPath(fe), "failed on the '%s' rule", fe.Tag())
		}
		return apperror.Invalid("body", "%v", err)
	}
	return nil
}

// fieldPath drops the top-level struct name from the validator namespace so
// nested fields read like "scores.theory".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func actor(c *fiber.Ctx) (models.Actor, error) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		return models.Actor{}, fiber.ErrUnauthorized
	}
	return a, nil
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Invalid(name, "must be a valid UUID")
	}
	return id, nil
}

// respond maps application errors onto HTTP statuses.
func respond(c *fiber.Ctx, err error) error {
	var (
		ve *apperror.ValidationError
		ce *apperror.ConflictError
		se *apperror.StateError
		ae *apperror.AuthorizationError
		fe *fiber.Error
	)
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &ce):
		body := fiber.Map{"error": ce.Error(), "kind": ce.Kind}
		if ce.Existing != nil {
			body["existing"] = ce.Existing
		}
		return c.Status(fiber.StatusConflict).JSON(body)
	case errors.As(err, &se):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": se.Error(), "status": se.Status})
	case errors.As(err, &ae):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": ae.Error()})
	case apperror.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &fe):
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	log.Printf("🔥 %s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
