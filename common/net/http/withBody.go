package http

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	en2 "github.com/go-playground/validator/translations/en"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gopkg.in/go-playground/validator.v9"

	"github.com/elder-platform/elder/common"
)

// DecodeHandlerFunc is a handler which works with the WithBody/WithDecode
// decorators. It receives the struct decoded from the request body.
type DecodeHandlerFunc func(p any, c *fiber.Ctx) error

// PayloadContextValue is a wrapper type used to keep Context.Locals safe.
type PayloadContextValue string

// ConstructorFunc constructs a fresh zero-value instance of a payload type.
type ConstructorFunc func() any

type decoderHandler struct {
	handler      DecodeHandlerFunc
	constructor  ConstructorFunc
	structSource any
}

func newOfType(s any) any {
	t := reflect.TypeOf(s)
	v := reflect.New(t.Elem())

	return v.Interface()
}

// FiberHandlerFunc decodes the incoming request body into a Go struct,
// rejects unknown fields, validates the struct, then calls the wrapped
// handler (spec §4.7 step 1: typed payload validation, not stringly
// parsed).
func (d *decoderHandler) FiberHandlerFunc(c *fiber.Ctx) error {
	var s any
	if d.constructor != nil {
		s = d.constructor()
	} else {
		s = newOfType(d.structSource)
	}

	bodyBytes := c.Body()

	if err := json.Unmarshal(bodyBytes, s); err != nil {
		return WithError(c, common.ValidationError{Title: "Malformed JSON", Message: err.Error()})
	}

	marshaled, err := json.Marshal(s)
	if err != nil {
		return WithError(c, common.InternalServerError{Err: err})
	}

	var originalMap, marshaledMap map[string]any

	if err := json.Unmarshal(bodyBytes, &originalMap); err != nil {
		return WithError(c, common.ValidationError{Title: "Malformed JSON", Message: err.Error()})
	}

	if err := json.Unmarshal(marshaled, &marshaledMap); err != nil {
		return WithError(c, common.InternalServerError{Err: err})
	}

	diffFields := make(map[string]any)

	for key, value := range originalMap {
		if _, ok := marshaledMap[key]; !ok {
			diffFields[key] = value
		}
	}

	if len(diffFields) > 0 {
		fieldNames := make([]string, 0, len(diffFields))
		for k := range diffFields {
			fieldNames = append(fieldNames, k)
		}

		return WithError(c, common.ValidationError{
			Title:   "Unexpected Fields in the Request",
			Message: "unrecognized fields: " + strings.Join(fieldNames, ", "),
		})
	}

	if err := ValidateStruct(s); err != nil {
		return WithError(c, err)
	}

	c.Locals("fields", diffFields)

	parseMetadata(s, originalMap)

	return d.handler(s, c)
}

// WithDecode wraps a handler function with a payload constructed via c.
func WithDecode(c ConstructorFunc, h DecodeHandlerFunc) fiber.Handler {
	d := &decoderHandler{handler: h, constructor: c}
	return d.FiberHandlerFunc
}

// WithBody wraps a handler function, providing it with an instance of the
// given struct type (passed as a pointer to a zero value, e.g. &Foo{}).
func WithBody(s any, h DecodeHandlerFunc) fiber.Handler {
	d := &decoderHandler{handler: h, structSource: s}
	return d.FiberHandlerFunc
}

// SetBodyInContext injects the decoded body into the Fiber context locals.
func SetBodyInContext(handler fiber.Handler) DecodeHandlerFunc {
	return func(s any, c *fiber.Ctx) error {
		c.Locals(string(PayloadContextValue("payload")), s)
		return handler(c)
	}
}

// GetPayloadFromContext retrieves the decoded request payload.
func GetPayloadFromContext(c *fiber.Ctx) any {
	return c.Locals(string(PayloadContextValue("payload")))
}

// ValidateStruct validates s against its `validate` struct tags.
func ValidateStruct(s any) error {
	v, trans := newValidator()

	k := reflect.ValueOf(s).Kind()
	if k == reflect.Ptr {
		k = reflect.ValueOf(s).Elem().Kind()
	}

	if k != reflect.Struct {
		return nil
	}

	err := v.Struct(s)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return common.ValidationError{Title: "Validation Error", Message: err.Error()}
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fieldError := range validationErrs {
		messages = append(messages, fieldError.Translate(trans))
	}

	return common.ValidationError{
		Title:   "Validation Error",
		Message: strings.Join(messages, "; "),
	}
}

// ParseUUIDPathParameters parses every path parameter as a UUID, storing the
// parsed value back into c.Locals under the same name. Endpoints whose path
// parameters are Village-IDs rather than UUIDs (see lookup/{village_id})
// must not apply this middleware.
func ParseUUIDPathParameters(c *fiber.Ctx) error {
	params := c.AllParams()

	var invalid []string

	for param, value := range params {
		parsed, err := uuid.Parse(value)
		if err != nil {
			invalid = append(invalid, param)
			continue
		}

		c.Locals(param, parsed)
	}

	if len(invalid) > 0 {
		return WithError(c, common.ValidationError{
			Title:   "Invalid Path Parameter",
			Message: "not a valid identifier: " + strings.Join(invalid, ", "),
		})
	}

	return c.Next()
}

//nolint:ireturn
func newValidator() (*validator.Validate, ut.Translator) {
	locale := en.New()
	uni := ut.New(locale, locale)

	trans, _ := uni.GetTranslator("en")

	v := validator.New()

	if err := en2.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("keymax", validateMetadataKeyMaxLength)
	_ = v.RegisterValidation("nonested", validateMetadataNestedValues)
	_ = v.RegisterValidation("valuemax", validateMetadataValueMaxLength)

	_ = v.RegisterTranslation("keymax", trans, func(ut ut.Translator) error {
		return ut.Add("keymax", "{0} exceeds the maximum key length", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("keymax", formatErrorFieldName(fe.Field()))
		return t
	})

	_ = v.RegisterTranslation("valuemax", trans, func(ut ut.Translator) error {
		return ut.Add("valuemax", "{0} exceeds the maximum value length", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("valuemax", formatErrorFieldName(fe.Field()))
		return t
	})

	_ = v.RegisterTranslation("nonested", trans, func(ut ut.Translator) error {
		return ut.Add("nonested", "{0} must not contain nested maps", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("nonested", formatErrorFieldName(fe.Field()))
		return t
	})

	return v, trans
}

// validateMetadataNestedValues rejects map values that are themselves maps,
// enforced on the entity `attributes` and dependency `metadata` maps (spec
// §3, §9 "opaque JSON-value map").
func validateMetadataNestedValues(fl validator.FieldLevel) bool {
	return fl.Field().Kind() != reflect.Map
}

func validateMetadataKeyMaxLength(fl validator.FieldLevel) bool {
	limit := 100

	if p := fl.Param(); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			limit = parsed
		}
	}

	return len(fl.Field().String()) <= limit
}

func validateMetadataValueMaxLength(fl validator.FieldLevel) bool {
	limit := 2000

	if p := fl.Param(); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			limit = parsed
		}
	}

	var value string

	switch fl.Field().Kind() {
	case reflect.Int:
		value = strconv.Itoa(int(fl.Field().Int()))
	case reflect.Float64:
		value = strconv.FormatFloat(fl.Field().Float(), 'f', -1, 64)
	case reflect.String:
		value = fl.Field().String()
	case reflect.Bool:
		value = strconv.FormatBool(fl.Field().Bool())
	default:
		return false
	}

	return len(value) <= limit
}

func formatErrorFieldName(text string) string {
	re := regexp.MustCompile(`\[(.+?)]`)

	matches := re.FindStringSubmatch(text)
	if len(matches) > 1 {
		return matches[1]
	}

	return text
}

// parseMetadata ensures an absent "metadata"/"attributes" key in the request
// body becomes an empty map rather than nil, for compliance with RFC 7396
// JSON Merge Patch semantics on PATCH requests.
func parseMetadata(s any, originalMap map[string]any) {
	val := reflect.ValueOf(s)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return
	}

	val = val.Elem()

	for _, name := range []string{"Metadata", "Attributes"} {
		field := val.FieldByName(name)
		if !field.IsValid() || !field.CanSet() || field.Kind() != reflect.Map {
			continue
		}

		key := strings.ToLower(name)
		if _, exists := originalMap[key]; !exists {
			field.Set(reflect.MakeMap(field.Type()))
		}
	}
}
