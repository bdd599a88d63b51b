package users

import (
	"encoding/json"
	"errors"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/dandy1414/user-api/internal/domain"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// Defaults of the list query.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// CreateUserRequest is the payload of a user creation.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=administrator manager user"`
	Active   *bool  `json:"active"`

	typeErrors []FieldError
}

// RoleOrDefault returns the requested role, or the user role when omitted.
func (r *CreateUserRequest) RoleOrDefault() domain.Role {
	if r.Role == "" {
		return domain.RoleUser
	}
	return domain.Role(r.Role)
}

// ActiveOrDefault returns the requested active flag, true when omitted.
func (r *CreateUserRequest) ActiveOrDefault() bool {
	if r.Active == nil {
		return true
	}
	return *r.Active
}

// BindCreateUser builds a request from decoded JSON or form values. Values
// of the wrong type are recorded and reported by validation under the rule
// naming the expected type.
func BindCreateUser(raw map[string]any) CreateUserRequest {
	var req CreateUserRequest

	bindString := func(field string, trim bool) string {
		value, ok := stringValue(raw[field])
		if !ok {
			req.typeErrors = append(req.typeErrors, FieldError{Field: field, Rule: "string"})
			return ""
		}
		if trim {
			value = strings.TrimSpace(value)
		}
		return value
	}

	req.Name = norm.NFC.String(bindString("name", true))
	req.Email = bindString("email", true)
	req.Password = bindString("password", false)
	req.Role = bindString("role", true)

	if v, present := raw["active"]; present && v != nil {
		active := boolValue(v)
		req.Active = &active
	}

	return req
}

// stringValue accepts absent, null and string values.
func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", true
	case string:
		return s, true
	default:
		return "", false
	}
}

// boolValue coerces a JSON or form value to a boolean. The usual false
// spellings, zero and empty values are false. Everything else is true.
func boolValue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case json.Number:
		f, err := b.Float64()
		return err != nil || f != 0
	case float64:
		return b != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "0", "false", "off", "no", "":
			return false
		}
		return true
	case []any:
		return len(b) > 0
	case map[string]any:
		return len(b) > 0
	}
	return v != nil
}

// ListUsersQuery holds the query parameters of a user listing.
type ListUsersQuery struct {
	Search        string `json:"search"`
	Page          int    `json:"page" validate:"min=1"`
	SortBy        string `json:"sortBy" validate:"oneof=name email created_at"`
	Limit         int    `json:"limit" validate:"min=1,max=100"`
	CurrentRole   string `json:"currentRole" validate:"oneof=administrator manager user"`
	CurrentUserID *int64 `json:"currentUserId" validate:"omitnil,min=1"`

	typeErrors []FieldError
}

// ParseListUsersQuery reads the list parameters from a query string and
// applies defaults. Empty values count as absent.
func ParseListUsersQuery(values url.Values) ListUsersQuery {
	get := values.Get
	q := ListUsersQuery{
		Search:      norm.NFC.String(strings.TrimSpace(get("search"))),
		Page:        DefaultPage,
		SortBy:      string(SortByCreatedAt),
		Limit:       DefaultLimit,
		CurrentRole: string(domain.RoleUser),
	}

	parseInt := func(field string) (int64, bool) {
		raw := strings.TrimSpace(get(field))
		if raw == "" {
			return 0, false
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			q.typeErrors = append(q.typeErrors, FieldError{Field: field, Rule: "integer"})
			return 0, false
		}
		return n, true
	}

	if n, ok := parseInt("page"); ok {
		q.Page = clampInt(n)
	}
	if n, ok := parseInt("limit"); ok {
		q.Limit = clampInt(n)
	}
	if n, ok := parseInt("currentUserId"); ok {
		q.CurrentUserID = &n
	}
	if s := strings.TrimSpace(get("sortBy")); s != "" {
		q.SortBy = s
	}
	if s := strings.TrimSpace(get("currentRole")); s != "" {
		q.CurrentRole = s
	}

	return q
}

// clampInt keeps out-of-range values out of range after conversion to int.
func clampInt(n int64) int {
	const maxInt = int64(^uint(0) >> 1)
	switch {
	case n > maxInt:
		return int(maxInt)
	case n < -maxInt:
		return int(-maxInt)
	}
	return int(n)
}

// Viewer returns the viewer described by the query.
func (q *ListUsersQuery) Viewer() Viewer {
	return Viewer{Role: domain.Role(q.CurrentRole), UserID: q.CurrentUserID}
}

// newValidator returns a validator reporting fields by their JSON name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// validateStruct runs v over s and merges the result with the type errors
// found while binding. A field that failed binding is not validated again.
func validateStruct(v *validator.Validate, s any, typeErrors []FieldError) ([]FieldError, error) {
	fields := append([]FieldError(nil), typeErrors...)

	err := v.Struct(s)
	if err == nil {
		return fields, nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, err
	}

	for _, e := range validationErrors {
		if hasField(typeErrors, e.Field()) {
			continue
		}
		fields = append(fields, FieldError{Field: e.Field(), Rule: e.Tag()})
	}
	return fields, nil
}

func hasField(fields []FieldError, field string) bool {
	for _, f := range fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
