package validation

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/vinodismyname/mcpcsv/internal/table"
	"github.com/vinodismyname/mcpcsv/pkg/pagination"
)

var (
	v    *validator.Validate
	once sync.Once
)

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New()
		// Report fields by their JSON names so messages match tool arguments.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		// Custom: path must carry a table extension (.csv, .xlsx, .xlsm)
		_ = v.RegisterValidation("table_ext", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return false
			}
			switch strings.ToLower(filepath.Ext(s)) {
			case ".csv", ".xlsx", ".xlsm":
				return true
			}
			return false
		})
		// Custom: row specifier must be a number, "first", or "last"
		_ = v.RegisterValidation("rowspec", func(fl validator.FieldLevel) bool {
			_, err := table.ParseRowSpec(fl.Field().String())
			return err == nil
		})
		// Custom: cursor must be decodable via pagination.DecodeCursor
		_ = v.RegisterValidation("cursor", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true // empty is allowed; use omitempty with this tag
			}
			if _, err := base64.RawURLEncoding.DecodeString(s); err != nil {
				return false
			}
			_, err := pagination.DecodeCursor(s)
			return err == nil
		})
	})
	return v
}

// ValidateStruct validates a struct and returns a user-friendly error string
// suitable for MCP tool errors. Returns empty string when valid.
func ValidateStruct(s any) string {
	err := Validator().Struct(s)
	if err == nil {
		return ""
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok || len(ve) == 0 {
		return "VALIDATION: invalid inputs"
	}
	fe := ve[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("VALIDATION: %s is required", field)
	case "required_without":
		return fmt.Sprintf("VALIDATION: %s is required (or supply cursor)", field)
	case "table_ext":
		return "VALIDATION: path must be a table file (.csv, .xlsx, .xlsm)"
	case "rowspec":
		return fmt.Sprintf("INVALID_ROW: Invalid row specifier '%v'. Use a number, 'first', or 'last'.", fe.Value())
	case "cursor":
		return "CURSOR_INVALID: failed to decode cursor; restart pagination"
	case "min", "max", "gte", "lte":
		return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("VALIDATION: invalid %s", field)
}
