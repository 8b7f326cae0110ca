// Package response はHTTPレスポンスの共通DTOとバリデーションエラー変換を提供します。
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"pricing_backend/internal/shared/validation"
)

// ErrorResponse はエラー時のレスポンスボディです。
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// MessageResponse は本文がメッセージのみのレスポンスボディです。
type MessageResponse struct {
	Message string `json:"message"`
}

var registerOnce sync.Once

// RegisterJSONTagNames はGinのバリデーターがjsonタグ名でフィールドを報告するよう設定します。
// ルーター生成時（およびハンドラーのテスト）で一度呼び出します。
func RegisterJSONTagNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// Invalid はバインド・バリデーションエラーから400用のレスポンスを組み立てます。
func Invalid(err error) ErrorResponse {
	return ErrorResponse{Error: "invalid request", Fields: FieldErrors(err)}
}

// FieldErrors はエラーをフィールド名→メッセージのマップに変換します。
// フィールドを特定できないエラー（不正なJSONなど）は "body" キーにまとめます。
func FieldErrors(err error) map[string]string {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Fields
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		out := make(map[string]string, len(ves))
		for _, fe := range ves {
			out[fe.Field()] = message(fe)
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return map[string]string{typeErr.Field: fmt.Sprintf("must be a %s", typeErr.Type.String())}
	}

	return map[string]string{"body": "malformed request body"}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("ensure this field has at least %s characters", fe.Param())
		}
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
		}
		return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gt":
		return fmt.Sprintf("ensure this value is greater than %s", fe.Param())
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}
