package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/socialfeed/internal/domain/user"
	"github.com/geocoder89/socialfeed/internal/http/handlers"
	"github.com/geocoder89/socialfeed/internal/validation"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                  `json:"json"`
			Field  string                  `json:"field"`
			Fields []validation.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindRouter(newReq func() interface{}) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/bind", func(ctx *gin.Context) {
		req := newReq()
		if !handlers.BindJSON(ctx, req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func postBind(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := bindRouter(func() interface{} { return &user.RegisterRequest{} })

	w := postBind(r, `{"name":"Alice","email":"not-an-email","password":"123"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"email":    "email",
		"password": "min",
	}

	found := map[string]validation.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_PasswordOverBcryptLimit(t *testing.T) {
	r := bindRouter(func() interface{} { return &user.RegisterRequest{} })

	w := postBind(r, `{"name":"Alice","email":"alice@example.com","password":"`+strings.Repeat("p", 73)+`"}`)

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if w.Code != http.StatusBadRequest || len(resp.Error.Details.Fields) != 1 {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if f := resp.Error.Details.Fields[0]; f.Field != "password" || f.Rule != "max" || f.Param != "72" {
		t.Fatalf("unexpected field error: %+v", f)
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := bindRouter(func() interface{} { return &user.UpdateProfileRequest{} })

	w := postBind(r, `{"name":"Alice","bio":42}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "bio" {
		t.Fatalf("expected detail field to be bio, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 || resp.Error.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type rule in details.fields, got %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSON_SyntaxAndEmptyBody(t *testing.T) {
	r := bindRouter(func() interface{} { return &user.LoginRequest{} })

	tests := []struct {
		body string
		want string
	}{
		{`{"email" "a@b.co"}`, "invalid_json_syntax"},
		{`{"email":`, "invalid_json_syntax"},
		{``, "empty_body"},
	}

	for _, tt := range tests {
		w := postBind(r, tt.body)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: got status %d, want 400", tt.body, w.Code)
		}

		var resp bindErrorResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)

		if resp.Error.Details.JSON != tt.want {
			t.Fatalf("body %q: got %q, want %q", tt.body, resp.Error.Details.JSON, tt.want)
		}
	}
}
