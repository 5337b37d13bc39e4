package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/shelfplanner/pkg/errors"
)

type searchRequest struct {
	Search string `json:"search" validate:"max=5"`
	Sort   string `json:"sort" validate:"required,oneof=name thc"`
}

func TestDecodeJSONBodyValidatesFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"search":"too long","sort":"price"}`))
	var dest searchRequest
	err := DecodeJSONBody(req, &dest)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", pkgerrors.As(err).Details())
	}
	if details["search"] != "must be at most 5" || details["sort"] != "must be one of name thc" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"sort":"name","extra":1}`))
	var dest searchRequest
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBatchToleratesUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[{"sort":"name","url":"x"},{"sort":""}]`))
	batch, err := DecodeJSONBatch[searchRequest](req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch) != 2 || batch[0].Sort != "name" {
		t.Fatalf("unexpected batch %+v", batch)
	}
}

func TestDecodeJSONBatchRejectsNonArray(t *testing.T) {
	for _, body := range []string{`{"sort":"name"}`, `null`, ``} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if _, err := DecodeJSONBatch[searchRequest](req); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("body %q: expected validation error, got %v", body, err)
		}
	}
}

func TestSanitizeStringCapsRunes(t *testing.T) {
	if got := SanitizeString("  Étoile du Nord  ", 6); got != "Étoile" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
	if got := SanitizeString(" abc ", 0); got != "abc" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
}
