package upstream

import (
	"net/http"
	"testing"
)

func TestExtractMessageShapes(t *testing.T) {
	for name, tc := range map[string]struct {
		body string
		want string
	}{
		"flat":          {`{"message":"Insufficient balance"}`, "Insufficient balance"},
		"nested":        {`{"payload":{"message":"Invalid operator"}}`, "Invalid operator"},
		"doubly nested": {`{"payload":{"message":{"message":"Phone not supported"}}}`, "Phone not supported"},
		"error key":     {`{"error":"bad request"}`, "bad request"},
		"bare string":   {`"service unavailable"`, "service unavailable"},
		"junk":          {`<html>gateway error</html>`, "Something went wrong. Please try again."},
		"no message":    {`{"code":42}`, "Something went wrong. Please try again."},
	} {
		if got := ExtractMessage([]byte(tc.body)); got != tc.want {
			t.Fatalf("%s: ExtractMessage(%q) = %q, want %q", name, tc.body, got, tc.want)
		}
	}
}

func TestAPIErrorNotFound(t *testing.T) {
	err := newAPIError(http.StatusNotFound, []byte(`{"message":"no record"}`))
	if !err.NotFound() {
		t.Fatal("404 must report NotFound")
	}
	if err.Message != "no record" {
		t.Fatalf("unexpected message %q", err.Message)
	}

	if newAPIError(http.StatusBadGateway, nil).NotFound() {
		t.Fatal("non-404 must not report NotFound")
	}
}
