package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/timgst1/coffeeshop/internal/authn"
	"github.com/timgst1/coffeeshop/internal/authn/authntest"
	"github.com/timgst1/coffeeshop/internal/authz"
	"github.com/timgst1/coffeeshop/internal/httpapi"
	"github.com/timgst1/coffeeshop/internal/metrics"
	"github.com/timgst1/coffeeshop/internal/policy"
	"github.com/timgst1/coffeeshop/internal/service"
)

type testServer struct {
	handler http.Handler
	issuer  *authntest.Issuer
	drinks  *service.MemoryDrinkService
}

func latte() service.Drink {
	return service.Drink{Title: "latte", Recipe: []service.Ingredient{
		{Name: "espresso", Color: "brown", Parts: 1},
		{Name: "milk", Color: "white", Parts: 3},
	}}
}

func newTestServer(t *testing.T, seed ...service.Drink) *testServer {
	t.Helper()
	return newTestServerWithPolicy(t, policy.Static{Doc: policy.Default()}, seed...)
}

func newTestServerWithPolicy(t *testing.T, src authz.PolicySource, seed ...service.Drink) *testServer {
	t.Helper()
	iss := authntest.NewIssuer(t)
	v, err := authn.NewVerifier(iss.KeySet(), authn.VerifierConfig{
		Domain:   authntest.Domain,
		Audience: authntest.Audience,
	})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	drinks := service.NewMemoryDrinkService(seed...)
	h := httpapi.NewRouter(httpapi.Deps{
		Drinks:      drinks,
		Authorizer:  authz.New(authn.BearerAuthenticator{Verifier: v}),
		Permissions: authz.NewRuntimeRoutes(src),
		Metrics:     metrics.New("coffeeshop"),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &testServer{handler: h, issuer: iss, drinks: drinks}
}

func (s *testServer) token(t *testing.T, perms ...string) string {
	t.Helper()
	return s.issuer.Sign(t, authntest.Claims(perms...))
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	var out map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", rr.Body.String(), err)
		}
	}
	return rr, out
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, body map[string]any, status int, code any, message string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body["success"])
	}
	if n, ok := code.(int); ok {
		code = float64(n)
	}
	if body["error"] != code {
		t.Fatalf("expected error %v, got %v", code, body["error"])
	}
	if message != "" && body["message"] != message {
		t.Fatalf("expected message %q, got %v", message, body["message"])
	}
}

func drinksOf(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	raw, ok := body["drinks"].([]any)
	if !ok {
		t.Fatalf("expected drinks array, got %v", body["drinks"])
	}
	out := make([]map[string]any, 0, len(raw))
	for _, d := range raw {
		out = append(out, d.(map[string]any))
	}
	return out
}

func TestPublicMenuUsesShortRecipe(t *testing.T) {
	s := newTestServer(t, latte())

	rr, body := s.do(t, http.MethodGet, "/drinks", "", "")
	if rr.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("expected 200 success, got %d: %s", rr.Code, rr.Body.String())
	}

	drinks := drinksOf(t, body)
	if len(drinks) != 1 || drinks[0]["title"] != "latte" {
		t.Fatalf("unexpected drinks %v", drinks)
	}
	recipe := drinks[0]["recipe"].([]any)
	first := recipe[0].(map[string]any)
	if _, leaked := first["name"]; leaked {
		t.Fatalf("short recipe must not carry ingredient names: %v", first)
	}
	if first["color"] != "brown" || first["parts"] != float64(1) {
		t.Fatalf("unexpected short ingredient %v", first)
	}
}

func TestEmptyMenuIsNotFound(t *testing.T) {
	s := newTestServer(t)

	rr, body := s.do(t, http.MethodGet, "/drinks", "", "")
	expectError(t, rr, body, http.StatusNotFound, http.StatusNotFound, "resource not found")
}

func TestDrinksDetailRequiresPermission(t *testing.T) {
	s := newTestServer(t, latte())

	rr, body := s.do(t, http.MethodGet, "/drinks-detail", "", "")
	expectError(t, rr, body, http.StatusUnauthorized, "authorization_header_missing", "Authorization header is expected.")
	if rr.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("expected WWW-Authenticate challenge on 401")
	}

	rr, body = s.do(t, http.MethodGet, "/drinks-detail", s.token(t, "post:drinks"), "")
	expectError(t, rr, body, http.StatusForbidden, "unauthorized", "Permission not found.")

	rr, body = s.do(t, http.MethodGet, "/drinks-detail", s.token(t, "get:drinks-detail"), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	first := drinksOf(t, body)[0]["recipe"].([]any)[0].(map[string]any)
	if first["name"] != "espresso" {
		t.Fatalf("expected long recipe with names, got %v", first)
	}
}

func TestAuthFailuresShortCircuitHandlers(t *testing.T) {
	s := newTestServer(t, latte())

	noPerms := authntest.Claims()
	delete(noPerms, "permissions")

	cases := map[string]struct {
		header string
		status int
		code   string
	}{
		"basic scheme":     {"Basic Zm9vOmJhcg==", http.StatusUnauthorized, "invalid_header"},
		"garbage token":    {"Bearer nope", http.StatusUnauthorized, "invalid_header"},
		"no permissions":   {"Bearer " + s.issuer.Sign(t, noPerms), http.StatusBadRequest, "invalid_claims"},
		"wrong permission": {"Bearer " + s.token(t, "patch:drinks"), http.StatusForbidden, "unauthorized"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/drinks/1", nil)
			req.Header.Set("Authorization", tc.header)
			rr := httptest.NewRecorder()
			s.handler.ServeHTTP(rr, req)

			var body map[string]any
			_ = json.Unmarshal(rr.Body.Bytes(), &body)
			expectError(t, rr, body, tc.status, tc.code, "")
		})
	}

	if _, err := s.drinks.GetDrink(t.Context(), 1); err != nil {
		t.Fatalf("drink must survive rejected deletes: %v", err)
	}
}

func TestDrinkCRUD(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "post:drinks", "patch:drinks", "delete:drinks", "get:drinks-detail")

	rr, body := s.do(t, http.MethodPost, "/drinks", tok,
		`{"title":"flat white","recipe":[{"name":"espresso","color":"brown","parts":2},{"name":"milk","color":"white","parts":1}]}`)
	if rr.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("create: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	created := drinksOf(t, body)[0]
	if created["id"] != float64(1) || created["title"] != "flat white" {
		t.Fatalf("unexpected created drink %v", created)
	}

	rr, body = s.do(t, http.MethodGet, "/drinks/1", "", "")
	if rr.Code != http.StatusOK || drinksOf(t, body)[0]["title"] != "flat white" {
		t.Fatalf("get: unexpected %d: %s", rr.Code, rr.Body.String())
	}

	rr, body = s.do(t, http.MethodPatch, "/drinks/1", tok, `{"title":"cortado"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	patched := drinksOf(t, body)[0]
	if patched["title"] != "cortado" || len(patched["recipe"].([]any)) != 2 {
		t.Fatalf("expected title change with recipe kept, got %v", patched)
	}

	rr, body = s.do(t, http.MethodPatch, "/drinks/1", tok, `{"recipe":{"name":"espresso","color":"brown","parts":1}}`)
	if rr.Code != http.StatusOK || len(drinksOf(t, body)[0]["recipe"].([]any)) != 1 {
		t.Fatalf("patch recipe object: unexpected %d: %s", rr.Code, rr.Body.String())
	}

	rr, body = s.do(t, http.MethodDelete, "/drinks/1", tok, "")
	if rr.Code != http.StatusOK || body["success"] != true || body["delete"] != float64(1) {
		t.Fatalf("delete: unexpected %d: %s", rr.Code, rr.Body.String())
	}

	rr, body = s.do(t, http.MethodGet, "/drinks/1", "", "")
	expectError(t, rr, body, http.StatusNotFound, http.StatusNotFound, "resource not found")
}

func TestCreateDrinkRejectsBadBodies(t *testing.T) {
	s := newTestServer(t, latte())
	tok := s.token(t, "post:drinks")

	for name, body := range map[string]string{
		"invalid json":    `{"title":`,
		"missing title":   `{"recipe":[{"name":"water","color":"blue","parts":1}]}`,
		"missing recipe":  `{"title":"water"}`,
		"empty recipe":    `{"title":"water","recipe":[]}`,
		"duplicate title": `{"title":"latte","recipe":[{"name":"milk","color":"white","parts":1}]}`,
		"recipe string":   `{"title":"water","recipe":"water"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rr, out := s.do(t, http.MethodPost, "/drinks", tok, body)
			expectError(t, rr, out, http.StatusUnprocessableEntity, http.StatusUnprocessableEntity, "unprocessable")
		})
	}
}

func TestUnknownDrinkIsNotFound(t *testing.T) {
	s := newTestServer(t, latte())
	tok := s.token(t, "patch:drinks", "delete:drinks")

	rr, body := s.do(t, http.MethodPatch, "/drinks/99", tok, `not json`)
	expectError(t, rr, body, http.StatusNotFound, http.StatusNotFound, "")

	rr, body = s.do(t, http.MethodDelete, "/drinks/99", tok, "")
	expectError(t, rr, body, http.StatusNotFound, http.StatusNotFound, "")

	// authorization runs before the lookup
	rr, body = s.do(t, http.MethodDelete, "/drinks/99", "", "")
	expectError(t, rr, body, http.StatusUnauthorized, "authorization_header_missing", "")
}

func TestGenericRoutingErrors(t *testing.T) {
	s := newTestServer(t, latte())

	rr, body := s.do(t, http.MethodGet, "/teapot", "", "")
	expectError(t, rr, body, http.StatusNotFound, http.StatusNotFound, "resource not found")

	rr, body = s.do(t, http.MethodGet, "/drinks/abc", "", "")
	expectError(t, rr, body, http.StatusNotFound, http.StatusNotFound, "")

	rr, body = s.do(t, http.MethodPut, "/drinks/1", "", "")
	expectError(t, rr, body, http.StatusMethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed")
}

func TestRoutePolicyDrivesGuards(t *testing.T) {
	strict := policy.Default()
	for i := range strict.Routes {
		if strict.Routes[i].Operation == policy.OpListDrinks {
			strict.Routes[i].Permission = "get:drinks"
		}
	}
	s := newTestServerWithPolicy(t, policy.Static{Doc: strict}, latte())

	rr, body := s.do(t, http.MethodGet, "/drinks", "", "")
	expectError(t, rr, body, http.StatusUnauthorized, "authorization_header_missing", "")

	rr, _ = s.do(t, http.MethodGet, "/drinks", s.token(t, "get:drinks"), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with get:drinks, got %d", rr.Code)
	}
}

func TestMissingPolicyIsUnprocessable(t *testing.T) {
	s := newTestServerWithPolicy(t, policy.Static{}, latte())

	rr, body := s.do(t, http.MethodGet, "/drinks", "", "")
	expectError(t, rr, body, http.StatusUnprocessableEntity, http.StatusUnprocessableEntity, "")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, latte())

	rr, _ := s.do(t, http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rr.Code)
	}
	rr, _ = s.do(t, http.MethodGet, "/readyz", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", rr.Code)
	}

	_, _ = s.do(t, http.MethodGet, "/drinks-detail", "", "")

	rr, _ = s.do(t, http.MethodGet, "/metrics", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rr.Code)
	}
	text := rr.Body.String()
	for _, want := range []string{
		`coffeeshop_authorizations_total{operation="drinks.detail",result="authorization_header_missing"} 1`,
		`coffeeshop_http_requests_total{method="GET",route="/healthz",status="200"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected metrics to contain %s\n%s", want, text)
		}
	}
}
