// Package testutil provides testing utilities for integration tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// reportLimit caps how much of a validation error or body ends up in a
// test failure.
const reportLimit = 400

// Contract checks API traffic against the OpenAPI document of the service.
type Contract struct {
	router routers.Router
}

// LoadContract parses and validates the OpenAPI document at path. It does
// not need a *testing.T, so TestMain can call it.
func LoadContract(path string) (*Contract, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid document %s: %w", path, err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}
	return &Contract{router: router}, nil
}

// Check reports every way req and resp disagree with the document. The
// response body is read and replaced, so callers can still decode it.
// Endpoints serving plain text, HTML or the document itself are skipped.
func (c *Contract) Check(t *testing.T, req *http.Request, resp *http.Response) {
	t.Helper()

	switch req.URL.Path {
	case "/healthz", "/readyz", "/docs", "/api/openapi.yaml":
		return
	}

	in, err := c.requestInput(req)
	if err != nil {
		t.Errorf("%s %s is not in the document: %v", req.Method, req.URL.Path, err)
		return
	}
	ctx := context.Background()

	if err := openapi3filter.ValidateRequest(ctx, in); err != nil {
		t.Errorf("%s %s: request breaks the document: %s", req.Method, req.URL.Path, clip(err.Error()))
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		t.Errorf("read response body: %v", err)
		return
	}

	err = openapi3filter.ValidateResponse(ctx, &openapi3filter.ResponseValidationInput{
		RequestValidationInput: in,
		Status:                 resp.StatusCode,
		Header:                 resp.Header,
		Body:                   io.NopCloser(bytes.NewReader(body)),
		Options:                &openapi3filter.Options{MultiError: true, IncludeResponseStatus: true},
	})
	if err != nil {
		t.Errorf("%s %s: %d response breaks the document: %s\nbody: %s",
			req.Method, req.URL.Path, resp.StatusCode, clip(err.Error()), clip(string(bytes.TrimSpace(body))))
	}
}

// requestInput finds the operation serving req. The document declares no
// servers, so the lookup uses the bare path while validation sees the full
// request, query string included.
func (c *Contract) requestInput(req *http.Request) (*openapi3filter.RequestValidationInput, error) {
	lookup, err := http.NewRequest(req.Method, req.URL.Path, nil)
	if err != nil {
		return nil, err
	}
	route, params, err := c.router.FindRoute(lookup)
	if err != nil {
		return nil, err
	}
	return &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: params,
		Route:      route,
		Options:    &openapi3filter.Options{MultiError: true},
	}, nil
}

func clip(s string) string {
	if len(s) > reportLimit {
		return s[:reportLimit] + "..."
	}
	return s
}
