package wilayah

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, status int, body string, capture *string) *Client {
	t.Helper()
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if capture != nil {
			*capture = req.URL.String()
		}
		if req.Header.Get("Accept") != "application/json" {
			t.Fatalf("missing accept header")
		}
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     http.Header{},
		}, nil
	})
	return NewClient(WithBaseURL("http://wilayah.test/api/"), WithHTTPClient(&http.Client{Transport: rt}))
}

func TestProvinces(t *testing.T) {
	var url string
	client := newTestClient(t, http.StatusOK, `{"data":[{"code":"31","name":"DKI Jakarta"}],"meta":{"administrative_area_level":1}}`, &url)

	regions, err := client.Provinces(context.Background())
	if err != nil {
		t.Fatalf("provinces: %v", err)
	}
	if url != "http://wilayah.test/api/provinces.json" {
		t.Fatalf("unexpected url %q", url)
	}
	if len(regions) != 1 || regions[0].Code != "31" || regions[0].Name != "DKI Jakarta" {
		t.Fatalf("unexpected regions %+v", regions)
	}
}

func TestChildLevelsUseParentCode(t *testing.T) {
	cases := []struct {
		name string
		call func(*Client) ([]Region, error)
		want string
	}{
		{"regencies", func(c *Client) ([]Region, error) { return c.Regencies(context.Background(), "31") }, "http://wilayah.test/api/regencies/31.json"},
		{"districts", func(c *Client) ([]Region, error) { return c.Districts(context.Background(), "31.71") }, "http://wilayah.test/api/districts/31.71.json"},
		{"villages", func(c *Client) ([]Region, error) { return c.Villages(context.Background(), "31.71.01") }, "http://wilayah.test/api/villages/31.71.01.json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var url string
			client := newTestClient(t, http.StatusOK, `{"data":[]}`, &url)
			regions, err := tc.call(client)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if url != tc.want {
				t.Fatalf("unexpected url %q", url)
			}
			if regions == nil || len(regions) != 0 {
				t.Fatalf("expected empty non-nil list, got %#v", regions)
			}
		})
	}
}

func TestMissingParentCodeIsValidationError(t *testing.T) {
	client := newTestClient(t, http.StatusOK, `{}`, nil)
	_, err := client.Regencies(context.Background(), " ")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpstreamFailures(t *testing.T) {
	client := newTestClient(t, http.StatusBadGateway, "upstream down", nil)
	if _, err := client.Provinces(context.Background()); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	client = newTestClient(t, http.StatusNotFound, "", nil)
	if _, err := client.Villages(context.Background(), "99"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	client = newTestClient(t, http.StatusOK, "{broken", nil)
	if _, err := client.Provinces(context.Background()); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected decode failure as dependency error, got %v", err)
	}
}
