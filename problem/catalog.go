// Package problem looks up the test cases of problems from the problem
// catalog service
package problem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeg/judge/types"
)

var (
	// ErrNotFound is returned when the catalog does not know the problem
	ErrNotFound = errors.New("problem not found")

	// ErrUnavailable is returned when the catalog cannot be reached or
	// answered unexpectedly
	ErrUnavailable = errors.New("cannot connect to problem catalog")
)

// Catalog returns the ordered test cases of a problem
type Catalog interface {
	Get(ctx context.Context, id string) ([]types.TestCase, error)
}

// Samples returns the sample test cases in order
func Samples(cases []types.TestCase) []types.TestCase {
	var r []types.TestCase
	for _, c := range cases {
		if c.IsSample {
			r = append(r, c)
		}
	}
	return r
}

var _ Catalog = &HTTPCatalog{}

// HTTPCatalog queries the backend at <base>/problems/id/<id>
type HTTPCatalog struct {
	base   string
	client *http.Client
}

// NewHTTPCatalog creates a catalog client for the backend base URL
func NewHTTPCatalog(base string, timeout time.Duration) *HTTPCatalog {
	return &HTTPCatalog{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

type problemResponse struct {
	Data struct {
		TestCases []types.TestCase `json:"testCases"`
	} `json:"data"`
	Message string `json:"message"`
}

// Get implements Catalog
func (c *HTTPCatalog) Get(ctx context.Context, id string) ([]types.TestCase, error) {
	if c.base == "" {
		return nil, fmt.Errorf("%w: no backend configured", ErrUnavailable)
	}
	u := c.base + "/problems/id/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var r problemResponse
	jsonErr := json.Unmarshal(body, &r)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		if r.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, r.Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d %s", ErrUnavailable, resp.StatusCode, r.Message)
	case jsonErr != nil:
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, jsonErr)
	}
	return r.Data.TestCases, nil
}
