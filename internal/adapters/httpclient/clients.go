// Package httpclient implements the synchronous cross-service lookups. Calls
// are plain request/response over the transport's default timeout: no retry,
// no circuit breaker. A 4xx from the remote is surfaced as
// *domain.UpstreamError so the caller can propagate status and message.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pagemarket/marketplace/internal/domain"
	"github.com/pagemarket/marketplace/internal/schema"
)

type BookClient struct {
	baseURL string
	client  *http.Client
}

func NewBookClient(baseURL string) *BookClient {
	return &BookClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
}

func (c *BookClient) GetBook(ctx context.Context, id int64) (schema.BookDto, error) {
	var dto schema.BookDto
	err := getJSON(ctx, c.client, fmt.Sprintf("%s/books/%d", c.baseURL, id), &dto)
	return dto, err
}

type SellerClient struct {
	baseURL string
	client  *http.Client
}

func NewSellerClient(baseURL string) *SellerClient {
	return &SellerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
}

func (c *SellerClient) GetSeller(ctx context.Context, username string) (schema.SellerDto, error) {
	var dto schema.SellerDto
	err := getJSON(ctx, c.client, fmt.Sprintf("%s/sellers/%s", c.baseURL, username), &dto)
	return dto, err
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
