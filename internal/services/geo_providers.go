package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

var errProviderPanic = errors.New("provider panicked")

// IPAPIProvider queries ipapi.co style endpoints.
type IPAPIProvider struct {
	client      *http.Client
	urlTemplate string
}

func NewIPAPIProvider(client *http.Client, urlTemplate string) *IPAPIProvider {
	return &IPAPIProvider{client: client, urlTemplate: urlTemplate}
}

func (p *IPAPIProvider) Name() string { return "ipapi.co" }

func (p *IPAPIProvider) Lookup(ctx context.Context, ip string) (Location, error) {
	var body struct {
		CountryName string `json:"country_name"`
		City        string `json:"city"`
		Error       bool   `json:"error"`
		Reason      string `json:"reason"`
	}
	if err := getJSON(ctx, p.client, fmt.Sprintf(p.urlTemplate, url.PathEscape(ip)), &body); err != nil {
		return Location{}, err
	}
	if body.Error {
		return Location{}, fmt.Errorf("lookup rejected: %s", body.Reason)
	}
	return Location{Country: body.CountryName, City: body.City}, nil
}

// IPAPIComProvider queries ip-api.com style endpoints. Answers count only
// when the body reports status "success".
type IPAPIComProvider struct {
	client      *http.Client
	urlTemplate string
}

func NewIPAPIComProvider(client *http.Client, urlTemplate string) *IPAPIComProvider {
	return &IPAPIComProvider{client: client, urlTemplate: urlTemplate}
}

func (p *IPAPIComProvider) Name() string { return "ip-api.com" }

func (p *IPAPIComProvider) Lookup(ctx context.Context, ip string) (Location, error) {
	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Country string `json:"country"`
		City    string `json:"city"`
	}
	if err := getJSON(ctx, p.client, fmt.Sprintf(p.urlTemplate, url.PathEscape(ip)), &body); err != nil {
		return Location{}, err
	}
	if body.Status != "success" {
		return Location{}, fmt.Errorf("lookup status %q: %s", body.Status, body.Message)
	}
	return Location{Country: body.Country, City: body.City}, nil
}

func getJSON(ctx context.Context, client *http.Client, target string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}
