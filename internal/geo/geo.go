// Package geo resolves postal codes and coordinates into address parts.
//
// The postal lookup speaks the India Post pincode API shape
// (GET {base}/pincode/{code}); reverse geocoding speaks the Nominatim
// shape (GET {base}/reverse?format=jsonv2&lat=..&lon=..).
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNetwork  = errors.New("geo: lookup service unreachable")
	ErrNotFound = errors.New("geo: no match for lookup")
)

const userAgent = "velora-cli/1.0"

// Place is the subset of an address a lookup can fill in.
type Place struct {
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
}

type Client struct {
	postalBaseURL  string
	geocodeBaseURL string
	http           *http.Client
}

func NewClient(postalBaseURL, geocodeBaseURL string, timeout time.Duration) *Client {
	return &Client{
		postalBaseURL:  strings.TrimRight(postalBaseURL, "/"),
		geocodeBaseURL: strings.TrimRight(geocodeBaseURL, "/"),
		http:           &http.Client{Timeout: timeout},
	}
}

type postOffice struct {
	Name     string `json:"Name"`
	District string `json:"District"`
	State    string `json:"State"`
	Country  string `json:"Country"`
	Pincode  string `json:"Pincode"`
}

type pincodeResult struct {
	Status     string       `json:"Status"`
	PostOffice []postOffice `json:"PostOffice"`
}

// LookupPostalCode returns the city, state and country for a postal code.
func (c *Client) LookupPostalCode(ctx context.Context, code string) (Place, error) {
	var results []pincodeResult
	if err := c.getJSON(ctx, c.postalBaseURL+"/pincode/"+url.PathEscape(code), &results); err != nil {
		return Place{}, err
	}

	if len(results) == 0 || !strings.EqualFold(results[0].Status, "Success") || len(results[0].PostOffice) == 0 {
		return Place{}, ErrNotFound
	}

	po := results[0].PostOffice[0]
	return Place{
		City:       po.District,
		State:      po.State,
		PostalCode: code,
		Country:    po.Country,
	}, nil
}

type reverseResult struct {
	Error   string `json:"error"`
	Address struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		Suburb      string `json:"suburb"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		County      string `json:"county"`
		State       string `json:"state"`
		Postcode    string `json:"postcode"`
		Country     string `json:"country"`
	} `json:"address"`
}

// ReverseGeocode turns coordinates into a street address and its locality.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var res reverseResult
	if err := c.getJSON(ctx, c.geocodeBaseURL+"/reverse?"+q.Encode(), &res); err != nil {
		return Place{}, err
	}
	if res.Error != "" {
		return Place{}, fmt.Errorf("%w: %s", ErrNotFound, res.Error)
	}

	a := res.Address
	return Place{
		Address:    joinNonEmpty(", ", joinNonEmpty(" ", a.HouseNumber, a.Road), a.Suburb),
		City:       firstNonEmpty(a.City, a.Town, a.Village, a.County),
		State:      a.State,
		PostalCode: a.Postcode,
		Country:    a.Country,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("geo: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("geo: failed to decode response: %w", err)
	}
	return nil
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
