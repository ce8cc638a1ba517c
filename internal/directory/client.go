package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

// Client looks up equipment and drivers in the equipment directory API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ timesheet.Directory = (*Client)(nil)

// NewClient builds a directory client. A non-empty token is sent as a bearer token.
func NewClient(ctx context.Context, baseURL, token string, timeout time.Duration) *Client {
	httpClient := &http.Client{}
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
	}

	httpClient.Timeout = timeout

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// id accepts both numeric and string identifiers.
type id string

func (i *id) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}

		*i = id(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}

	*i = id(n.String())

	return nil
}

type equipmentResponse struct {
	ID              id      `json:"equipment_id"`
	Name            string  `json:"equipment_name"`
	PlateSerialNo   string  `json:"plate_serial_no"`
	CompanySupplier *string `json:"company_supplier"`
	ChassisNo       *string `json:"chassis_no"`
}

type driverResponse struct {
	ID          id     `json:"driver_id"`
	Name        string `json:"driver_name"`
	EqamaNumber string `json:"eqama_number"`
	PhoneNumber string `json:"phone_number"`
}

func (c *Client) Equipment(ctx context.Context, equipmentID string) (*timesheet.Equipment, error) {
	var resp equipmentResponse
	if err := c.get(ctx, "/equipment/"+url.PathEscape(equipmentID), &resp); err != nil {
		return nil, fmt.Errorf("equipment %s: %w", equipmentID, err)
	}

	return &timesheet.Equipment{
		ID:              string(resp.ID),
		Name:            resp.Name,
		PlateSerialNo:   resp.PlateSerialNo,
		CompanySupplier: resp.CompanySupplier,
		ChassisNo:       resp.ChassisNo,
	}, nil
}

func (c *Client) Driver(ctx context.Context, driverID string) (*timesheet.Driver, error) {
	var resp driverResponse
	if err := c.get(ctx, "/drivers/"+url.PathEscape(driverID), &resp); err != nil {
		return nil, fmt.Errorf("driver %s: %w", driverID, err)
	}

	return &timesheet.Driver{
		ID:          string(resp.ID),
		Name:        resp.Name,
		EqamaNumber: resp.EqamaNumber,
		PhoneNumber: resp.PhoneNumber,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return timesheet.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("directory returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding directory response: %w", err)
	}

	return nil
}
