package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// StaffDTO represents staff data fetched from the staff service
type StaffDTO struct {
	StaffID string `json:"staffId"`
	Name    string `json:"name"`
	Active  bool   `json:"active"`
}

// StaffServiceClient handles communication with the staff service.
// Implements domain.StaffProvider.
type StaffServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewStaffServiceClient creates a new StaffServiceClient
func NewStaffServiceClient(baseURL string) *StaffServiceClient {
	return &StaffServiceClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Exists reports whether the staff reference resolves to an active member
func (c *StaffServiceClient) Exists(ctx context.Context, staffRef string) (bool, error) {
	staff, err := c.GetStaff(ctx, staffRef)
	if err != nil {
		return false, err
	}
	return staff != nil && staff.Active, nil
}

// GetStaff fetches a staff member by reference
func (c *StaffServiceClient) GetStaff(ctx context.Context, staffRef string) (*StaffDTO, error) {
	url := fmt.Sprintf("%s/api/v1/staff/%s", c.baseURL, staffRef)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staff: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var staff StaffDTO
		if err := json.NewDecoder(resp.Body).Decode(&staff); err != nil {
			return nil, fmt.Errorf("failed to decode staff response: %w", err)
		}
		return &staff, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("staff service returned status %d", resp.StatusCode)
	}
}
