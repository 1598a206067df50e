package proxy

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/MrEthical07/goOnboard/internal/flows"
	"github.com/MrEthical07/goOnboard/internal/httpjson"
)

// Vendor is the body of a vendor-creation request.
type Vendor struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	BusinessName string `json:"business_name"`
	EIN          string `json:"ein,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// CreatedVendor is the platform's acknowledgement.
type CreatedVendor struct {
	ID     string `json:"vendor_id"`
	Status string `json:"status"`
}

// VendorClient creates vendors on the onboarding platform.
type VendorClient struct {
	up upstream
}

func NewVendorClient(cfg Config) (*VendorClient, error) {
	up, err := newUpstream("vendor", cfg)
	if err != nil {
		return nil, err
	}
	return &VendorClient{up: up}, nil
}

// CreateVendor validates v and posts it. An EIN, when given, is normalized to
// nine digits first.
func (c *VendorClient) CreateVendor(ctx context.Context, v Vendor) (*CreatedVendor, error) {
	v.Name = strings.TrimSpace(v.Name)
	v.Email = strings.TrimSpace(v.Email)
	v.BusinessName = strings.TrimSpace(v.BusinessName)

	if v.Name == "" {
		return nil, &flows.FieldError{Field: "name", Message: "Name is required"}
	}
	if !flows.ValidEmail(v.Email) {
		return nil, &flows.FieldError{Field: "email", Message: "Please enter a valid email address"}
	}
	if v.BusinessName == "" {
		return nil, &flows.FieldError{Field: "businessName", Message: "Business name is required"}
	}
	if v.EIN != "" {
		ein, err := NormalizeEIN(v.EIN)
		if err != nil {
			return nil, err
		}
		v.EIN = ein
	}

	req, err := httpjson.NewJSONRequest(http.MethodPost, c.up.endpoint("/vendors"), v)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.up.apiKey)

	var out reply[CreatedVendor]
	if _, err := c.up.caller.Do(ctx, "create_vendor", req, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if !out.ok() || out.Data == nil {
		return nil, businessError("create_vendor", out.Message)
	}
	return out.Data, nil
}

func businessError(op, msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return fmt.Errorf("%w: %s rejected without a message", ErrRequestFailed, op)
	}
	return &flows.ServerError{Op: op, Message: msg}
}
