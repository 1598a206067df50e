package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrEthical07/goOnboard/internal/flows"
)

const einMessage = "EIN must be 9 digits (XX-XXXXXXX)"

// EINRecord is the business-identity service's view of an EIN.
type EINRecord struct {
	EIN       string `json:"ein"`
	LegalName string `json:"legal_name"`
	State     string `json:"state"`
	Status    string `json:"status"`
}

// NormalizeEIN accepts "XX-XXXXXXX" or nine bare digits and returns the digits.
func NormalizeEIN(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) == 10 && s[2] == '-' {
		s = s[:2] + s[3:]
	}
	if len(s) != 9 {
		return "", &flows.FieldError{Field: "ein", Message: einMessage}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", &flows.FieldError{Field: "ein", Message: einMessage}
		}
	}
	return s, nil
}

// FormatEIN renders nine digits as XX-XXXXXXX.
func FormatEIN(digits string) string {
	if len(digits) != 9 {
		return digits
	}
	return digits[:2] + "-" + digits[2:]
}

// EINClient looks EINs up on the business-identity service.
type EINClient struct {
	up upstream
}

func NewEINClient(cfg Config) (*EINClient, error) {
	up, err := newUpstream("ein", cfg)
	if err != nil {
		return nil, err
	}
	return &EINClient{up: up}, nil
}

// Verify normalizes ein and looks it up. A malformed EIN is a field error and
// no call is made; "not found" comes back as the service's own message.
func (c *EINClient) Verify(ctx context.Context, ein string) (*EINRecord, error) {
	digits, err := NormalizeEIN(ein)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodGet, c.up.endpoint("/ein/"+url.PathEscape(digits)), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.up.apiKey)

	var out reply[EINRecord]
	if _, err := c.up.caller.Do(ctx, "verify_ein", req, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if !out.ok() || out.Data == nil {
		return nil, businessError("verify_ein", out.Message)
	}
	rec := *out.Data
	if rec.EIN == "" {
		rec.EIN = digits
	}
	rec.EIN = FormatEIN(strings.ReplaceAll(rec.EIN, "-", ""))
	return &rec, nil
}
