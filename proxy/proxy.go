package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goOnboard/backend"
	"github.com/MrEthical07/goOnboard/internal/httpjson"
	"go.uber.org/zap"
)

// ErrRequestFailed wraps transport failures, malformed replies and non-2xx
// replies without a message.
var ErrRequestFailed = errors.New("proxy request failed")

// Config configures one upstream service.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	Observer   httpjson.Observer
}

// reply is the {status, message, data} envelope both services use.
type reply[T any] struct {
	Status  backend.Truthy `json:"status"`
	Message string         `json:"message"`
	Data    *T             `json:"data"`
}

func (r reply[T]) ok() bool { return bool(r.Status) }

type upstream struct {
	base   *url.URL
	apiKey string
	caller httpjson.Caller
}

func newUpstream(name string, cfg Config) (upstream, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return upstream{}, fmt.Errorf("%s: base URL required", name)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return upstream{}, fmt.Errorf("%s: invalid base URL %q", name, cfg.BaseURL)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return upstream{}, fmt.Errorf("%s: API key required", name)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return upstream{
		base:   base,
		apiKey: cfg.APIKey,
		caller: httpjson.Caller{
			HTTP:     httpClient,
			Logger:   logger.Named(name),
			Observer: cfg.Observer,
		},
	}, nil
}

func (u upstream) endpoint(path string) string {
	e := *u.base
	e.Path = u.base.Path + path
	return e.String()
}
