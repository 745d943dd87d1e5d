package deploy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/resilience"
)

const userAgent = "deskshell-deploy/1.0"

// Client wraps resty with rate limiting and a circuit breaker
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	Mu      sync.RWMutex
}

// NewClient creates a client from the deploy configuration
func NewClient(cfg config.DeployConfig) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryCount
	retryClient.RetryWaitMin = time.Duration(cfg.RetryWait)
	retryClient.RetryWaitMax = time.Duration(cfg.RetryMaxWait)
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetTimeout(time.Duration(cfg.Timeout)).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(time.Duration(cfg.RetryWait)).
		SetRetryMaxWaitTime(time.Duration(cfg.RetryMaxWait)).
		SetHeader("User-Agent", userAgent)
	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	c := &Client{
		Resty:   restyClient,
		Breaker: resilience.New("deploy", resilience.Settings{}),
	}
	c.SetRateLimit(cfg.RateLimit)
	return c
}

// SetRateLimit limits requests per second; zero or less means unlimited
func (c *Client) SetRateLimit(rps float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Request creates a request once the breaker and the rate limiter admit it
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if c.Breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}

	c.Mu.RLock()
	limiter := c.Limiter
	c.Mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	return c.Resty.R().SetContext(ctx), nil
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.Breaker.State()
}
