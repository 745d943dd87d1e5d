package deploy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

var (
	ErrMissingDeploymentName = errors.New("failed to deploy process, deployment name must be provided")
	ErrMissingFile           = errors.New("failed to deploy process, file name and path must be provided")
	ErrMissingURL            = errors.New("failed to deploy process, endpoint url must not be empty")
)

// Form field names
const (
	FieldDeploymentName = "deployment-name"
	FieldTenantID       = "tenant-id"
)

// Request describes a deployment
type Request struct {
	DeploymentName string        `json:"deploymentName"`
	TenantID       string        `json:"tenantId,omitempty"`
	File           types.FileRef `json:"file"`
}

// Validate checks the request fields
func (r Request) Validate() error {
	if r.DeploymentName == "" {
		return ErrMissingDeploymentName
	}
	if r.File.Name == "" || r.File.Path == "" {
		return ErrMissingFile
	}
	return nil
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code int
	Text string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Text)
}

// Callback receives the outcome of an asynchronous deployment
type Callback func(result interface{}, err error)

// Deployer uploads diagrams to deployment endpoints
type Deployer struct {
	client  *Client
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewDeployer creates a deployer using client
func NewDeployer(client *Client, logger *zap.Logger, metrics *monitoring.Metrics) *Deployer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deployer{client: client, logger: logger, metrics: metrics}
}

// Deploy uploads the file of req to url. The decoded JSON response is
// returned; a 2xx response without a JSON body yields its status text.
func (d *Deployer) Deploy(ctx context.Context, url string, req Request) (result interface{}, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if url == "" {
		return nil, ErrMissingURL
	}

	start := time.Now()
	defer func() {
		d.metrics.RecordDeploy(time.Since(start), err)
		if err != nil {
			d.logger.Warn("deployment failed",
				zap.String("name", req.DeploymentName),
				zap.String("url", url),
				zap.Error(err),
			)
			return
		}
		d.logger.Info("deployment succeeded",
			zap.String("name", req.DeploymentName),
			zap.String("url", url),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	if _, err := os.Stat(req.File.Path); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", req.File.Path, err)
	}

	r, err := d.client.Request(ctx)
	if err != nil {
		return nil, err
	}

	form := map[string]string{FieldDeploymentName: req.DeploymentName}
	if req.TenantID != "" {
		form[FieldTenantID] = req.TenantID
	}
	r.SetFormData(form).SetFile(req.File.Name, req.File.Path)

	var resp *resty.Response
	err = d.client.Breaker.Execute(func() error {
		var postErr error
		resp, postErr = r.Post(url)
		if postErr != nil {
			return postErr
		}
		// Only server side failures count against the endpoint
		if resp.StatusCode() >= http.StatusInternalServerError {
			return statusError(resp)
		}
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, fmt.Errorf("deployment endpoint unavailable: %w", err)
	}
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, statusError(resp)
	}

	var body interface{}
	if err := sonic.Unmarshal(resp.Body(), &body); err != nil {
		return statusText(resp), nil
	}
	return body, nil
}

// DeployAsync runs Deploy in the background and reports to cb
func (d *Deployer) DeployAsync(ctx context.Context, url string, req Request, cb Callback) {
	if cb == nil {
		cb = func(interface{}, error) {}
	}
	go func() {
		cb(d.Deploy(ctx, url, req))
	}()
}

func statusError(resp *resty.Response) *StatusError {
	return &StatusError{Code: resp.StatusCode(), Text: statusText(resp)}
}

// statusText returns the reason phrase of the response status line
func statusText(resp *resty.Response) string {
	code := resp.StatusCode()
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status(), strconv.Itoa(code)))
	if text == "" {
		text = http.StatusText(code)
	}
	return text
}
