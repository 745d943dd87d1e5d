package http

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/domain/editor"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/domain/registry"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/providers/deploy"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/utils"
)

// Session is the part of the session controller served over HTTP
type Session interface {
	Phase() session.Phase
	Started() bool
	Dispatch(ctx context.Context, action types.Action)
	HandleContextMenu(ctx context.Context, menuType string, options map[string]interface{})
}

// Workspace reads the persisted workspace
type Workspace interface {
	Restore(ctx context.Context, defaults types.WorkspaceConfig) (types.WorkspaceConfig, error)
}

// Editor exposes the open tabs
type Editor interface {
	Tabs() []*types.Tab
	ActiveTab() (*types.Tab, bool)
	MarkDirty(tabID string) error
}

// Catalog lists document-type providers
type Catalog interface {
	List() []*registry.Provider
}

// Deployer uploads diagrams
type Deployer interface {
	Deploy(ctx context.Context, url string, req deploy.Request) (interface{}, error)
	DeployAsync(ctx context.Context, url string, req deploy.Request, cb deploy.Callback)
}

// Handlers holds the API dependencies
type Handlers struct {
	session   Session
	workspace Workspace
	editor    Editor
	catalog   Catalog
	deployer  Deployer
	logger    *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(sess Session, workspace Workspace, ed Editor, catalog Catalog, deployer Deployer, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		session:   sess,
		workspace: workspace,
		editor:    ed,
		catalog:   catalog,
		deployer:  deployer,
		logger:    logger,
	}
}

// Register mounts the API routes on router
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/health", h.Health)

	api := router.Group("/api")
	api.GET("/workspace", h.GetWorkspace)
	api.GET("/tabs", h.ListTabs)
	api.POST("/tabs/:id/dirty", h.MarkDirty)
	api.GET("/providers", h.ListProviders)
	api.POST("/actions", h.DispatchAction)
	api.POST("/context-menu", h.ShowContextMenu)
	api.POST("/deploy", h.Deploy)
}

// Health reports the session phase
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"phase":   h.session.Phase().String(),
		"started": h.session.Started(),
	})
}

// GetWorkspace returns the persisted workspace, or the empty workspace when
// none was saved yet
func (h *Handlers) GetWorkspace(c *gin.Context) {
	cfg, err := h.workspace.Restore(c.Request.Context(), types.DefaultWorkspaceConfig())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspace": cfg})
}

// ListTabs lists the open tabs
func (h *Handlers) ListTabs(c *gin.Context) {
	resp := gin.H{"tabs": h.editor.Tabs()}
	if tab, ok := h.editor.ActiveTab(); ok {
		resp["activeTab"] = tab.ID
	}
	c.JSON(http.StatusOK, resp)
}

// MarkDirty flags a tab as having unsaved edits, which makes a later quit
// ask before closing it
func (h *Handlers) MarkDirty(c *gin.Context) {
	id := c.Param("id")
	if err := h.editor.MarkDirty(id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, editor.ErrTabNotFound) {
			status = http.StatusNotFound
		}
		h.fail(c, status, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tabId": id})
}

// ListProviders lists the registered document types
func (h *Handlers) ListProviders(c *gin.Context) {
	providers := h.catalog.List()
	c.JSON(http.StatusOK, gin.H{
		"providers": providers,
		"count":     len(providers),
	})
}

// DispatchAction routes an action through the session controller. Failures
// surface through the logs and the host, so the request is only accepted.
func (h *Handlers) DispatchAction(c *gin.Context) {
	var action types.Action
	if err := c.ShouldBindJSON(&action); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	if err := utils.ValidateActionType(action.Type); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	if err := utils.ValidateOptions(action.Options); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	// Detached from the request so a slow quit handshake is not canceled
	// when the client hangs up.
	h.session.Dispatch(context.WithoutCancel(c.Request.Context()), action)

	c.JSON(http.StatusAccepted, gin.H{
		"accepted": true,
		"type":     action.Type,
	})
}

type contextMenuRequest struct {
	Type    string                 `json:"type" binding:"required"`
	Options map[string]interface{} `json:"options"`
}

// ShowContextMenu asks the host to open a context menu
func (h *Handlers) ShowContextMenu(c *gin.Context) {
	var req contextMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	if err := utils.ValidateActionType(req.Type); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	if err := utils.ValidateOptions(req.Options); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	h.session.HandleContextMenu(context.WithoutCancel(c.Request.Context()), req.Type, req.Options)

	c.JSON(http.StatusAccepted, gin.H{
		"accepted": true,
		"type":     req.Type,
	})
}

type deployRequest struct {
	URL string `json:"url" binding:"required"`
	deploy.Request
}

// Deploy uploads a diagram to a deployment endpoint. With async=true the
// upload runs in the background and its outcome is only logged.
func (h *Handlers) Deploy(c *gin.Context) {
	var req deployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	if c.Query("async") == "true" {
		h.deployAsync(c, req)
		return
	}

	result, err := h.deployer.Deploy(c.Request.Context(), req.URL, req.Request)
	if err != nil {
		status := http.StatusBadGateway
		if isDeployInputError(err) {
			status = http.StatusBadRequest
		}
		h.fail(c, status, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *Handlers) deployAsync(c *gin.Context, req deployRequest) {
	logger := h.logger.With(
		zap.String("url", req.URL),
		zap.String("deployment", req.DeploymentName),
		zap.String("request_id", middleware.RequestID(c)),
	)
	h.deployer.DeployAsync(context.WithoutCancel(c.Request.Context()), req.URL, req.Request, func(result interface{}, err error) {
		if err != nil {
			logger.Error("background deployment failed", zap.Error(err))
			return
		}
		logger.Info("background deployment finished", zap.Any("result", result))
	})

	c.JSON(http.StatusAccepted, gin.H{
		"accepted":   true,
		"deployment": req.DeploymentName,
	})
}

func isDeployInputError(err error) bool {
	return errors.Is(err, deploy.ErrMissingDeploymentName) ||
		errors.Is(err, deploy.ErrMissingFile) ||
		errors.Is(err, deploy.ErrMissingURL) ||
		errors.Is(err, os.ErrNotExist)
}

func (h *Handlers) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{
		"success":   false,
		"error":     err.Error(),
		"requestId": middleware.RequestID(c),
	})
}
