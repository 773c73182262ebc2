package mgmt

import (
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/tetherlab/workbench/internal/bundle"
	werrors "github.com/tetherlab/workbench/internal/errors"
	"github.com/tetherlab/workbench/internal/health"
	"github.com/tetherlab/workbench/internal/workspace"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	ws        *workspace.Manager
	checker   *health.Checker
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ws *workspace.Manager, checker *health.Checker, logger zerolog.Logger) *Handlers {
	return &Handlers{
		ws:        ws,
		checker:   checker,
		logger:    logger.With().Str("component", "handlers").Logger(),
		startTime: time.Now(),
	}
}

// LoadWorkspace handles POST /api/v1/workspace/load.
func (h *Handlers) LoadWorkspace(c *fiber.Ctx) error {
	var req LoadRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	if req.Locator == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_locator", "Bad Request",
			"Bundle locator is required")
	}

	if err := h.ws.Load(c.Context(), req.Locator); err != nil {
		return h.workspaceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(h.workspaceSnapshot())
}

// GetWorkspace handles GET /api/v1/workspace.
func (h *Handlers) GetWorkspace(c *fiber.Ctx) error {
	return c.JSON(h.workspaceSnapshot())
}

func (h *Handlers) workspaceSnapshot() WorkspaceResponse {
	b := h.ws.Get()
	if b == nil {
		return WorkspaceResponse{Loaded: false}
	}
	resp := WorkspaceResponse{Loaded: true, Files: b.Names()}
	for _, f := range b.EnvironmentFiles {
		resp.EnvironmentFiles = append(resp.EnvironmentFiles, f.Name)
	}
	return resp
}

// ListFiles handles GET /api/v1/workspace/files?kind=<name>.
func (h *Handlers) ListFiles(c *fiber.Ctx) error {
	var kinds []bundle.Kind
	if q := c.Query("kind"); q != "" {
		k, err := bundle.ParseKind(q)
		if err != nil {
			return problemResponse(c, fiber.StatusBadRequest,
				"invalid_kind", "Bad Request",
				"Unknown file kind: "+q)
		}
		kinds = append(kinds, k)
	}

	names, err := h.ws.Files(kinds...)
	if err != nil {
		return h.workspaceError(c, err)
	}
	return c.JSON(FileListResponse{Files: names})
}

// GetFile handles GET /api/v1/files/:name. Returns the current buffer
// content, which reflects unsaved edits.
func (h *Handlers) GetFile(c *fiber.Ctx) error {
	name := fileParam(c)

	f, err := h.ws.File(name)
	if err != nil {
		return h.workspaceError(c, err)
	}
	if f == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"unknown_file", "Not Found",
			"No such file: "+name)
	}

	mdl, err := h.ws.FileModel(name)
	if err != nil {
		return h.workspaceError(c, err)
	}
	dirty, err := h.ws.FileDirty(name)
	if err != nil {
		return h.workspaceError(c, err)
	}

	return c.JSON(FileResponse{
		Name:  f.Name,
		Kind:  f.Kind.String(),
		Text:  mdl.Value(),
		Dirty: dirty,
	})
}

// PutFileContent handles PUT /api/v1/files/:name/content. It replaces the
// buffer content and marks the file dirty; the loaded bundle is untouched.
func (h *Handlers) PutFileContent(c *fiber.Ctx) error {
	name := fileParam(c)

	var req UpdateContentRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	mdl, err := h.ws.FileModel(name)
	if err != nil {
		return h.workspaceError(c, err)
	}
	mdl.SetValue(req.Text)

	if err := h.ws.SetFileDirty(name, false); err != nil {
		return h.workspaceError(c, err)
	}

	dirty, _ := h.ws.FileDirty(name)
	f, _ := h.ws.File(name)

	return c.JSON(FileResponse{
		Name:  name,
		Kind:  f.Kind.String(),
		Text:  mdl.Value(),
		Dirty: dirty,
	})
}

// ClearDirty handles DELETE /api/v1/files/:name/dirty.
func (h *Handlers) ClearDirty(c *fiber.Ctx) error {
	name := fileParam(c)

	if err := h.ws.SetFileDirty(name, true); err != nil {
		return h.workspaceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Emit handles POST /api/v1/workspace/emit.
func (h *Handlers) Emit(c *fiber.Ctx) error {
	files, err := h.ws.Emit(c.Context())
	if err != nil {
		return h.workspaceError(c, err)
	}

	resp := EmitResponse{Files: make([]EmitFileDTO, 0, len(files))}
	for _, f := range files {
		resp.Files = append(resp.Files, EmitFileDTO{Name: f.Name, Text: f.Text})
	}
	return c.JSON(resp)
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	if !h.checker.IsReady(c.Context()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not_ready",
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

// workspaceError maps workspace errors to problem responses.
func (h *Handlers) workspaceError(c *fiber.Ctx, err error) error {
	var terr *werrors.TransportError

	switch {
	case errors.Is(err, werrors.ErrNotLoaded):
		return problemResponse(c, fiber.StatusConflict,
			"not_loaded", "Conflict",
			"No workspace is loaded")
	case errors.Is(err, werrors.ErrAlreadyLoaded):
		return problemResponse(c, fiber.StatusConflict,
			"already_loaded", "Conflict",
			"A workspace is already loaded")
	case errors.Is(err, werrors.ErrUnknownFile):
		return problemResponse(c, fiber.StatusNotFound,
			"unknown_file", "Not Found",
			err.Error())
	case errors.Is(err, werrors.ErrMalformedBundle):
		return problemResponse(c, fiber.StatusUnprocessableEntity,
			"malformed_bundle", "Unprocessable Entity",
			err.Error())
	case errors.As(err, &terr):
		return problemResponse(c, fiber.StatusBadGateway,
			"upstream_error", "Bad Gateway",
			err.Error())
	default:
		h.logger.Error().Err(err).Msg("workspace operation failed")
		return problemResponse(c, fiber.StatusInternalServerError,
			"internal_error", "Internal Server Error",
			err.Error())
	}
}

// fileParam decodes the file name from the wildcard path segment. Names may
// contain slashes (e.g. "src/index.ts"), so routes use a plus parameter.
func fileParam(c *fiber.Ctx) string {
	raw := c.Params("+")
	name, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return name
}
