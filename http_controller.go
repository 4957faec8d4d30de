package taskmate

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterAuthRoutes mounts the session endpoints on the given router,
// usually a group under the gateway's exempt prefix.
func RegisterAuthRoutes[T any](app router.Router[T], controller *AuthController) {
	app.Post("/register", controller.Register).SetName("auth.register")
	app.Post("/register-admin", controller.RegisterAdmin).SetName("auth.register-admin")
	app.Post("/authenticate", controller.AuthenticatePost).SetName("auth.authenticate")
	app.Post("/logout", controller.LogoutPost).SetName("auth.logout")
}

// AuthController exposes the session endpoints. These paths sit under the
// gateway's exempt prefix; every other route goes through token processing.
type AuthController struct {
	Auth   Authenticator
	Logger Logger
}

func NewAuthController(auth Authenticator) *AuthController {
	return &AuthController{
		Auth:   auth,
		Logger: defLogger{},
	}
}

// RegisterRequest payload
type RegisterRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Name,
			validation.Required,
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 0),
		),
	)
}

// AuthenticationRequest payload
type AuthenticationRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r AuthenticationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// AuthenticationResponse carries the minted bearer token
type AuthenticationResponse struct {
	Token string `json:"token"`
}

func (a *AuthController) Register(ctx router.Context) error {
	return a.register(ctx, RoleUser)
}

// RegisterAdmin requests the elevated privilege; the authority rejects it
// if an admin already exists.
func (a *AuthController) RegisterAdmin(ctx router.Context) error {
	return a.register(ctx, RoleAdmin)
}

func (a *AuthController) register(ctx router.Context, role Role) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.handleError(ctx, errors.Wrap(err, errors.CategoryBadInput, "could not parse registration payload"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	token, err := a.Auth.Register(ctx.Context(), payload.Name, payload.Email, payload.Password, role)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, AuthenticationResponse{Token: token})
}

func (a *AuthController) AuthenticatePost(ctx router.Context) error {
	payload := new(AuthenticationRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.handleError(ctx, errors.Wrap(err, errors.CategoryBadInput, "could not parse authentication payload"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	token, err := a.Auth.Authenticate(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, AuthenticationResponse{Token: token})
}

// LogoutPost revokes the caller's live sessions. The route sits under the
// exempt prefix, so we validate the presented token ourselves instead of
// relying on gateway context.
func (a *AuthController) LogoutPost(ctx router.Context) error {
	raw := bearerFromHeader(ctx.GetString(router.HeaderAuthorization, ""))
	if raw == "" {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	session, err := a.Auth.SessionFromToken(raw)
	if err != nil {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	if err := a.Auth.Logout(ctx.Context(), session.GetSubject()); err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "logged out",
	})
}

func (a *AuthController) handleError(ctx router.Context, err error) error {
	return writeError(ctx, a.Logger, err)
}

// RegisterTaskRoutes mounts the task endpoints. The guards come from the
// gateway package; passing them in keeps the import direction one way.
func RegisterTaskRoutes[T any](app router.Router[T], controller *TaskController, requireIdentity, requireAdmin router.MiddlewareFunc) {
	app.Post("/", controller.Create, requireIdentity).SetName("tasks.create")
	app.Post("/assign", controller.AdminCreate, requireAdmin).SetName("tasks.admin-create")
	app.Get("/", controller.List, requireIdentity).SetName("tasks.list")
	app.Get("/all", controller.ListAll, requireAdmin).SetName("tasks.list-all")
	app.Put("/:id/status", controller.UpdateStatus, requireIdentity).SetName("tasks.update-status")
}

// TaskController exposes the task CRUD surface. Identity comes from the
// gateway's request context; the guards mounted on these routes reject
// unauthenticated callers before the handlers run.
type TaskController struct {
	Manager *TaskManager
	Logger  Logger
}

func NewTaskController(manager *TaskManager) *TaskController {
	return &TaskController{
		Manager: manager,
		Logger:  defLogger{},
	}
}

// TaskRequest payload
type TaskRequest struct {
	Title       string     `form:"title" json:"title"`
	Description string     `form:"description" json:"description"`
	Deadline    *time.Time `form:"deadline" json:"deadline"`
}

// Validate will run validation rules
func (r TaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Title,
			validation.Required,
		),
	)
}

// AdminTaskRequest payload; the assignee is named by id or by email
type AdminTaskRequest struct {
	Title         string     `form:"title" json:"title"`
	Description   string     `form:"description" json:"description"`
	Deadline      *time.Time `form:"deadline" json:"deadline"`
	AssigneeID    string     `form:"assignee_id" json:"assignee_id"`
	AssigneeEmail string     `form:"assignee_email" json:"assignee_email"`
}

// Validate will run validation rules
func (r AdminTaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Title,
			validation.Required,
		),
		validation.Field(
			&r.AssigneeEmail,
			is.Email,
		),
	)
}

// TaskStatusRequest payload
type TaskStatusRequest struct {
	Status string `form:"status" json:"status"`
}

func (t *TaskController) Create(ctx router.Context) error {
	user, ok := FromContext(ctx.Context())
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	payload := new(TaskRequest)
	if err := ctx.Bind(payload); err != nil {
		return writeError(ctx, t.Logger, errors.Wrap(err, errors.CategoryBadInput, "could not parse task payload"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	task := &Task{
		Title:       payload.Title,
		Description: payload.Description,
		Deadline:    payload.Deadline,
	}

	created, err := t.Manager.Create(ctx.Context(), task, user.ID)
	if err != nil {
		return writeError(ctx, t.Logger, err)
	}

	return ctx.JSON(router.StatusCreated, created)
}

// AdminCreate creates a task on behalf of a chosen user; mounted behind the
// admin guard.
func (t *TaskController) AdminCreate(ctx router.Context) error {
	payload := new(AdminTaskRequest)
	if err := ctx.Bind(payload); err != nil {
		return writeError(ctx, t.Logger, errors.Wrap(err, errors.CategoryBadInput, "could not parse task payload"))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	if payload.AssigneeID == "" && payload.AssigneeEmail == "" {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "assignee_id or assignee_email is required",
		})
	}

	task := &Task{
		Title:       payload.Title,
		Description: payload.Description,
		Deadline:    payload.Deadline,
	}

	created, err := t.Manager.CreateForAssignee(ctx.Context(), task, payload.AssigneeID, payload.AssigneeEmail)
	if err != nil {
		return writeError(ctx, t.Logger, err)
	}

	return ctx.JSON(router.StatusCreated, created)
}

func (t *TaskController) List(ctx router.Context) error {
	user, ok := FromContext(ctx.Context())
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	tasks, err := t.Manager.ListForUser(ctx.Context(), user.ID)
	if err != nil {
		return writeError(ctx, t.Logger, err)
	}

	return ctx.JSON(router.StatusOK, tasks)
}

// ListAll returns every task; mounted behind the admin guard.
func (t *TaskController) ListAll(ctx router.Context) error {
	tasks, err := t.Manager.ListAll(ctx.Context())
	if err != nil {
		return writeError(ctx, t.Logger, err)
	}

	return ctx.JSON(router.StatusOK, tasks)
}

func (t *TaskController) UpdateStatus(ctx router.Context) error {
	taskID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "invalid task id",
		})
	}

	payload := new(TaskStatusRequest)
	if err := ctx.Bind(payload); err != nil {
		return writeError(ctx, t.Logger, errors.Wrap(err, errors.CategoryBadInput, "could not parse status payload"))
	}

	updated, err := t.Manager.UpdateStatus(ctx.Context(), taskID, payload.Status)
	if err != nil {
		return writeError(ctx, t.Logger, err)
	}

	return ctx.JSON(router.StatusOK, updated)
}

// RegisterProfileRoutes mounts the profile endpoints behind the identity guard.
func RegisterProfileRoutes[T any](app router.Router[T], controller *ProfileController, requireIdentity router.MiddlewareFunc) {
	app.Get("/", controller.Show, requireIdentity).SetName("profile.show")
	app.Put("/", controller.Update, requireIdentity).SetName("profile.update")
}

// RegisterUserRoutes mounts the user directory listing behind the admin guard.
func RegisterUserRoutes[T any](app router.Router[T], controller *ProfileController, requireAdmin router.MiddlewareFunc) {
	app.Get("/", controller.ListUsers, requireAdmin).SetName("users.list")
}

// ProfileController exposes the profile read/update surface
type ProfileController struct {
	Manager *UserManager
	Logger  Logger
}

func NewProfileController(manager *UserManager) *ProfileController {
	return &ProfileController{
		Manager: manager,
		Logger:  defLogger{},
	}
}

func (p *ProfileController) Show(ctx router.Context) error {
	identity, ok := CurrentIdentity(ctx.Context())
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	user, err := p.Manager.GetProfile(ctx.Context(), identity.Email())
	if err != nil {
		return writeError(ctx, p.Logger, err)
	}

	return ctx.JSON(router.StatusOK, user)
}

// ListUsers returns every identity in the directory; mounted behind the
// admin guard.
func (p *ProfileController) ListUsers(ctx router.Context) error {
	users, err := p.Manager.ListAll(ctx.Context())
	if err != nil {
		return writeError(ctx, p.Logger, err)
	}

	return ctx.JSON(router.StatusOK, users)
}

func (p *ProfileController) Update(ctx router.Context) error {
	identity, ok := CurrentIdentity(ctx.Context())
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	payload := new(ProfileUpdate)
	if err := ctx.Bind(payload); err != nil {
		return writeError(ctx, p.Logger, errors.Wrap(err, errors.CategoryBadInput, "could not parse profile payload"))
	}

	updated, err := p.Manager.UpdateProfile(ctx.Context(), identity.Email(), *payload)
	if err != nil {
		return writeError(ctx, p.Logger, err)
	}

	return ctx.JSON(router.StatusOK, updated)
}

// writeError maps rich errors to JSON responses, logging metadata for the
// operator rather than leaking it to the client.
func writeError(ctx router.Context, logger Logger, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "an unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	logger.Info(
		"request error",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status := richErr.Code
	if status == 0 {
		status = router.StatusInternalServerError
	}

	return ctx.JSON(status, map[string]string{
		"error": richErr.Message,
	})
}

// bearerFromHeader pulls the raw token out of an Authorization header. The
// scheme match is case-insensitive, same as the gateway's extractor.
func bearerFromHeader(header string) string {
	const scheme = "Bearer"
	if len(header) > len(scheme)+1 && strings.EqualFold(header[:len(scheme)], scheme) {
		return strings.TrimSpace(header[len(scheme):])
	}
	return ""
}
