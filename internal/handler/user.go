package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/iliyamo/court-booking/internal/repository"
    "github.com/labstack/echo/v4"
)

// UserHandler exposes the display-name directory: a full id -> name
// listing used to render rosters, and self-registration of the
// current user's display name.
type UserHandler struct {
    Users *repository.UserRepo
}

func NewUserHandler(users *repository.UserRepo) *UserHandler {
    if users == nil {
        panic("nil repository passed to NewUserHandler")
    }
    return &UserHandler{Users: users}
}

// ListNames handles GET /v1/users.  It returns the full directory as
// a map keyed by user ID; entries without a registered name carry
// the email fallback.
func (h *UserHandler) ListNames(c echo.Context) error {
    names, err := h.Users.ListNames(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load users"})
    }
    // JSON object keys must be strings.
    out := make(map[string]string, len(names))
    for id, name := range names {
        out[strconv.FormatUint(id, 10)] = name
    }
    return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// SetName handles PUT /v1/me/name.  First-time visitors register a
// display name here; an empty or whitespace name is rejected before
// any write.
func (h *UserHandler) SetName(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        Name string `json:"name"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    name := strings.TrimSpace(body.Name)
    if name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "please enter your name"})
    }
    if err := h.Users.SetName(c.Request().Context(), userID, name); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save name"})
    }
    return c.JSON(http.StatusOK, echo.Map{"name": name})
}
