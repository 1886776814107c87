package middleware

// identity.go defines helper functions shared across middleware files.
// Currently it provides a userID extraction function that reads the
// user_id value the JWTAuth middleware stored in the Echo context.
// JWT numeric claims arrive as float64, so several representations
// are accepted. When no user is authenticated, "anon" is returned.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// userID renders the authenticated user's identifier as a string for
// use in Redis keys. It returns "anon" when no user is authenticated
// or the context value has an unexpected type.
func userID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case string:
        if v != "" {
            return v
        }
    case float64:
        return strconv.FormatUint(uint64(v), 10)
    case uint64:
        return strconv.FormatUint(v, 10)
    case int:
        return strconv.Itoa(v)
    case int64:
        return strconv.FormatInt(v, 10)
    }
    return "anon"
}
