package middleware

import "github.com/labstack/echo/v4"

// Username returns the authenticated username, or "" for anonymous
// requests.
func Username(c echo.Context) string {
	s, _ := c.Get(CtxUsername).(string)
	return s
}

// rateSubject identifies the caller in rate-limit keys.
func rateSubject(c echo.Context) string {
	if u := Username(c); u != "" {
		return u
	}
	return "guest"
}
