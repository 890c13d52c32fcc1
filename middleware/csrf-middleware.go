package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/rs/zerolog/log"
)

const (
	CSRFFormField  = "_csrf"
	CSRFCookieName = "csrf_"
	csrfContextKey = "csrf"
)

// AntiForgery protects the HTML form posts. The token is read from the
// _csrf form field and must match the csrf_ cookie.
func AntiForgery(cookieSecure bool) fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:" + CSRFFormField,
		CookieName:     CSRFCookieName,
		CookieSameSite: "Lax",
		CookieSecure:   cookieSecure,
		CookieHTTPOnly: true,
		Expiration:     time.Hour,
		ContextKey:     csrfContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Warn().Err(err).Str("path", c.Path()).Msg("anti-forgery check failed")
			return fiber.ErrForbidden
		},
	})
}

// CSRFToken returns the token set by AntiForgery for the current request.
func CSRFToken(c *fiber.Ctx) string {
	token, _ := c.Locals(csrfContextKey).(string)
	return token
}
