package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docpile-ai/docpile/app/core"
	v1 "github.com/docpile-ai/docpile/app/logic/v1"
	"github.com/docpile-ai/docpile/app/response"
	"github.com/docpile-ai/docpile/pkg/errors"
	"github.com/docpile-ai/docpile/pkg/i18n"
	"github.com/docpile-ai/docpile/pkg/security"
	"github.com/docpile-ai/docpile/pkg/types"
)

const ACCESS_TOKEN_HEADER_KEY = "X-Access-Token"

func I18n() gin.HandlerFunc {
	var allowList []string
	for k := range i18n.ALLOW_LANG {
		allowList = append(allowList, k)
	}
	l := i18n.NewLocalizer(allowList...)

	return response.ProvideResponseLocalizer(l)
}

func Cors(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Accept-Language, "+ACCESS_TOKEN_HEADER_KEY)
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

// AcceptLanguage resolves the response language from the request header.
func AcceptLanguage() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		lang := ctx.Request.Header.Get("Accept-Language")
		switch {
		case strings.Contains(lang, "zh"):
			ctx.Set(v1.LANGUAGE_KEY, types.LANGUAGE_CN_KEY)
		case strings.Contains(lang, "vi"):
			ctx.Set(v1.LANGUAGE_KEY, types.LANGUAGE_VI_KEY)
		default:
			ctx.Set(v1.LANGUAGE_KEY, types.LANGUAGE_EN_KEY)
		}
	}
}

// Authorization resolves the access token header into token claims.
func Authorization(core *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenValue := c.GetHeader(ACCESS_TOKEN_HEADER_KEY)
		if tokenValue == "" {
			response.APIError(c, errors.New("middleware.Authorization.nil", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized))
			return
		}

		token, err := core.Store().AccessTokenStore().GetAccessToken(c, tokenValue)
		if err != nil {
			response.APIError(c, errors.New("middleware.Authorization.AccessTokenStore.GetAccessToken", i18n.ERROR_INTERNAL, err))
			return
		}
		if token == nil {
			response.APIError(c, errors.New("middleware.Authorization.token.nil", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized))
			return
		}
		if token.ExpiresAt > 0 && token.ExpiresAt < time.Now().Unix() {
			response.APIError(c, errors.New("middleware.Authorization.token.expired", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized))
			return
		}

		c.Set(v1.TOKEN_CONTEXT_KEY, security.ClaimsFromAccessToken(*token))
	}
}

// VerifySpace gates the route on the token actually carrying the space from
// the path.
func VerifySpace(core *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		spaceID, _ := c.Params.Get("spaceid")
		claims, ok := v1.InjectTokenClaim(c)
		if !ok || spaceID == "" || !claims.HasSpace(spaceID) {
			response.APIError(c, errors.New("middleware.VerifySpace", i18n.ERROR_WORKSPACE_NOT_PERMITTED, nil).Code(http.StatusForbidden))
			return
		}
		c.Set(v1.SPACEID_CONTEXT_KEY, spaceID)
	}
}

// Metrics records per-route response time and error counts.
func Metrics(appCore *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := appCore.Metrics().ApiResponseTimer(c.FullPath())
		c.Next()
		timer.ObserveDuration()

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			appCore.Metrics().ApiErrorInc(c.Request.Method, c.FullPath(), status)
		}
	}
}

// UseLimit is a fixed-window rate limit backed by redis. Without redis it is
// a no-op, a single instance is unlikely to need it.
func UseLimit(appCore *core.Core, key string, genKey func(*gin.Context) string, limitPerMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		rds := appCore.Redis()
		if rds == nil || limitPerMinute <= 0 {
			return
		}

		bucket := fmt.Sprintf("docpile:limit:%s:%d", genKey(c), time.Now().Unix()/60)
		count, err := rds.Incr(c, bucket).Result()
		if err != nil {
			return
		}
		if count == 1 {
			rds.Expire(c, bucket, time.Minute*2)
		}
		if count > int64(limitPerMinute) {
			response.APIError(c, errors.New("middleware.UseLimit."+key, i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests))
		}
	}
}
