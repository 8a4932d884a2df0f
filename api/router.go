// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"userhub/account-api/db"
	"userhub/account-api/internal/account"
	"userhub/account-api/internal/mail"
	"userhub/account-api/internal/media"
	"userhub/account-api/middleware"
	"userhub/account-api/pkg/security"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	Router   *gin.Engine
	Accounts *account.Service
	Tokens   *security.TokenIssuer
}

// NewRouter wires the real collaborators (database, SMTP, R2) and
// builds the HTTP surface. Tests construct New directly with fakes.
func NewRouter() (*API, error) {
	makeLogger()

	conn, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	mailer := mail.New(mail.Config{
		Host:     viper.GetString("mail.host"),
		Port:     viper.GetInt("mail.port"),
		Username: viper.GetString("mail.username"),
		Password: viper.GetString("mail.password"),
		From:     viper.GetString("mail.from"),
	})

	uploader, err := media.NewR2(media.Config{
		AccountID:       viper.GetString("cloudflare.account_id"),
		AccessKeyID:     viper.GetString("cloudflare.access_key_id"),
		SecretAccessKey: viper.GetString("cloudflare.secret_access_key"),
		Bucket:          viper.GetString("cloudflare.bucket"),
		PublicBaseURL:   viper.GetString("cloudflare.public_base_url"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media storage, %w", err)
	}

	tokens := security.NewTokenIssuer(
		viper.GetString("jwt.secret"),
		time.Duration(viper.GetInt("jwt.expiry_hours"))*time.Hour,
	)

	svc := account.NewService(
		account.NewGormStore(conn),
		security.NewArgon(),
		tokens,
		mailer,
		uploader,
	)

	return New(svc, tokens), nil
}

// New builds the router around an already-wired account service
func New(svc *account.Service, tokens *security.TokenIssuer) *API {
	a := &API{
		Accounts: svc,
		Tokens:   tokens,
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	jwt := middleware.NewJWTMiddleware(tokens)
	turnstile := middleware.NewTurnstileMiddleware()
	rateLimit := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: viper.GetInt("rate_limit.rps"),
		Burst:             viper.GetInt("rate_limit.burst"),
	})
	maxUploadSize := viper.GetInt64("upload.max_size")

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// HEAD /api/validate		-> Validates a JWT token
		main.HEAD("/validate", jwt, a.Validate)
	}

	users := main.Group("/users", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/users 				-> Registers a new user and mails the OTP
		users.POST("", rateLimit, turnstile, a.UserRegister)

		// POST /api/users/login 			-> Logs in a verified user, returns a JWT token
		users.POST("/login", rateLimit, a.UserLogin)

		// POST /api/users/verify-otp			-> Verifies the registration OTP
		users.POST("/verify-otp", rateLimit, a.UserVerifyOtp)

		// POST /api/users/resend-otp			-> Resends the registration OTP
		users.POST("/resend-otp", rateLimit, a.UserResendOtp)

		// POST /api/users/forgot-password		-> Mails a password reset OTP
		users.POST("/forgot-password", rateLimit, turnstile, a.UserForgotPassword)

		// POST /api/users/verify-forgot-password-otp	-> Verifies the reset OTP, returns a JWT token
		users.POST("/verify-forgot-password-otp", rateLimit, a.UserVerifyResetOtp)

		// POST /api/users/reset-password		-> Sets a new password (OTP-authorized token)
		users.POST("/reset-password", jwt, a.UserResetPassword)

		// POST /api/users/update-password		-> Changes the password (old password required)
		users.POST("/update-password", jwt, a.UserUpdatePassword)

		// GET /api/users/profile			-> Returns the sanitized account
		users.GET("/profile", jwt, cachePerUser(30), a.UserProfile)
	}

	// POST /api/users/profile-image	-> Uploads a profile image, body limit applies to the file
	main.POST("/users/profile-image", jwt, middleware.BodySizeLimiter(maxUploadSize), a.UserProfileImage)

	return a
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

// cachePerUser keys the cache on URI plus the authenticated user so
// one user's cached response never serves another. A cached hit
// replays the stored body verbatim, so handlers behind it must not
// put per-request fields (requestID and the like) in the response.
func cachePerUser(sec int) gin.HandlerFunc {
	return cache.Cache(store, time.Second*time.Duration(sec),
		cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
			return true, cache.Strategy{
				CacheKey: c.Request.RequestURI + ":" + c.GetString("userID"),
			}
		}),
	)
}
