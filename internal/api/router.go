package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/errreport"
)

// NewRouter builds the gateway engine with its middleware chain.
func NewRouter(ctrl *Controller, limiter *RateLimiter, reporter errreport.Reporter) *gin.Engine {
	if reporter == nil {
		reporter = errreport.Default(nil)
	}

	r := gin.New()
	r.Use(RecoveryMiddleware(reporter))
	r.Use(CORSMiddleware())
	r.Use(RequestIDMiddleware())
	if limiter != nil {
		r.Use(limiter.Middleware())
		r.GET("/rate-limit/status", limiter.Status)
	}

	ctrl.Register(r)
	return r
}
