package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reviewsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewmod_reviews_created_total",
		Help: "Total number of reviews submitted.",
	})

	reviewEditsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewmod_review_edits_total",
		Help: "Total number of owner edits that sent a review back to moderation.",
	})

	moderationDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewmod_moderation_decisions_total",
		Help: "Total number of moderation decisions by action.",
	}, []string{"action"})
)
