package entitlements

import (
	"strings"

	"github.com/rabbithole-social/rabbithole/app/models"
)

type Plan string

const (
	PlanFree         Plan = models.PlanFree
	PlanGoldenCarrot Plan = models.PlanGoldenCarrot
)

// Normalize maps arbitrary plan strings to a known plan, defaulting to free.
func Normalize(plan string) Plan {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(PlanGoldenCarrot):
		return PlanGoldenCarrot
	default:
		return PlanFree
	}
}

// MaxPostBodyLen returns the post body length bound for a plan.
func MaxPostBodyLen(plan Plan) int {
	switch plan {
	case PlanGoldenCarrot:
		return 4000
	default:
		return 500
	}
}

// MaxPostImages returns how many images a post may carry for a plan.
func MaxPostImages(plan Plan) int {
	switch plan {
	case PlanGoldenCarrot:
		return 10
	default:
		return 4
	}
}

// ForPremium is the inverse projection: a premium profile is on the
// golden_carrot plan, everyone else is free.
func ForPremium(isPremium bool) Plan {
	if isPremium {
		return PlanGoldenCarrot
	}
	return PlanFree
}
