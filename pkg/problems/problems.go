// Package problems maps configured problem kinds to their implementations.
package problems

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/AlexanderDJackson/cs467/internal/types"
	"github.com/AlexanderDJackson/cs467/pkg/genetic"
	"github.com/AlexanderDJackson/cs467/pkg/problems/knapsack"
	"github.com/AlexanderDJackson/cs467/pkg/problems/market"
)

// Kinds lists the supported problem kinds.
var Kinds = []string{types.ProblemKnapsack, types.ProblemMarket}

// New loads the problem of the given kind from files.
func New(logger *logrus.Logger, config types.ProblemConfig) (genetic.Problem, error) {
	switch config.Kind {
	case types.ProblemKnapsack:
		return knapsack.Load(logger, config.Files...)
	case types.ProblemMarket:
		return market.Load(logger, config.Files...)
	default:
		return nil, fmt.Errorf("unknown problem %q, expected one of %v", config.Kind, Kinds)
	}
}
