package utils

import (
	"os"
	"strconv"

	"go.viam.com/quaternion/logging"
)

// ParallelFactorEnvVar is the environment variable that can be set to override the
// number of goroutines batch evaluation is split across.
const ParallelFactorEnvVar = "QUATERNION_PARALLEL_FACTOR"

// ParallelThresholdEnvVar is the environment variable that can be set to override
// ParallelThreshold.
const ParallelThresholdEnvVar = "QUATERNION_PARALLEL_THRESHOLD"

// GetParallelFactor calculates the worker count (env variable value if set and valid,
// fallback otherwise).
func GetParallelFactor(fallback int, logger logging.Logger) int {
	return positiveIntHelper(fallback, ParallelFactorEnvVar, logger)
}

// GetParallelThreshold calculates the serial cutoff for batch evaluation (env variable
// value if set and valid, fallback otherwise).
func GetParallelThreshold(fallback int, logger logging.Logger) int {
	return positiveIntHelper(fallback, ParallelThresholdEnvVar, logger)
}

// ConfigureParallelism applies the environment overrides to ParallelFactor and ParallelThreshold.
func ConfigureParallelism(logger logging.Logger) {
	ParallelFactor = GetParallelFactor(ParallelFactor, logger)
	ParallelThreshold = GetParallelThreshold(ParallelThreshold, logger)
	logger.Debugw("configured batch parallelism", "factor", ParallelFactor, "threshold", ParallelThreshold)
}

func positiveIntHelper(fallback int, envVar string, logger logging.Logger) int {
	val := os.Getenv(envVar)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		logger.Warnw("failed to parse env var, using default", "name", envVar, "value", val, "default", fallback, "error", err)
		return fallback
	}
	if parsed <= 0 {
		logger.Warnw("env var must be positive, using default", "name", envVar, "value", parsed, "default", fallback)
		return fallback
	}
	return parsed
}
