package utils

import (
	"fmt"
	"math"
	"runtime"
)

func GetMemUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	// For info on each, see: https://golang.org/pkg/runtime/#MemStats
	bToMb := func(b uint64) uint64 {
		return b / 1024 / 1024
	}
	return fmt.Sprintf("Alloc = %v MiB TotalAlloc = %v MiB Sys = %v MiB NumGC = %v",
		bToMb(m.Alloc), bToMb(m.TotalAlloc), bToMb(m.Sys), m.NumGC)
}

// IsNan reports whether A is, or contains, a NaN or an infinity.
func IsNan(A any) bool {
	switch v := A.(type) {
	case float64:
		return math.IsNaN(v) || math.IsInf(v, 0)
	case float32:
		return IsNan(float64(v))
	case []float64:
		for _, f := range v {
			if IsNan(f) {
				return true
			}
		}
	case []float32:
		for _, f := range v {
			if IsNan(float64(f)) {
				return true
			}
		}
	}
	return false
}
