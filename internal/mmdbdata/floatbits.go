package mmdbdata

import "math"

func float64frombits(bits uint64) float64 { return math.Float64frombits(bits) }
func float32frombits(bits uint32) float32 { return math.Float32frombits(bits) }
func float64bits(f float64) uint64        { return math.Float64bits(f) }
func float32bits(f float32) uint32        { return math.Float32bits(f) }
