package collatz

import "math"

// maxSafeOdd is the largest odd value whose 3n+1 successor fits in a uint64.
const maxSafeOdd = (math.MaxUint64 - 1) / 3

// Outcome is the tagged form of a single transform.
type Outcome struct {
	// Value is what Transform returns: Steps when Converged, otherwise the
	// working value at cutoff.
	Value uint64
	// Steps is the number of iterations performed.
	Steps int
	// Converged reports whether the working value reached 1.
	Converged bool
	// Wrapped reports whether any 3n+1 step overflowed and wrapped.
	Wrapped bool
}

// Evaluate iterates the Collatz rule on num for at most maxIterations steps.
// A non-positive maxIterations performs no step.
//
// Arithmetic wraps modulo 2^64: an odd value above maxSafeOdd produces
// 3*value+1 truncated to 64 bits, exactly as Go's uint64 multiplication does.
// Outcome.Wrapped records when that happened.
func Evaluate(num uint64, maxIterations int) Outcome {
	value, steps, wrapped := num, 0, false
	for value != 1 && steps < maxIterations {
		if value%2 == 0 {
			value /= 2
		} else {
			if value > maxSafeOdd {
				wrapped = true
			}
			value = 3*value + 1
		}
		steps++
	}
	if value == 1 {
		return Outcome{Value: uint64(steps), Steps: steps, Converged: true, Wrapped: wrapped}
	}
	return Outcome{Value: value, Steps: steps, Wrapped: wrapped}
}

// Transform returns the number of steps for num to reach 1 when that happens
// within maxIterations steps, and the working value at cutoff otherwise.
//
// The two cases share one integer result: a non-converged value can equal a
// plausible step count. Callers that need to tell them apart use Evaluate.
func Transform(num uint64, maxIterations int) uint64 {
	return Evaluate(num, maxIterations).Value
}
