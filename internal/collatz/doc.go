// Package collatz computes, for each input value, the number of Collatz
// steps needed to reach 1 within a step budget, or the value reached when the
// budget runs out first. Batches are dispatched sequentially or in parallel
// by the dispatch package.
package collatz
