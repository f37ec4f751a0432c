// Package parallel runs loop bodies on a bounded number of goroutines.
package parallel

import "sync"

// ForEach calls body(i) for every i in [0, length) with at most limit
// bodies running at once, and returns when all of them have finished.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1
	}
	if length <= 0 {
		return
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			body(i)
		}(i)
	}

	wg.Wait()
}

// Chunk is the half-open index range [Lo, Hi).
type Chunk struct {
	Lo, Hi int
}

// Split cuts length items into at most n contiguous chunks whose sizes
// differ by at most one. The result depends only on length and n.
func Split(length, n int) []Chunk {
	if n <= 0 {
		n = 1
	}
	if n > length {
		n = length
	}
	chunks := make([]Chunk, 0, n)
	lo := 0
	for c := 0; c < n; c++ {
		size := length / n
		if c < length%n {
			size++
		}
		chunks = append(chunks, Chunk{Lo: lo, Hi: lo + size})
		lo += size
	}
	return chunks
}
