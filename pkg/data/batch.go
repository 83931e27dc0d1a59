package data

// Sample is one training example.
type Sample struct {
	X []float64
	Y float64
}

// Batch is a collection of samples.
type Batch struct {
	X [][]float64
	Y []float64
}

// Stream emits the rows of X and Y as samples. Close the returned done chan
// to stop early; out is closed when streaming ends.
func Stream(X [][]float64, Y []float64, out chan<- Sample) (done chan struct{}) {
	done = make(chan struct{})
	go func() {
		defer close(out)
		for i := range X {
			select {
			case <-done:
				return
			case out <- Sample{X: X[i], Y: Y[i]}:
			}
		}
	}()
	return done
}

// Batcher reads samples from in and emits mini-batches of batchSize on out.
// The final batch may be smaller. Close the returned done chan to stop early.
func Batcher(in <-chan Sample, batchSize int, out chan<- Batch) (done chan struct{}) {
	if batchSize < 1 {
		batchSize = 1
	}
	done = make(chan struct{})

	go func() {
		defer close(out)

		var X [][]float64
		var Y []float64
		for {
			select {
			case <-done:
				return
			case s, ok := <-in:
				if !ok {
					if len(Y) > 0 {
						select {
						case out <- Batch{X: X, Y: Y}:
						case <-done:
						}
					}
					return
				}
				X = append(X, s.X)
				Y = append(Y, s.Y)
				if len(Y) == batchSize {
					select {
					case out <- Batch{X: X, Y: Y}:
					case <-done:
						return
					}
					X = nil
					Y = nil
				}
			}
		}
	}()

	return done
}
