package dataframe

// LazyFrame is an unevaluated, composable description of a tabular
// computation. It is an immutable value: composing or copying one
// never runs anything, and the same LazyFrame can be collected any
// number of times with the same result (sources permitting).
type LazyFrame struct {
	run func() (*DataFrame, error)
}

// Lazy defers a frame-producing function.
func Lazy(fn func() (*DataFrame, error)) LazyFrame {
	return LazyFrame{run: fn}
}

// Eager wraps an already-materialized frame.
func Eager(df *DataFrame) LazyFrame {
	return LazyFrame{run: func() (*DataFrame, error) {
		return df, nil
	}}
}

// Collect materializes the plan.
func (lf LazyFrame) Collect() (*DataFrame, error) {
	return lf.run()
}

// Map appends a frame transformation to the plan.
func (lf LazyFrame) Map(fn func(*DataFrame) (*DataFrame, error)) LazyFrame {
	prev := lf.run
	return LazyFrame{run: func() (*DataFrame, error) {
		df, err := prev()
		if err != nil {
			return nil, err
		}
		return fn(df)
	}}
}
