//go:build js

package pipeline

import "errors"

func marshalSamplesParquet([]Sample) ([]byte, error) {
	return nil, errors.New("parquet samples are not available in the browser build")
}
