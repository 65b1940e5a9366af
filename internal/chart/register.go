// Package chart renders distribution series as PNG pie and bar charts.
package chart

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// ErrNotRegistered is returned when rendering before Register.
var ErrNotRegistered = errors.New("chart renderer not registered")

var (
	registerOnce sync.Once
	registerErr  error
	registered   atomic.Bool
)

// Register performs the process-wide chart setup: it loads the default font
// so rendering never has to. It must be called once before any Render;
// repeated calls return the first result.
func Register() error {
	registerOnce.Do(func() {
		if _, err := gochart.GetDefaultFont(); err != nil {
			registerErr = fmt.Errorf("loading chart font: %w", err)
			return
		}
		registered.Store(true)
	})
	return registerErr
}

// Registered reports whether Register has completed successfully.
func Registered() bool {
	return registered.Load()
}
