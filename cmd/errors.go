package cmd

import "errors"

// ErrNothingToProcess is returned when process is given neither domains nor --all
var ErrNothingToProcess = errors.New("provide at least one domain or --all")
