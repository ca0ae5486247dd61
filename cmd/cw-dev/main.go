package main

import (
	"github.com/Baehyeonu/classwatch/internal/application"
)

// Dev mode:
// Currently the only difference is that this doesn't require the --dev flag

func main() {
	application.Initialize(true)
}
