package main

import (
	"github.com/Baehyeonu/classwatch/internal/application"
)

func main() {
	application.Initialize(false)
}
