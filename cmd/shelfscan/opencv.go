//go:build gocv

package main

import _ "github.com/ironsheep/shelfscan/internal/opencv" // Register the "opencv" backend
