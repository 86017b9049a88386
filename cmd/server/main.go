package main

import (
	_ "github.com/eleven-am/transcript-demo/docs"
	"github.com/eleven-am/transcript-demo/internal/bootstrap"
)

// @title Transcript Demo API
// @version 1.0.0
// @description Simulated live transcription for an audio player

// @host localhost:8080
// @BasePath /v1

func main() {
	bootstrap.Run()
}
