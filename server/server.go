package server

import (
	"os"
)

type Server struct{}

// Run serves the router on PORT, defaulting to 8080.
func (s *Server) Run(runner interface{ Run(addr ...string) error }) error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return runner.Run(":" + port)
}
