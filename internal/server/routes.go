package server

import "net/http"

// setupRoutes configures all HTTP routes. The MCP endpoint is mounted
// separately by the registry's Build.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Demo API routes backing the local tools
	mux.HandleFunc("/api/multiply", s.app.MathHandler.Multiply)
	mux.HandleFunc("/api/add", s.app.MathHandler.Add)
	mux.HandleFunc("/api/subtract", s.app.MathHandler.Subtract)
	mux.HandleFunc("/api/hello", s.app.MathHandler.Hello)
	mux.HandleFunc("/api/items/{id}", s.app.ItemsHandler.Get)

	// Operational routes
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
