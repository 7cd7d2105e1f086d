package devserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
)

// DefaultPort is the port the game page is usually opened on.
const DefaultPort = 8000

// Server serves a directory over HTTP for testing sprites in a browser,
// including from a phone on the same network.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	root       string
	port       int
}

// NewServer creates a server for root on port.
func NewServer(root string, port int) *Server {
	s := &Server{
		mux:  http.NewServeMux(),
		root: root,
		port: port,
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.mux.Handle("/", noCache(http.FileServer(http.Dir(s.root))))
}

// noCache stops browsers from holding on to sprites between normalizer runs.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(noStoreWriter{w}, r)
	})
}

// noStoreWriter sets the header again right before the status line, since
// http.FileServer clears Cache-Control when it writes an error.
type noStoreWriter struct {
	http.ResponseWriter
}

func (w noStoreWriter) WriteHeader(code int) {
	w.Header().Set("Cache-Control", "no-store")
	w.ResponseWriter.WriteHeader(code)
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// URLs returns the loopback and LAN addresses of page. The LAN address is
// empty when no non-loopback IPv4 interface is found.
func (s *Server) URLs(page string) (local, network string) {
	local = fmt.Sprintf("http://localhost:%d/%s", s.port, page)
	if ip := LANAddress(); ip != "" {
		network = fmt.Sprintf("http://%s:%d/%s", ip, s.port, page)
	}
	return local, network
}

// Start listens on all interfaces. This is blocking.
func (s *Server) Start() error {
	if info, err := os.Stat(s.root); err != nil || !info.IsDir() {
		return errors.Errorf("serve root %s is not a directory", s.root)
	}
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down, waiting for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// LANAddress returns the first non-loopback IPv4 address of this host.
func LANAddress() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}
