package snapshot

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
)

// localServer serves one rendered page from a temp dir for the browser.
type localServer struct {
	listener net.Listener
	server   *http.Server
	dir      string
}

func serve(content []byte, filename string) (*localServer, error) {
	dir, err := os.MkdirTemp("", "agroscan-snapshot-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, filename), content, 0644); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to write page: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to find port: %w", err)
	}

	srv := &localServer{
		listener: listener,
		dir:      dir,
		server: &http.Server{
			Handler: http.FileServer(http.Dir(dir)),
		},
	}
	go srv.server.Serve(listener)

	return srv, nil
}

func (s *localServer) URL(filename string) string {
	return fmt.Sprintf("http://%s/%s", s.listener.Addr().String(), filename)
}

func (s *localServer) Stop() {
	s.server.Shutdown(context.Background())
	os.RemoveAll(s.dir)
}
