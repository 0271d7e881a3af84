// Package certs locates per-host client certificates. The lifecycle of
// the files is external; this registry only detects presence and loads.
package certs

import (
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
)

// Registry resolves client certificates from a directory of
// <host>.crt / <host>.key PEM pairs.
type Registry struct {
	dir string
}

// NewRegistry creates a registry over the given certificate directory.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir}
}

// Paths returns the expected certificate and key paths for a host.
func (r *Registry) Paths(host string) (certPath, keyPath string) {
	return filepath.Join(r.dir, host+".crt"), filepath.Join(r.dir, host+".key")
}

// Certificate loads the certificate for host when both the .crt and .key
// files exist. It returns nil with no error when either is absent;
// presence of both is the sole trigger for presenting a certificate.
func (r *Registry) Certificate(host string) (*tls.Certificate, error) {
	certPath, keyPath := r.Paths(host)

	if _, err := os.Stat(certPath); err != nil {
		return nil, nil
	}
	if _, err := os.Stat(keyPath); err != nil {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("loading certificate pair for %s: %w", host, err)
	}
	return &cert, nil
}
