package adminapi

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"dualtor-linkmgrd/pkg/linkmgr"
)

// ServerTLSConfig builds a TLS config for the admin HTTP surface, with
// optional mutual TLS when clientCA is set, adapted from pkg/api/tls.go. Any
// failure here happens before the server starts accepting connections, so it
// is classified KindConfigNotFound (§7: fatal before any supervisors exist)
// rather than KindTransientAdapter — a bad cert path never recovers on
// retry.
func ServerTLSConfig(certFile, keyFile, clientCA string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, &linkmgr.Error{Kind: linkmgr.KindConfigNotFound, Err: err}
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if clientCA == "" {
		return cfg, nil
	}
	caData, err := os.ReadFile(clientCA)
	if err != nil {
		return nil, &linkmgr.Error{Kind: linkmgr.KindConfigNotFound, Err: err}
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caData) {
		return nil, &linkmgr.Error{Kind: linkmgr.KindConfigNotFound, Err: errInvalidClientCA}
	}
	cfg.ClientCAs = pool
	cfg.ClientAuth = tls.RequireAndVerifyClientCert
	return cfg, nil
}

var errInvalidClientCA = tlsConfigError("adminapi: client CA bundle contains no usable certificates")

type tlsConfigError string

func (e tlsConfigError) Error() string { return string(e) }
