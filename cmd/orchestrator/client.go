package main

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian/orchestrator/pkg/client"
)

// addClientFlags attaches the flags every CLI command that talks to
// the api process needs: where it lives, and how to authenticate to
// it. mTLS client-certificate issuance is an external collaborator
// concern (the CLI auth handshake is stubbed); when no cert is given
// the CLI dials without transport security, the same path the api
// process's own tests use.
func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("api-addr", "127.0.0.1:8443", "orchestrator api address")
	cmd.Flags().String("tls-cert", "", "client certificate (PEM) for mTLS")
	cmd.Flags().String("tls-key", "", "client key (PEM) for mTLS")
	cmd.Flags().String("tls-ca", "", "CA bundle (PEM) used to verify the api server")
}

func dialClient(cmd *cobra.Command) (*client.Client, error) {
	addr, _ := cmd.Flags().GetString("api-addr")
	certPath, _ := cmd.Flags().GetString("tls-cert")
	keyPath, _ := cmd.Flags().GetString("tls-key")
	caPath, _ := cmd.Flags().GetString("tls-ca")

	var tlsConfig *tls.Config
	if certPath != "" && keyPath != "" {
		cert, err := tls.LoadX509KeyPair(certPath, keyPath)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
		if caPath != "" {
			pemBytes, err := os.ReadFile(caPath)
			if err != nil {
				return nil, fmt.Errorf("read ca bundle: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pemBytes) {
				return nil, fmt.Errorf("ca bundle %s contains no usable certificates", caPath)
			}
			tlsConfig.RootCAs = pool
		}
	}

	return client.Dial(addr, tlsConfig)
}
