package gateway

import (
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperledger/fabric-gateway/pkg/identity"

	"github.com/agritraceio/agritrace-backend/pkg/config"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

const (
	walletCertFile = "cert.pem"
	walletKeyFile  = "key.pem"
)

// enrolledIdentity is the signing material loaded from the wallet directory.
type enrolledIdentity struct {
	id   *identity.X509Identity
	sign identity.Sign
}

// loadIdentity reads the enrolled certificate and private key from the
// wallet directory. A missing or unreadable wallet entry surfaces as a
// CONNECTION_ERROR here, at connect time rather than at first use.
func loadIdentity(cfg config.LedgerConfig) (*enrolledIdentity, error) {
	certPEM, err := os.ReadFile(filepath.Join(cfg.WalletDir, walletCertFile))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnection, err,
			fmt.Sprintf("no wallet entry for %s: reading certificate", cfg.MSPID))
	}
	keyPEM, err := os.ReadFile(filepath.Join(cfg.WalletDir, walletKeyFile))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnection, err,
			fmt.Sprintf("no wallet entry for %s: reading private key", cfg.MSPID))
	}

	cert, err := identity.CertificateFromPEM(certPEM)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnection, err, "parsing enrollment certificate")
	}
	id, err := identity.NewX509Identity(cfg.MSPID, cert)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnection, err, "building X.509 identity")
	}

	key, err := identity.PrivateKeyFromPEM(keyPEM)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnection, err, "parsing private key")
	}
	sign, err := identity.NewPrivateKeySign(key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnection, err, "building signer")
	}

	return &enrolledIdentity{id: id, sign: sign}, nil
}

// loadTLSCertPool reads the peer's TLS CA certificate for the grpc channel.
func loadTLSCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnection, err, "reading peer TLS certificate")
	}
	cert, err := identity.CertificateFromPEM(pem)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnection, err, "parsing peer TLS certificate")
	}
	pool := x509.NewCertPool()
	pool.AddCert(cert)
	return pool, nil
}
