package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-protos-go-apiv2/peer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/agritraceio/agritrace-backend/pkg/config"
	pkgerrors "github.com/agritraceio/agritrace-backend/pkg/errors"
)

// NetworkBackend serves contract calls through a Fabric gateway peer using
// the enrolled identity from the wallet directory.
type NetworkBackend struct {
	conn     *grpc.ClientConn
	gw       *client.Gateway
	contract *client.Contract
}

// Connect dials the gateway peer and opens the channel/chaincode named in
// configuration. Every failure here (missing wallet entry, bad TLS
// material, unreachable peer) is a CONNECTION_ERROR surfaced to the caller.
func Connect(cfg config.LedgerConfig) (*NetworkBackend, error) {
	enrolled, err := loadIdentity(cfg)
	if err != nil {
		return nil, err
	}

	creds := insecure.NewCredentials()
	if cfg.TLSCertPath != "" {
		pool, err := loadTLSCertPool(cfg.TLSCertPath)
		if err != nil {
			return nil, err
		}
		creds = credentials.NewClientTLSFromCert(pool, cfg.GatewayPeer)
	}

	conn, err := grpc.NewClient(cfg.PeerEndpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnection, err,
			fmt.Sprintf("dialing gateway peer %s", cfg.PeerEndpoint))
	}

	gw, err := client.Connect(
		enrolled.id,
		client.WithSign(enrolled.sign),
		client.WithClientConnection(conn),
		client.WithEvaluateTimeout(cfg.EvaluateWindow),
		client.WithEndorseTimeout(cfg.SubmitTimeout),
		client.WithSubmitTimeout(cfg.SubmitTimeout),
		client.WithCommitStatusTimeout(cfg.CommitTimeout),
	)
	if err != nil {
		_ = conn.Close()
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnection, err, "connecting to gateway")
	}

	network := gw.GetNetwork(cfg.Channel)
	return &NetworkBackend{
		conn:     conn,
		gw:       gw,
		contract: network.GetContract(cfg.Chaincode),
	}, nil
}

func (b *NetworkBackend) Mode() Mode {
	return ModeNetwork
}

func (b *NetworkBackend) Close() error {
	b.gw.Close()
	return b.conn.Close()
}

// Submit sends op through endorsement and ordering, blocking until the
// transaction is durably committed or rejected. The returned CommitResult
// carries the Fabric transaction id and the block it landed in.
func (b *NetworkBackend) Submit(ctx context.Context, op string, args ...string) ([]byte, *CommitResult, error) {
	proposal, err := b.contract.NewProposal(op, client.WithArguments(args...))
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeLedger, err, fmt.Sprintf("building %s proposal", op))
	}

	txn, err := proposal.EndorseWithContext(ctx)
	if err != nil {
		return nil, nil, mapNetworkError(err, op)
	}

	commit, err := txn.SubmitWithContext(ctx)
	if err != nil {
		return nil, nil, mapNetworkError(err, op)
	}

	status, err := commit.StatusWithContext(ctx)
	if err != nil {
		return nil, nil, mapNetworkError(err, op)
	}
	if !status.Successful {
		code := peer.TxValidationCode_name[int32(status.Code)]
		return nil, nil, pkgerrors.New(pkgerrors.CodeLedger,
			fmt.Sprintf("%s invalidated with status %s", op, code))
	}

	return txn.Result(), &CommitResult{
		TransactionID: status.TransactionID,
		BlockNumber:   status.BlockNumber,
	}, nil
}

// Evaluate answers op from a local peer without ordering. The result may
// trail an in-flight submit from another client.
func (b *NetworkBackend) Evaluate(ctx context.Context, op string, args ...string) ([]byte, error) {
	raw, err := b.contract.EvaluateWithContext(ctx, op, client.WithArguments(args...))
	if err != nil {
		return nil, mapNetworkError(err, op)
	}
	return raw, nil
}

// mapNetworkError translates gateway SDK failures into the contract-level
// taxonomy. Chaincode-raised absence errors travel back as endorsement
// failures, so the message is inspected to restore NOT_FOUND semantics.
func mapNetworkError(err error, op string) error {
	msg := err.Error()
	if strings.Contains(msg, "does not exist") {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, fmt.Sprintf("%s target missing", op))
	}

	var endorse *client.EndorseError
	if errors.As(err, &endorse) {
		return pkgerrors.Wrap(pkgerrors.CodeLedger, err, fmt.Sprintf("%s rejected at endorsement", op))
	}
	var submit *client.SubmitError
	if errors.As(err, &submit) {
		return pkgerrors.Wrap(pkgerrors.CodeConnection, err, fmt.Sprintf("%s failed to reach ordering", op))
	}
	var commitStatus *client.CommitStatusError
	if errors.As(err, &commitStatus) {
		return pkgerrors.Wrap(pkgerrors.CodeConnection, err, fmt.Sprintf("%s commit status unavailable", op))
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return pkgerrors.Wrap(pkgerrors.CodeConnection, err, fmt.Sprintf("%s timed out", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeLedger, err, fmt.Sprintf("%s failed", op))
}
