// Package dynamodirectory adapts peer discovery onto DynamoDB, following
// the same client/marshal/PutItem/Scan shape as
// internal/repository/db/metadata_repository.go. It never persists
// object or shard content: the table holds only peer heartbeats (node
// id, address, last-seen timestamp), since the system's own replication
// guarantees are what protect object durability, not the directory.
//
// Discover is the only method this package implements against DynamoDB.
// Send and Recv are delegated to an underlying network.Port (typically
// simnet, or a production message transport), since a directory table is
// the wrong shape for message delivery.
package dynamodirectory

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	log "github.com/sirupsen/logrus"

	"github.com/shardmesh/peershard/internal/network"
	"github.com/shardmesh/peershard/internal/protocol"
)

// StaleAfter is the age past which a heartbeat is treated as a dead peer
// and excluded from Discover's result.
const StaleAfter = 90 * time.Second

// heartbeat is the sole item shape stored in the directory table.
type heartbeat struct {
	NodeID   string `dynamodbav:"node_id"`
	Address  string `dynamodbav:"address"`
	LastSeen int64  `dynamodbav:"last_seen"`
}

// Directory is a DynamoDB-backed peer directory: nodes announce
// themselves with Announce and discover each other with Discover. It
// wraps an underlying transport for Send/Recv, implementing network.Port
// in full.
type Directory struct {
	client    *dynamodb.Client
	table     string
	self      network.PeerID
	address   string
	transport network.Port
	now       func() int64
}

// New constructs a Directory bound to self, backed by table, delegating
// message delivery to transport.
func New(awsCfg aws.Config, table string, self network.PeerID, address string, transport network.Port) *Directory {
	return &Directory{
		client:    dynamodb.NewFromConfig(awsCfg),
		table:     table,
		self:      self,
		address:   address,
		transport: transport,
		now:       func() int64 { return time.Now().Unix() },
	}
}

// Announce writes or refreshes this node's heartbeat. Callers are
// expected to call it periodically (e.g. once per reactor tick) so
// Discover elsewhere reflects liveness rather than a one-time
// registration.
func (d *Directory) Announce(ctx context.Context) error {
	item, err := attributevalue.MarshalMap(heartbeat{
		NodeID:   string(d.self),
		Address:  d.address,
		LastSeen: d.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal heartbeat: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("announce to peer directory: %w", err)
	}
	return nil
}

// Discover scans the directory table for live peers, excluding self and
// any heartbeat older than StaleAfter.
func (d *Directory) Discover(ctx context.Context) ([]network.PeerID, error) {
	out, err := d.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(d.table),
	})
	if err != nil {
		return nil, fmt.Errorf("scan peer directory: %w", err)
	}

	cutoff := d.now() - int64(StaleAfter.Seconds())
	peers := make([]network.PeerID, 0, len(out.Items))
	for _, item := range out.Items {
		var hb heartbeat
		if err := attributevalue.UnmarshalMap(item, &hb); err != nil {
			log.WithError(err).Warn("skipping malformed peer directory entry")
			continue
		}
		if hb.NodeID == string(d.self) || hb.LastSeen < cutoff {
			continue
		}
		peers = append(peers, network.PeerID(hb.NodeID))
	}
	return peers, nil
}

// Send delegates to the underlying transport.
func (d *Directory) Send(ctx context.Context, to network.PeerID, cmd protocol.Command) {
	d.transport.Send(ctx, to, cmd)
}

// Recv delegates to the underlying transport.
func (d *Directory) Recv(ctx context.Context) (network.Inbound, bool) {
	return d.transport.Recv(ctx)
}

// EnsureTable is a convenience for local/demo runs that creates the
// directory table if it does not already exist, with node_id as the
// sole partition key. Production deployments are expected to provision
// the table out of band; this exists for cmd/peerctl serve's first-run
// convenience.
func EnsureTable(ctx context.Context, awsCfg aws.Config, table string) error {
	client := dynamodb.NewFromConfig(awsCfg)

	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err == nil {
		return nil
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("node_id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("node_id"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create peer directory table: %w", err)
	}
	return nil
}
