package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/deskradar/clients-api/platform/persistence"
)

// Deployer places deployment orders on the provisioning topic. The payload is
// a snapshot of the client reduced to the fields the provisioning worker
// needs.
type Deployer struct {
	publisher Publisher
	topicARN  string
}

func NewDeployer(publisher Publisher, topicARN string) (*Deployer, error) {
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if topicARN == "" {
		return nil, errors.New("topic arn is required")
	}
	return &Deployer{publisher: publisher, topicARN: topicARN}, nil
}

type deploymentOrder struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	Consent    bool                `json:"consent"`
	Approved   bool                `json:"approved"`
	Deployment orderDeploymentInfo `json:"deployment"`
}

type orderDeploymentInfo struct {
	Status       string    `json:"status"`
	Domain       string    `json:"domain"`
	AppVersion   string    `json:"app_version"`
	Trial        bool      `json:"trial"`
	TrialEndDate time.Time `json:"trial_end_date"`
	Node         string    `json:"node"`
	IPAddress    string    `json:"ipaddress"`
	SSHPort      int       `json:"ssh_port"`
}

// PlaceOrder publishes a deployment order carrying the current client
// snapshot.
func (d *Deployer) PlaceOrder(ctx context.Context, client persistence.Client) error {
	order := deploymentOrder{
		ID:       client.ID.String(),
		Name:     client.Name,
		Email:    client.Email,
		Consent:  client.Consent,
		Approved: client.Approved,
		Deployment: orderDeploymentInfo{
			Status:       client.Deployment.Status,
			Domain:       client.Deployment.Domain,
			AppVersion:   client.Deployment.AppVersion,
			Trial:        client.Deployment.Trial,
			TrialEndDate: client.Deployment.TrialEndDate,
			Node:         client.Deployment.Node,
			IPAddress:    client.Deployment.IPAddress,
			SSHPort:      client.Deployment.SSHPort,
		},
	}

	message, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal deployment order: %w", err)
	}
	return d.publisher.Publish(ctx, d.topicARN, "", string(message))
}
