package api

import "context"

// PowerClient binds the power service.
type PowerClient struct {
	c *Client
}

// PowerRequest selects a power transition.
type PowerRequest struct {
	Request string `json:"request"` // "on", "off", "cycle"
}

type powerCommandResponse struct {
	CommandID int `json:"command_id"`
}

// PowerFeedback is the status of a previously issued power command.
type PowerFeedback struct {
	Status string `json:"status"` // "in_progress", "success", "failed"
}

// PowerCommand issues a power transition and returns a command id for
// feedback polling. The service rejects commands while another client holds
// the body lease.
func (p *PowerClient) PowerCommand(ctx context.Context, req PowerRequest) (int, error) {
	var resp powerCommandResponse
	if err := p.c.call(ctx, "power/command", req, &resp); err != nil {
		return 0, err
	}
	return resp.CommandID, nil
}

type powerFeedbackRequest struct {
	CommandID int `json:"command_id"`
}

// PowerCommandFeedback returns the status of an earlier power command.
func (p *PowerClient) PowerCommandFeedback(ctx context.Context, commandID int) (*PowerFeedback, error) {
	var fb PowerFeedback
	if err := p.c.call(ctx, "power/feedback", powerFeedbackRequest{CommandID: commandID}, &fb); err != nil {
		return nil, err
	}
	return &fb, nil
}
